package maidmanager

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frrp/MaidSafe-Vault/dispatch"
	"github.com/frrp/MaidSafe-Vault/keyedstore"
	"github.com/frrp/MaidSafe-Vault/vaultpb"
)

type fakeRouter struct {
	mu   sync.Mutex
	sent []vaultpb.Envelope
}

func (f *fakeRouter) Send(_ context.Context, env vaultpb.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, env)
	return nil
}
func (f *fakeRouter) NetworkStatus() <-chan int                    { return nil }
func (f *fakeRouter) MatrixChanges() <-chan vaultpb.MatrixChange   { return nil }
func (f *fakeRouter) GetCacheData(vaultpb.DataName) ([]byte, bool) { return nil, false }
func (f *fakeRouter) PutCacheData(vaultpb.DataName, []byte)       {}
func (f *fakeRouter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
func (f *fakeRouter) last() vaultpb.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

// firstOfType returns the first sent Envelope of the given type, failing
// the test if none was sent -- a resolved Commit fires both a downstream
// reply and a Synchronise broadcast to the group (spec.md §4.3), so tests
// asserting on one outbound message must pick it out by type rather than
// assume a position.
func (f *fakeRouter) firstOfType(t *testing.T, typ vaultpb.MessageType) vaultpb.Envelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, env := range f.sent {
		if env.Type == typ {
			return env
		}
	}
	t.Fatalf("no sent envelope of type %v among %d", typ, len(f.sent))
	return vaultpb.Envelope{}
}

func TestPutRequestAuthorisesAndForwardsOnQuorum(t *testing.T) {
	var store, err = keyedstore.Open[vaultpb.MaidAccount](t.TempDir())
	require.NoError(t, err)
	t.Cleanup(store.Close)

	var self = vaultpb.NodeID{1}
	var r = &fakeRouter{}
	var disp = dispatch.New(r, self, vaultpb.PersonaMaidManager)
	var groups = func(vaultpb.GroupID) int { return 1 } // required = 1

	var svc = New(self, store, disp, groups)
	var client = vaultpb.NodeID{5}
	var dataKey = vaultpb.Key{Name: vaultpb.Identity{7}}
	var env = vaultpb.Envelope{MessageID: 1, Sender: vaultpb.Sender{Node: vaultpb.NodeID{2}, Group: vaultpb.GroupID(client), IsGroup: true}}

	svc.HandlePutRequest(context.Background(), env, client, 1024, dataKey)

	// A resolved commit both forwards to the Data Manager group and
	// broadcasts this node's own observation to its Maid Manager peers
	// (spec.md §4.3's sync round), so a quorum of one still sends two
	// outbound messages.
	require.Equal(t, 2, r.count())
	assert.Equal(t, vaultpb.MsgPutRequestFromMaidManager, r.firstOfType(t, vaultpb.MsgPutRequestFromMaidManager).Type)
	assert.Equal(t, vaultpb.MsgSynchronise, r.firstOfType(t, vaultpb.MsgSynchronise).Type)

	var account, getErr = store.Get(clientKey(client))
	require.NoError(t, getErr)
	assert.EqualValues(t, 1024, account.DataStored)
}

func TestRegisterPmidCreditsSpaceOncePerPmid(t *testing.T) {
	var store, err = keyedstore.Open[vaultpb.MaidAccount](t.TempDir())
	require.NoError(t, err)
	t.Cleanup(store.Close)

	var self = vaultpb.NodeID{1}
	var disp = dispatch.New(&fakeRouter{}, self, vaultpb.PersonaMaidManager)
	var groups = func(vaultpb.GroupID) int { return 1 }
	var svc = New(self, store, disp, groups)

	var client = vaultpb.NodeID{5}
	var env = vaultpb.Envelope{MessageID: 1, Sender: vaultpb.Sender{Node: vaultpb.NodeID{2}, Group: vaultpb.GroupID(client), IsGroup: true}}

	svc.HandleRegisterPmid(context.Background(), env, client, vaultpb.NodeID{8}, 1<<20)
	env.MessageID = 2
	svc.HandleRegisterPmid(context.Background(), env, client, vaultpb.NodeID{8}, 1<<20)

	var account, getErr = store.Get(clientKey(client))
	require.NoError(t, getErr)
	assert.EqualValues(t, 1<<20, account.SpaceAvailable, "re-registering the same pmid must not double-credit")
}
