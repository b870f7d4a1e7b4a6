package pmidmanager

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

func newTestService(t *testing.T) (*Service, *fakeRouter) {
	t.Helper()
	var store, err = keyedstore.Open[vaultpb.PmidTotals](t.TempDir())
	require.NoError(t, err)
	t.Cleanup(store.Close)

	var self = vaultpb.NodeID{1}
	var r = &fakeRouter{}
	var disp = dispatch.New(r, self, vaultpb.PersonaPmidManager)
	return New(self, store, disp, func(vaultpb.GroupID) int { return 1 }), r
}

func TestChunkStoredAccountsAndForwards(t *testing.T) {
	var svc, r = newTestService(t)
	var pmid = vaultpb.NodeID{4}
	var dataKey = vaultpb.Key{Name: vaultpb.Identity{9}}
	var env = vaultpb.Envelope{MessageID: 1, Sender: vaultpb.Sender{Node: vaultpb.NodeID{2}, Group: vaultpb.GroupID(pmid), IsGroup: true}}

	svc.HandleChunkStored(context.Background(), env, pmid, dataKey, 4096)

	// A resolved commit both forwards to the Data Manager group and
	// broadcasts this node's own observation to its Pmid Manager peers
	// (spec.md §4.3's sync round).
	require.Equal(t, 2, r.count())
	assert.Equal(t, vaultpb.MsgPutResponseFromPmidManager, r.firstOfType(t, vaultpb.MsgPutResponseFromPmidManager).Type)
	assert.Equal(t, vaultpb.MsgSynchronise, r.firstOfType(t, vaultpb.MsgSynchronise).Type)

	var totals, getErr = svc.store.Get(holderKey(pmid))
	require.NoError(t, getErr)
	assert.EqualValues(t, 1, totals.StoredCount)
	assert.EqualValues(t, 4096, totals.StoredTotalSize)
}

func TestChunkLostWithMissingAccountWithholdsForward(t *testing.T) {
	var svc, r = newTestService(t)
	var pmid = vaultpb.NodeID{5}
	var dataKey = vaultpb.Key{Name: vaultpb.Identity{10}}
	var env = vaultpb.Envelope{MessageID: 2, Sender: vaultpb.Sender{Node: vaultpb.NodeID{2}, Group: vaultpb.GroupID(pmid), IsGroup: true}}

	// No prior put; ErrNoSuchAccount classifies as CodeNotFound (not muted
	// for this family, so it is logged) but must not propagate a panic or
	// block. The
	// Accumulator quorum still reached its own local resolution, so the
	// Synchronise broadcast to the group still fires even though the local
	// Commit itself failed -- only the downstream PutFailure forward is
	// withheld.
	svc.HandleChunkLost(context.Background(), env, pmid, dataKey, 100)
	require.Equal(t, 1, r.count(), "no downstream forward without a successful commit, but the Synchronise broadcast still fires")
	assert.Equal(t, vaultpb.MsgSynchronise, r.last().Type)
}
