// Package integration exercises a Data Manager against a real, on-disk
// KeyedDb across package boundaries -- the kind of test the teacher
// reserves for test/integration rather than an in-package _test.go, since
// it drives the full churn/account-transfer pipeline (spec.md §8, seed
// scenario 6) rather than a single component in isolation.
package integration

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frrp/MaidSafe-Vault/cachehandler"
	"github.com/frrp/MaidSafe-Vault/datamanager"
	"github.com/frrp/MaidSafe-Vault/dispatch"
	"github.com/frrp/MaidSafe-Vault/keyedstore"
	"github.com/frrp/MaidSafe-Vault/vaultpb"
)

// recordingRouter is an in-memory router.Router test double recording
// every sent Envelope.
type recordingRouter struct {
	mu   sync.Mutex
	sent []vaultpb.Envelope
}

func (r *recordingRouter) Send(_ context.Context, env vaultpb.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, env)
	return nil
}
func (r *recordingRouter) NetworkStatus() <-chan int                    { return nil }
func (r *recordingRouter) MatrixChanges() <-chan vaultpb.MatrixChange   { return nil }
func (r *recordingRouter) GetCacheData(vaultpb.DataName) ([]byte, bool) { return nil, false }
func (r *recordingRouter) PutCacheData(vaultpb.DataName, []byte)        {}

func (r *recordingRouter) accountTransfers() []vaultpb.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []vaultpb.Envelope
	for _, env := range r.sent {
		if env.Type == vaultpb.MsgAccountTransferFromDataManager {
			out = append(out, env)
		}
	}
	return out
}

// TestChurnTransfersExactlyReassignedAccounts implements spec.md §8 seed
// scenario 6: populate 100 keys, simulate a MatrixChange under which this
// node loses responsibility for 40 of them to node N*, and verify exactly
// those 40 account entries are dispatched to N* while the other 60 remain
// locally gettable.
func TestChurnTransfersExactlyReassignedAccounts(t *testing.T) {
	var store, err = keyedstore.Open[vaultpb.Value](t.TempDir())
	require.NoError(t, err)
	t.Cleanup(store.Close)

	var self = vaultpb.NodeID{1}
	var router = &recordingRouter{}
	var disp = dispatch.New(router, self, vaultpb.PersonaDataManager)
	var cache = cachehandler.New(1 << 20)
	var groups = func(vaultpb.GroupID) int { return 1 } // required = 1, resolve on first observation

	var svc = datamanager.New(self, store, disp, cache, groups, 2)

	// Populate 100 keys via the normal AddPmid resolution path so each
	// exists as a committed Value with a real holder.
	var keys = make([]vaultpb.Key, 100)
	for i := range keys {
		var id vaultpb.Identity
		id[0] = byte(i)
		id[1] = byte(i >> 8)
		keys[i] = vaultpb.Key{Tag: vaultpb.TagImmutableChunk, Name: id}

		var env = vaultpb.Envelope{
			MessageID: uint64(i),
			Sender:    vaultpb.Sender{Node: vaultpb.NodeID{2}, Group: vaultpb.GroupID(keys[i].Name), IsGroup: true},
			Payload:   vaultpb.PutResponsePayload{Key: keys[i], Pmid: vaultpb.NodeID{9}, ChunkSize: 1024},
		}
		svc.HandlePutResponseFromPmidManager(context.Background(), env)
	}

	// 40 of the 100 keys move to nStar; the remaining 60 stay put.
	var nStar = vaultpb.NodeID{99}
	var moved = make(map[vaultpb.Key]bool, 40)
	for i := 0; i < 40; i++ {
		moved[keys[i]] = true
	}
	var responsible = func(k vaultpb.Key) (vaultpb.NodeID, bool) {
		if moved[k] {
			return nStar, true
		}
		return vaultpb.NodeID{}, false
	}

	var change = vaultpb.MatrixChange{New: []vaultpb.NodeID{nStar}, Group: vaultpb.GroupID(self)}
	svc.HandleChurnEvent(context.Background(), change, responsible)

	var transfers = router.accountTransfers()
	require.Len(t, transfers, 1, "exactly one batched AccountTransfer to nStar")
	assert.Equal(t, nStar, transfers[0].Receiver.Node)

	var payload, ok = transfers[0].Payload.(vaultpb.AccountTransferPayload)
	require.True(t, ok)
	assert.Len(t, payload.Entries, 40, "exactly the 40 reassigned accounts are handed off")

	var transferredKeys = make(map[vaultpb.Key]bool, 40)
	for _, e := range payload.Entries {
		transferredKeys[e.Key] = true
	}
	for k := range moved {
		assert.True(t, transferredKeys[k], "every moved key appears in the transfer batch")
	}

	// Local Get for the 60 untouched keys still succeeds: churn handling
	// does not itself delete the handed-off entries (that is the
	// receiving node's concern, not this node's).
	for i := 40; i < 100; i++ {
		var _, getErr = store.Get(keys[i])
		assert.NoError(t, getErr)
	}
}

// TestChurnSuppressesOutgoingTransferAfterReceivingOne implements the
// "Guard against transfer echo" rule of spec.md §4.5: a node that has
// itself just been the subject of a settled incoming transfer emits no
// outgoing transfer on the next churn event.
func TestChurnSuppressesOutgoingTransferAfterReceivingOne(t *testing.T) {
	var store, err = keyedstore.Open[vaultpb.Value](t.TempDir())
	require.NoError(t, err)
	t.Cleanup(store.Close)

	var self = vaultpb.NodeID{1}
	var router = &recordingRouter{}
	var disp = dispatch.New(router, self, vaultpb.PersonaDataManager)
	var cache = cachehandler.New(1 << 20)
	var groups = func(vaultpb.GroupID) int { return 1 }

	var svc = datamanager.New(self, store, disp, cache, groups, 2)

	var key = vaultpb.Key{Tag: vaultpb.TagImmutableChunk, Name: vaultpb.Identity{5}}
	var value = vaultpb.NewValue()
	value.Subscribers = 1
	value.AllPmids[vaultpb.NodeID{9}] = struct{}{}

	var incoming = vaultpb.Envelope{
		MessageID: 1,
		Sender:    vaultpb.Sender{Node: vaultpb.NodeID{2}},
		Payload: vaultpb.AccountTransferPayload{Entries: []vaultpb.TransferEntry{
			{Key: key, Value: value},
		}},
	}
	// threshold(groupSize=1) == 1, so a single peer's vote settles it.
	svc.HandleAccountTransferFromDataManager(context.Background(), incoming)

	var change = vaultpb.MatrixChange{New: []vaultpb.NodeID{vaultpb.NodeID{3}}, Group: vaultpb.GroupID(self)}
	svc.HandleChurnEvent(context.Background(), change, func(vaultpb.Key) (vaultpb.NodeID, bool) {
		return vaultpb.NodeID{3}, true // everything would move, if not suppressed
	})

	assert.Empty(t, router.accountTransfers(), "self recently received a transfer; outgoing transfer must be suppressed")
}
