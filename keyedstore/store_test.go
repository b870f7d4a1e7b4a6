package keyedstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frrp/MaidSafe-Vault/vaultpb"
)

func openTestStore(t *testing.T) *Store[vaultpb.Value] {
	t.Helper()
	var store, err = Open[vaultpb.Value](t.TempDir())
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func TestCommitCreatesAccountOnFirstAddPmid(t *testing.T) {
	var store = openTestStore(t)
	var key = vaultpb.Key{Tag: vaultpb.TagImmutableChunk, Name: vaultpb.Identity{1}}

	var v, err = Commit[vaultpb.ActionAddPmid](store, key, vaultpb.ActionAddPmid{
		Pmid: vaultpb.NodeID{7}, ChunkSize: 256 * 1024,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, v.Subscribers)
	assert.Contains(t, v.AllPmids, vaultpb.NodeID{7})
}

func TestCommitNonCreateFamilyFailsOnMissingAccount(t *testing.T) {
	var store = openTestStore(t)
	var key = vaultpb.Key{Name: vaultpb.Identity{2}}

	var _, err = Commit[vaultpb.ActionRemovePmid](store, key, vaultpb.ActionRemovePmid{Pmid: vaultpb.NodeID{1}})
	assert.ErrorIs(t, err, vaultpb.ErrNoSuchAccount)
}

func TestGetMissingKeyReturnsNoSuchElement(t *testing.T) {
	var store = openTestStore(t)
	var _, err = store.Get(vaultpb.Key{Name: vaultpb.Identity{3}})
	assert.ErrorIs(t, err, vaultpb.ErrNoSuchElement)
}

func TestCommitIsSerialisablePerKey(t *testing.T) {
	var store = openTestStore(t)
	var key = vaultpb.Key{Name: vaultpb.Identity{4}}

	const n = 50
	var done = make(chan struct{}, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			Commit[vaultpb.ActionAddPmid](store, key, vaultpb.ActionAddPmid{
				Pmid: vaultpb.NodeID{byte(i)}, ChunkSize: 10,
			})
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < n; i++ {
		<-done
	}

	var v, err = store.Get(key)
	require.NoError(t, err)
	assert.Len(t, v.AllPmids, n)
}

func TestHandleTransferIsIdempotent(t *testing.T) {
	var store = openTestStore(t)
	var key = vaultpb.Key{Name: vaultpb.Identity{5}}

	var value = vaultpb.NewValue()
	value.Subscribers = 3
	value.AllPmids[vaultpb.NodeID{1}] = struct{}{}

	var entries = []Entry[vaultpb.Value]{{Key: key, Value: value}}
	require.NoError(t, store.HandleTransfer(entries))
	require.NoError(t, store.HandleTransfer(entries))

	var got, err = store.Get(key)
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.Subscribers)
	assert.Len(t, got.AllPmids, 1)
}

func TestGetTransferInfoPartitionsByResponsibleNode(t *testing.T) {
	var store = openTestStore(t)

	for i := 0; i < 4; i++ {
		var key = vaultpb.Key{Name: vaultpb.Identity{byte(i)}}
		Commit[vaultpb.ActionAddPmid](store, key, vaultpb.ActionAddPmid{Pmid: vaultpb.NodeID{1}, ChunkSize: 1})
	}

	var moved = vaultpb.NodeID{99}
	var responsible = func(key vaultpb.Key) (vaultpb.NodeID, bool) {
		return moved, key.Name[0] < 2 // hand off the first two keys
	}

	var transfers, err = store.GetTransferInfo(responsible)
	require.NoError(t, err)
	assert.Len(t, transfers[moved], 2)
}
