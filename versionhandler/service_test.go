package versionhandler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frrp/MaidSafe-Vault/dispatch"
	"github.com/frrp/MaidSafe-Vault/keyedstore"
	"github.com/frrp/MaidSafe-Vault/vaultpb"
)

type noopRouter struct{}

func (noopRouter) Send(context.Context, vaultpb.Envelope) error  { return nil }
func (noopRouter) NetworkStatus() <-chan int                     { return nil }
func (noopRouter) MatrixChanges() <-chan vaultpb.MatrixChange    { return nil }
func (noopRouter) GetCacheData(vaultpb.DataName) ([]byte, bool)  { return nil, false }
func (noopRouter) PutCacheData(vaultpb.DataName, []byte)         {}

func TestPutVersionAdvancesPointerAndKeepsHistory(t *testing.T) {
	var store, err = keyedstore.Open[vaultpb.VersionPointer](t.TempDir())
	require.NoError(t, err)
	t.Cleanup(store.Close)

	var self = vaultpb.NodeID{1}
	var disp = dispatch.New(noopRouter{}, self, vaultpb.PersonaVersionHandler)
	var svc = New(self, store, disp, func(vaultpb.GroupID) int { return 1 })

	var key = vaultpb.Key{Tag: vaultpb.TagVersionedData, Name: vaultpb.Identity{3}}
	var v1, v2 = vaultpb.Identity{10}, vaultpb.Identity{20}

	var env = vaultpb.Envelope{MessageID: 1, Sender: vaultpb.Sender{Node: vaultpb.NodeID{2}, Group: vaultpb.GroupID(key.Name), IsGroup: true}}
	svc.HandlePutVersion(context.Background(), env, key, v1)

	env.MessageID = 2
	svc.HandlePutVersion(context.Background(), env, key, v2)

	var ptr, getErr = svc.GetVersion(key)
	require.NoError(t, getErr)
	assert.Equal(t, v2, ptr.Current)
	assert.Equal(t, []vaultpb.Identity{v1}, ptr.History)
}
