package cachehandler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/frrp/MaidSafe-Vault/vaultpb"
)

type fakeResponder struct {
	sentTo      vaultpb.NodeID
	sentPayload interface{}
	calls       int
}

func (f *fakeResponder) SendCachedResponse(ctx context.Context, messageID uint64, to vaultpb.NodeID, payload interface{}) {
	f.calls++
	f.sentTo = to
	f.sentPayload = payload
}

func TestPutThenGetServesCachedCopy(t *testing.T) {
	var c = New(1024)
	var name = vaultpb.FromName(vaultpb.Key{Name: vaultpb.Identity{1}})
	c.PutToCache(name, []byte("hello"))

	var resp fakeResponder
	var hit = c.GetFromCache(context.Background(), name, 1, vaultpb.NodeID{9}, &resp)

	assert.True(t, hit)
	assert.Equal(t, 1, resp.calls)
	assert.Equal(t, []byte("hello"), resp.sentPayload)
}

func TestGetMissReturnsFalse(t *testing.T) {
	var c = New(1024)
	var resp fakeResponder
	var hit = c.GetFromCache(context.Background(), vaultpb.FromName(vaultpb.Key{}), 1, vaultpb.NodeID{}, &resp)
	assert.False(t, hit)
	assert.Equal(t, 0, resp.calls)
}

func TestBudgetEvictsLeastRecentlyUsed(t *testing.T) {
	var c = New(10)
	var a = vaultpb.FromName(vaultpb.Key{Name: vaultpb.Identity{1}})
	var b = vaultpb.FromName(vaultpb.Key{Name: vaultpb.Identity{2}})
	var d = vaultpb.FromName(vaultpb.Key{Name: vaultpb.Identity{3}})

	c.PutToCache(a, []byte("12345"))
	c.PutToCache(b, []byte("12345"))
	// Budget (10) now exactly full; inserting a third entry must evict a.
	c.PutToCache(d, []byte("12345"))

	assert.Equal(t, 2, c.Len())
	var resp fakeResponder
	var hit = c.GetFromCache(context.Background(), a, 1, vaultpb.NodeID{}, &resp)
	assert.False(t, hit, "oldest entry should have been evicted")
}

func TestEvictRemovesEntry(t *testing.T) {
	var c = New(1024)
	var name = vaultpb.FromName(vaultpb.Key{Name: vaultpb.Identity{1}})
	c.PutToCache(name, []byte("x"))
	c.Evict(name)
	assert.Equal(t, 0, c.Len())
}
