// Package cachehandler implements the auxiliary Cache Handler persona: an
// at-most-one cached copy per content name, populated opportunistically
// from observed Data Manager responses and served directly on matching
// requests. Grounded on the bounded-LRU idiom shared with the
// accumulator package, and on the optional in-memory Cache field the
// teacher's own consumer.ConsumerContext carries per shard
// (consumer/context.go's `Cache interface{}`), generalised here into a
// full budgeted cache rather than a free-form per-consumer scratch slot.
package cachehandler

import (
	"container/list"
	"context"
	"sync"

	"github.com/frrp/MaidSafe-Vault/vaultpb"
)

// Responder is the subset of dispatch.Dispatcher the cache needs: sending
// a cached reply directly to a requestor.
type Responder interface {
	SendCachedResponse(ctx context.Context, messageID uint64, to vaultpb.NodeID, payload interface{})
}

type cacheEntry struct {
	name vaultpb.DataName
	data []byte
	elem *list.Element
}

// Cache is a content-addressed, budget-bounded cache of at most one copy
// per data name.
type Cache struct {
	mu       sync.Mutex
	budget   int
	used     int
	entries  map[vaultpb.DataName]*cacheEntry
	order    *list.List
}

// New returns a Cache bounded to budgetBytes total resident bytes,
// evicting least-recently-used entries to make room.
func New(budgetBytes int) *Cache {
	return &Cache{
		budget:  budgetBytes,
		entries: make(map[vaultpb.DataName]*cacheEntry),
		order:   list.New(),
	}
}

// PutToCache stores data under name, evicting older entries under the
// configured budget (LRU eviction policy, per spec.md §4.6).
func (c *Cache) PutToCache(name vaultpb.DataName, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[name]; ok {
		c.used -= len(e.data)
		c.order.Remove(e.elem)
		delete(c.entries, name)
	}

	var e = &cacheEntry{name: name, data: data}
	e.elem = c.order.PushFront(e)
	c.entries[name] = e
	c.used += len(data)

	for c.used > c.budget && c.order.Len() > 0 {
		var back = c.order.Back()
		var victim = back.Value.(*cacheEntry)
		c.order.Remove(back)
		delete(c.entries, victim.name)
		c.used -= len(victim.data)
	}
}

// GetFromCache looks up name. If present, it dispatches GetCachedResponse
// to requestor via resp and returns true; else it returns false and the
// caller should fall through to the holder fan-out get pipeline.
func (c *Cache) GetFromCache(ctx context.Context, name vaultpb.DataName, messageID uint64, requestor vaultpb.NodeID, resp Responder) bool {
	c.mu.Lock()
	var e, ok = c.entries[name]
	if ok {
		c.order.MoveToFront(e.elem)
	}
	c.mu.Unlock()

	if !ok {
		return false
	}
	resp.SendCachedResponse(ctx, messageID, requestor, e.data)
	return true
}

// Evict drops name from the cache outright. Used when a write is known to
// have invalidated a previously served copy; stale entries are otherwise
// tolerated and evicted lazily (spec.md §5).
func (c *Cache) Evict(name vaultpb.DataName) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[name]; ok {
		c.order.Remove(e.elem)
		delete(c.entries, name)
		c.used -= len(e.data)
	}
}

// Len reports the number of resident entries, for tests and metrics.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
