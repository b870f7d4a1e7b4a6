// Package accumulator deduplicates and counts incoming requests by
// (message-id, sender-group-id) until an arrival predicate is satisfied,
// exposing duplicate detection so replies are idempotent. It is the Go
// equivalent of the per-service bookkeeping the teacher's
// consumer.Resolver keeps over KeySpace observers, adapted to a bounded
// LRU of in-flight requests rather than a watched keyspace.
package accumulator

import (
	"container/list"
	"reflect"
	"sync"

	"github.com/frrp/MaidSafe-Vault/vaultpb"
)

// EntryKey identifies one accumulating request.
type EntryKey struct {
	MessageID uint64
	Group     vaultpb.GroupID
}

// AddResult reports the outcome of Add.
type AddResult int

const (
	// Satisfied means this call caused the arrival predicate to first
	// return true; the caller should proceed to act on the request.
	Satisfied AddResult = iota
	// Waiting means the predicate has not yet been satisfied.
	Waiting
	// Duplicate means this (message-id, group) has already satisfied, or
	// matches an entry whose cached reply should be replayed instead.
	Duplicate
)

// Predicate reports whether the observed senders (len(observedBy)) and
// accumulated payload are sufficient to resolve the request.
type Predicate func(observedBy map[vaultpb.NodeID]struct{}, payload interface{}) bool

type entry struct {
	key         EntryKey
	payload     interface{}
	observedBy  map[vaultpb.NodeID]struct{}
	satisfied   bool
	cachedReply interface{}
	elem        *list.Element
}

// Accumulator is safe for concurrent use. One Accumulator instance is
// owned exclusively by a single PersonaService.
type Accumulator struct {
	mu       sync.Mutex
	capacity int
	entries  map[EntryKey]*entry
	order    *list.List // front = most recently touched
}

// New returns an Accumulator bounded to capacity entries; the
// least-recently-touched entry is evicted once the bound is exceeded,
// matching the "bounded LRU-like map" contract of spec.md §4.2.
func New(capacity int) *Accumulator {
	if capacity <= 0 {
		capacity = 4096
	}
	return &Accumulator{
		capacity: capacity,
		entries:  make(map[EntryKey]*entry),
		order:    list.New(),
	}
}

// Add records an observation of message from sender, applying predicate to
// decide whether the request is now satisfied. Payload contents of
// duplicates are expected to match the first; a copy whose payload
// diverges from the first returns Duplicate and its sender is not counted
// (a single honest majority is assumed, per spec.md §4.2).
func (a *Accumulator) Add(key EntryKey, sender vaultpb.NodeID, payload interface{}, predicate Predicate) AddResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	var e, ok = a.entries[key]
	if !ok {
		e = &entry{key: key, payload: payload, observedBy: map[vaultpb.NodeID]struct{}{}}
		e.elem = a.order.PushFront(e)
		a.entries[key] = e
		a.evictLocked()
	} else {
		a.order.MoveToFront(e.elem)
	}

	if e.satisfied {
		return Duplicate
	}
	if ok && !reflect.DeepEqual(e.payload, payload) {
		return Duplicate
	}

	e.observedBy[sender] = struct{}{}

	if predicate(e.observedBy, e.payload) {
		e.satisfied = true
		return Satisfied
	}
	return Waiting
}

// SetCachedReply attaches a reply to an already-satisfied entry so future
// duplicates can be answered without recomputation. It is a no-op if the
// entry has since been evicted.
func (a *Accumulator) SetCachedReply(key EntryKey, reply interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if e, ok := a.entries[key]; ok {
		e.cachedReply = reply
	}
}

// CachedReply returns the reply set by SetCachedReply, if any.
func (a *Accumulator) CachedReply(key EntryKey) (reply interface{}, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if e, found := a.entries[key]; found && e.cachedReply != nil {
		return e.cachedReply, true
	}
	return nil, false
}

// Len reports the number of in-flight entries, for tests and metrics.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// evictLocked drops the least-recently-touched entry once capacity is
// exceeded. Callers must hold a.mu.
func (a *Accumulator) evictLocked() {
	for len(a.entries) > a.capacity {
		var back = a.order.Back()
		if back == nil {
			return
		}
		var e = back.Value.(*entry)
		a.order.Remove(back)
		delete(a.entries, e.key)
	}
}
