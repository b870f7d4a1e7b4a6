// Package transfer implements the account-transfer and conflict-query
// accumulators used when a close group's membership changes: Accumulator
// collects per-key (Key, Value) votes from peer replicas until a majority
// agrees, settling the entry or setting it aside as a conflict for a
// follow-up AccountQuery round (spec.md §4.5 "Account transfer protocol").
// One Accumulator instance backs AccountTransfer; a second, identically
// configured instance backs KvTransfer for AccountQueryResponse votes --
// the two protocols share this same majority-vote shape, grounded on the
// teacher's own reuse of a single hinting/replay mechanism across both
// initial recovery-log replay and later catch-up in consumer/recoverylog.
package transfer

import "sync"

// EqualFunc reports whether two candidate values for the same key are the
// same vote. Value types carry maps (eg holder sets) and so are not
// Go-comparable; callers supply the family's own equality.
type EqualFunc[V any] func(a, b V) bool

type vote[V any, N comparable] struct {
	value      V
	observedBy map[N]struct{}
}

// Accumulator collects votes for (Key, Value) pairs keyed by Key, across
// NodeID-comparable senders, until one candidate Value reaches the
// configured threshold.
type Accumulator[K comparable, V any, N comparable] struct {
	mu        sync.Mutex
	equal     EqualFunc[V]
	threshold func(K) int
	byKey     map[K][]*vote[V, N]
	handled   map[N]struct{}
}

// New returns an Accumulator using equal to compare candidate values and
// threshold to decide the majority required for a given key.
func New[K comparable, V any, N comparable](equal EqualFunc[V], threshold func(K) int) *Accumulator[K, V, N] {
	return &Accumulator[K, V, N]{
		equal:     equal,
		threshold: threshold,
		byKey:     make(map[K][]*vote[V, N]),
		handled:   make(map[N]struct{}),
	}
}

// Result reports the outcome of Add.
type Result[V any] struct {
	// Settled is non-nil when this vote caused a candidate to cross the
	// majority threshold; the entry is removed from the Accumulator.
	Settled *V
	// Conflict is true when two or more incompatible candidate values are
	// outstanding for this key with no majority yet -- the caller should
	// set the key aside for an AccountQuery round.
	Conflict bool
}

// Add records sender's vote for value at key. Entries with conflicting
// Values for the same Key are reported via Result.Conflict so the caller
// can issue AccountQuery; Result.Settled is populated once >= threshold(key)
// distinct senders agree on the same candidate.
func (a *Accumulator[K, V, N]) Add(key K, value V, sender N) Result[V] {
	a.mu.Lock()
	defer a.mu.Unlock()

	var votes = a.byKey[key]
	var match *vote[V, N]
	for _, v := range votes {
		if a.equal(v.value, value) {
			match = v
			break
		}
	}
	if match == nil {
		match = &vote[V, N]{value: value, observedBy: map[N]struct{}{}}
		votes = append(votes, match)
		a.byKey[key] = votes
	}
	match.observedBy[sender] = struct{}{}

	if len(match.observedBy) >= a.threshold(key) {
		delete(a.byKey, key)
		var settled = match.value
		return Result[V]{Settled: &settled}
	}
	return Result[V]{Conflict: len(votes) > 1}
}

// ConflictedKeys returns every key with two or more outstanding candidate
// values and no settled majority, so the caller can issue AccountQuery
// for each.
func (a *Accumulator[K, V, N]) ConflictedKeys() []K {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []K
	for key, votes := range a.byKey {
		if len(votes) > 1 {
			out = append(out, key)
		}
	}
	return out
}

// Resolve forcibly settles key by clearing any outstanding votes for it,
// eg once an AccountQueryResponse round has independently determined the
// answer via the KvTransfer accumulator. It stores no value itself.
func (a *Accumulator[K, V, N]) Resolve(key K) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.byKey, key)
}

// CheckHandled reports whether node has recently been the subject of an
// incoming transfer settlement (MarkHandled). The Data Manager checks it
// for itself on each churn event: a set mark suppresses that event's
// outgoing transfers and is then cleared, so a node does not propagate
// stale state it just received -- spec.md §4.5 "Guard against transfer
// echo".
func (a *Accumulator[K, V, N]) CheckHandled(node N) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.handled[node]
	return ok
}

// MarkHandled records that node was the subject of a settled transfer.
func (a *Accumulator[K, V, N]) MarkHandled(node N) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handled[node] = struct{}{}
}

// ResetHandled clears the echo guard; called when a fresh churn event is
// observed.
func (a *Accumulator[K, V, N]) ResetHandled(node N) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.handled, node)
}
