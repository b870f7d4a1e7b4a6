// Package synclog implements SyncLog: a per-key collection of unresolved
// actions awaiting quorum from a peer group, emitting resolved actions as
// they cross the quorum threshold. One Log[A] is instantiated per action
// family on a PersonaService (spec.md §4.3), using a Go generic type in
// place of the source's per-message-type C++ template specialisation --
// the "single generic handler parameterised by a trait bundle"
// re-architecture note of spec.md §9, applied to the log itself rather
// than only to the message handler.
package synclog

import (
	"sync"
	"time"

	"github.com/frrp/MaidSafe-Vault/vaultpb"
)

// Entry is an UnresolvedAction accumulating quorum endorsements from its
// group.
type Entry[A vaultpb.Action[V], V any] struct {
	Key         vaultpb.Key
	Action      A
	Originator  vaultpb.NodeID
	ObservedBy  map[vaultpb.NodeID]struct{}
	FirstSeen   time.Time
	syncAttempts int
}

// Log is a generic SyncLog for action family A operating on value type V.
// Actions on the same Key that are Equal share one Entry and accumulate
// together; two distinct (non-Equal) actions on the same Key resolve
// independently, per spec.md §4.3.
type Log[A vaultpb.Action[V], V any] struct {
	self    vaultpb.NodeID
	quorum  func(key vaultpb.Key) int
	mu      sync.Mutex
	// byKey holds, for each Key, the list of distinct (by Equal) entries
	// currently unresolved.
	byKey map[vaultpb.Key][]*Entry[A, V]
}

// New returns an empty Log. self is this node's ID (an entry only resolves
// once self has contributed an observation, guaranteeing liveness per
// spec.md §4.3). quorum reports the endorsement threshold required for a
// given Key (ordinarily a function of that key's close-group size).
func New[A vaultpb.Action[V], V any](self vaultpb.NodeID, quorum func(vaultpb.Key) int) *Log[A, V] {
	return &Log[A, V]{
		self:   self,
		quorum: quorum,
		byKey:  make(map[vaultpb.Key][]*Entry[A, V]),
	}
}

// AddUnresolvedAction merges observer into any existing entry equal to
// action on key, or creates a new one. If the entry's observer set has
// reached quorum and self has contributed, the entry is removed and the
// resolved action is returned.
func (l *Log[A, V]) AddUnresolvedAction(key vaultpb.Key, action A, observer vaultpb.NodeID) (resolved A, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var list = l.byKey[key]
	var match *Entry[A, V]
	for _, e := range list {
		if e.Action.Equal(action) {
			match = e
			break
		}
	}
	if match == nil {
		match = &Entry[A, V]{
			Key:        key,
			Action:     action,
			Originator: observer,
			ObservedBy: map[vaultpb.NodeID]struct{}{},
			FirstSeen:  time.Now(),
		}
		l.byKey[key] = append(list, match)
	}
	match.ObservedBy[observer] = struct{}{}

	var _, selfObserved = match.ObservedBy[l.self]
	if len(match.ObservedBy) >= l.quorum(key) && selfObserved {
		l.removeLocked(key, match)
		return match.Action, true
	}
	var zero A
	return zero, false
}

func (l *Log[A, V]) removeLocked(key vaultpb.Key, target *Entry[A, V]) {
	var list = l.byKey[key]
	for i, e := range list {
		if e == target {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(l.byKey, key)
	} else {
		l.byKey[key] = list
	}
}

// GetUnresolvedActions enumerates entries still awaiting quorum, for
// retransmission by the Dispatcher.
func (l *Log[A, V]) GetUnresolvedActions() []Entry[A, V] {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Entry[A, V]
	for _, list := range l.byKey {
		for _, e := range list {
			out = append(out, *e)
		}
	}
	return out
}

// IncrementSyncAttempts bumps the per-entry attempt counter for key/action,
// exposed so the Dispatcher can re-broadcast on an implementation-defined
// backoff. It is a no-op if the entry is no longer present (already
// resolved or pruned).
func (l *Log[A, V]) IncrementSyncAttempts(key vaultpb.Key, action A) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range l.byKey[key] {
		if e.Action.Equal(action) {
			e.syncAttempts++
			return e.syncAttempts
		}
	}
	return 0
}

// PruneOlderThan removes entries whose FirstSeen predates the cutoff,
// implementing the "pruned after an implementation-defined staleness
// window" lifecycle rule of spec.md §3. It returns the number pruned.
func (l *Log[A, V]) PruneOlderThan(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	var pruned int
	for key, list := range l.byKey {
		var kept = list[:0]
		for _, e := range list {
			if e.FirstSeen.Before(cutoff) {
				pruned++
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(l.byKey, key)
		} else {
			l.byKey[key] = kept
		}
	}
	return pruned
}

// Len reports the total number of distinct unresolved entries across all
// keys, for tests and metrics.
func (l *Log[A, V]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	var n int
	for _, list := range l.byKey {
		n += len(list)
	}
	return n
}
