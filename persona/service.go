// Package persona implements the composition spec.md §9 calls for: "a
// single generic handler parameterised by a trait bundle" replacing the
// source's per-message-type visitor class hierarchy. Service[A, V] wires
// together one KeyedDb, one Accumulator, one SyncLog, an optional
// DeadlineTimer and the Dispatcher into the common request pattern
// described in spec.md §4.5: validate the sender group, accumulate to
// quorum, record the observation in the SyncLog and broadcast it to the
// group, commit once the group-wide quorum is reached, and hand the
// outcome to the trait bundle's OnResolved.
//
// Every PersonaService (Data Manager, Maid Manager, Pmid Manager,
// Version Handler) is one instantiation of Service for its own Action
// and Value types; only the trait bundle passed to HandleAccumulated
// differs between them, mirroring the teacher's consumer.Resolver being
// reused unmodified across every consumer application
// (consumer/resolver.go).
package persona

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/frrp/MaidSafe-Vault/accumulator"
	"github.com/frrp/MaidSafe-Vault/deadline"
	"github.com/frrp/MaidSafe-Vault/keyedstore"
	"github.com/frrp/MaidSafe-Vault/synclog"
	"github.com/frrp/MaidSafe-Vault/vaultpb"
)

// QuorumFunc reports the required number of agreeing observers for a
// group of the given size. Every quorum in this repository is the strict
// majority floor(group_size/2)+1 (vaultpb.RequiredRequests), resolving
// spec.md's Open Question about inconsistent thresholds (see DESIGN.md,
// "Open Question resolutions").
type QuorumFunc func(group vaultpb.GroupID) int

// SyncBroadcaster is the subset of *dispatch.Dispatcher a PersonaService
// needs to announce its own observation of a resolved action to its
// close-group peers, per spec.md §4.3's sync round. Declared here rather
// than depending on package dispatch directly, the same narrow-interface
// idiom cachehandler.Responder and router.Router already use elsewhere in
// this codebase.
type SyncBroadcaster interface {
	SendSynchronise(ctx context.Context, messageID uint64, group vaultpb.GroupID, payload vaultpb.SynchronisePayload)
}

// Traits is the per-message-family behaviour a PersonaService supplies
// to the shared HandleAccumulated pipeline: the fields spec.md §9 names
// as "{arrival_predicate, sender_validator, post_quorum_handler}".
type Traits[A vaultpb.Action[V], V keyedstore.Merger[V]] struct {
	// ValidateSender reports whether sender is an acceptable origin for
	// this request against its claimed group (spec.md §4.5: "validate the
	// sender group matches the logical subject"). A nil ValidateSender
	// accepts every sender.
	ValidateSender func(sender vaultpb.NodeID, group vaultpb.GroupID) bool

	// ArrivalPredicate is the family-specific accumulator.Predicate:
	// typically quorum-of-group, occasionally (relay variants) "always
	// satisfied on first sight".
	ArrivalPredicate accumulator.Predicate

	// OnResolved runs once the request has reached quorum (or, for relay
	// variants, immediately): it commits action against key and reports
	// the post-commit Value, or the error Commit returned.
	OnResolved func(ctx context.Context, key vaultpb.Key, action A, result V, commitErr error)
}

// Service is the shared composition underlying every PersonaService.
type Service[A vaultpb.Action[V], V keyedstore.Merger[V]] struct {
	Self    vaultpb.NodeID
	Persona vaultpb.Persona

	Store *keyedstore.Store[V]
	Acc   *accumulator.Accumulator
	Log   *synclog.Log[A, V]
	// Timer is nil unless New is given timerWorkers > 0. Every persona in
	// this repository passes 0; the Data Manager's Get pipeline owns its
	// own deadline.Timer outside this Service.
	Timer *deadline.Timer
	// Broadcaster ships this node's own resolved observations to its
	// close-group peers (spec.md §4.3). Nil skips the broadcast only: the
	// SyncLog quorum still gates the commit, so an entry then resolves
	// when the quorum is one or when peer endorsements arrive through
	// HandleSynchronise.
	Broadcaster SyncBroadcaster

	Quorum QuorumFunc
}

// New builds a Service over an already-open Store and SyncLog. timerWorkers
// is the DeadlineTimer's worker-pool size; pass 0 for personas that never
// start a fan-out Get (no Timer is constructed). broadcaster ships this
// node's resolved observations to its close-group peers; pass nil only in
// tests that exercise a single node's SyncLog in isolation.
func New[A vaultpb.Action[V], V keyedstore.Merger[V]](
	self vaultpb.NodeID,
	p vaultpb.Persona,
	store *keyedstore.Store[V],
	accCapacity int,
	syncLog *synclog.Log[A, V],
	quorum QuorumFunc,
	timerWorkers int,
	broadcaster SyncBroadcaster,
) *Service[A, V] {
	var s = &Service[A, V]{
		Self:        self,
		Persona:     p,
		Store:       store,
		Acc:         accumulator.New(accCapacity),
		Log:         syncLog,
		Quorum:      quorum,
		Broadcaster: broadcaster,
	}
	if timerWorkers > 0 {
		s.Timer = deadline.NewTimer(timerWorkers)
	}
	return s
}

// HandleAccumulated runs the common request pattern: validate the sender,
// feed the Accumulator, and on quorum satisfaction enter the sync round
// that ultimately drives the Commit (spec.md §2's mutation data flow:
// "Accumulator → SyncLog.AddUnresolvedAction → (on resolution)
// KeyedDb.Commit").
func (s *Service[A, V]) HandleAccumulated(
	ctx context.Context,
	entryKey accumulator.EntryKey,
	sender vaultpb.NodeID,
	key vaultpb.Key,
	action A,
	traits Traits[A, V],
) {
	if traits.ValidateSender != nil && !traits.ValidateSender(sender, entryKey.Group) {
		log.WithFields(log.Fields{
			"sender": sender.String(),
			"group":  entryKey.Group,
		}).Warn("persona: rejected request from unauthorised sender")
		return
	}

	var predicate = traits.ArrivalPredicate
	if predicate == nil {
		predicate = func(map[vaultpb.NodeID]struct{}, interface{}) bool { return true }
	}

	var result = s.Acc.Add(entryKey, sender, action, predicate)
	if result != accumulator.Satisfied {
		return
	}

	s.synchronise(ctx, entryKey, key, action, traits)
}

// synchronise feeds this node's own observation of action into its SyncLog
// and broadcasts it to the group, so every peer reaching the same local
// resolution converges on one group-wide quorum before anyone commits. A
// nil Log (never constructed in production) commits unconditionally.
func (s *Service[A, V]) synchronise(ctx context.Context, entryKey accumulator.EntryKey, key vaultpb.Key, action A, traits Traits[A, V]) {
	if s.Log == nil {
		s.commit(ctx, key, action, traits)
		return
	}
	if resolved, ok := s.Log.AddUnresolvedAction(key, action, s.Self); ok {
		s.commit(ctx, key, resolved, traits)
	}
	if s.Broadcaster != nil {
		s.Broadcaster.SendSynchronise(ctx, entryKey.MessageID, entryKey.Group, vaultpb.SynchronisePayload{Key: key, Action: action})
	}
}

// HandleSynchronise merges a peer's endorsement of action on key into this
// node's own SyncLog entry, committing once the group-wide quorum (this
// node plus the peers that have reported in) is reached. traits must be
// rebuilt purely from (key, action) -- the same bundle HandleAccumulated
// would have used -- since the peer endorsement may resolve the entry long
// after the original triggering request's own call stack has returned.
func (s *Service[A, V]) HandleSynchronise(ctx context.Context, key vaultpb.Key, action A, observer vaultpb.NodeID, traits Traits[A, V]) {
	if s.Log == nil {
		return
	}
	if resolved, ok := s.Log.AddUnresolvedAction(key, action, observer); ok {
		s.commit(ctx, key, resolved, traits)
	}
}

// commit applies action and reports the outcome via traits.OnResolved.
func (s *Service[A, V]) commit(ctx context.Context, key vaultpb.Key, action A, traits Traits[A, V]) {
	var result, err = keyedstore.Commit(s.Store, key, action)
	if traits.OnResolved != nil {
		traits.OnResolved(ctx, key, action, result, err)
	}
}

// Retry re-attempts every unresolved action the SyncLog currently holds
// (e.g. on an implementation-defined backoff tick), re-broadcasting each
// to the group rather than committing locally -- only this node's own
// SyncLog entry changing (via a fresh AddUnresolvedAction/HandleSynchronise
// call) ever drives a Commit.
func (s *Service[A, V]) Retry(ctx context.Context, group vaultpb.GroupID) {
	if s.Log == nil || s.Broadcaster == nil {
		return
	}
	for _, entry := range s.Log.GetUnresolvedActions() {
		s.Log.IncrementSyncAttempts(entry.Key, entry.Action)
		s.Broadcaster.SendSynchronise(ctx, 0, group, vaultpb.SynchronisePayload{Key: entry.Key, Action: entry.Action})
	}
}
