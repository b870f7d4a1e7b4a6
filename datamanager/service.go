// Package datamanager implements the Data Manager persona: spec.md's
// canonical PersonaService form, owning the replicated Value{subscribers,
// chunk size, holder sets} per content Key and driving the Put, Get,
// Delete, Liveness, Churn and account-transfer pipelines of spec.md §4.5
// on top of the shared persona.Service composition.
package datamanager

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/frrp/MaidSafe-Vault/accumulator"
	"github.com/frrp/MaidSafe-Vault/cachehandler"
	"github.com/frrp/MaidSafe-Vault/deadline"
	"github.com/frrp/MaidSafe-Vault/dispatch"
	"github.com/frrp/MaidSafe-Vault/keyedstore"
	"github.com/frrp/MaidSafe-Vault/persona"
	"github.com/frrp/MaidSafe-Vault/synclog"
	"github.com/frrp/MaidSafe-Vault/transfer"
	"github.com/frrp/MaidSafe-Vault/vaultpb"
)

// getTimeout bounds how long a fan-out Get waits for the first holder to
// respond before replying no_such_element, per spec.md §4.5 Get step 4.
const getTimeout = 5 * time.Second

// GroupSizeFunc reports the current close-group size for the group a key
// belongs to; the routing layer (out of scope, spec.md §1) is the
// authority on membership, so it is supplied as a closure.
type GroupSizeFunc func(vaultpb.GroupID) int

// Service is the Data Manager persona.
type Service struct {
	self   vaultpb.NodeID
	store  *keyedstore.Store[vaultpb.Value]
	disp   *dispatch.Dispatcher
	cache  *cachehandler.Cache
	groups GroupSizeFunc

	putSvc        *persona.Service[vaultpb.ActionPutRequest, vaultpb.Value]
	addPmidSvc    *persona.Service[vaultpb.ActionAddPmid, vaultpb.Value]
	removePmidSvc *persona.Service[vaultpb.ActionRemovePmid, vaultpb.Value]
	deleteSvc     *persona.Service[vaultpb.ActionDelete, vaultpb.Value]
	nodeUpSvc     *persona.Service[vaultpb.ActionNodeUp, vaultpb.Value]
	nodeDownSvc   *persona.Service[vaultpb.ActionNodeDown, vaultpb.Value]

	getAcc *accumulator.Accumulator
	timer  *deadline.Timer

	membershipMu sync.Mutex
	responsible  keyedstore.ResponsibleFunc

	accountTransfer *transfer.Accumulator[vaultpb.Key, vaultpb.Value, vaultpb.NodeID]
	kvTransfer      *transfer.Accumulator[vaultpb.Key, vaultpb.Value, vaultpb.NodeID]
}

func valueEqual(a, b vaultpb.Value) bool {
	if a.Subscribers != b.Subscribers || a.ChunkSize != b.ChunkSize {
		return false
	}
	if len(a.AllPmids) != len(b.AllPmids) || len(a.OnlinePmids) != len(b.OnlinePmids) {
		return false
	}
	for p := range a.AllPmids {
		if _, ok := b.AllPmids[p]; !ok {
			return false
		}
	}
	for p := range a.OnlinePmids {
		if _, ok := b.OnlinePmids[p]; !ok {
			return false
		}
	}
	return true
}

// New wires a Data Manager over an already-open Store, per-message family
// Accumulators/SyncLogs, and a shared DeadlineTimer for the Get pipeline.
func New(self vaultpb.NodeID, store *keyedstore.Store[vaultpb.Value], disp *dispatch.Dispatcher, cache *cachehandler.Cache, groups GroupSizeFunc, timerWorkers int) *Service {
	var keyQuorum = func(key vaultpb.Key) int {
		return vaultpb.RequiredRequests(groups(vaultpb.GroupID(key.Name)))
	}
	var transferThreshold = func(key vaultpb.Key) int {
		return vaultpb.TransferAcceptanceThreshold(groups(vaultpb.GroupID(key.Name)))
	}

	return &Service{
		self:   self,
		store:  store,
		disp:   disp,
		cache:  cache,
		groups: groups,

		putSvc:        persona.New[vaultpb.ActionPutRequest, vaultpb.Value](self, vaultpb.PersonaDataManager, store, 0, synclog.New[vaultpb.ActionPutRequest, vaultpb.Value](self, keyQuorum), nil, 0, disp),
		addPmidSvc:    persona.New[vaultpb.ActionAddPmid, vaultpb.Value](self, vaultpb.PersonaDataManager, store, 0, synclog.New[vaultpb.ActionAddPmid, vaultpb.Value](self, keyQuorum), nil, 0, disp),
		removePmidSvc: persona.New[vaultpb.ActionRemovePmid, vaultpb.Value](self, vaultpb.PersonaDataManager, store, 0, synclog.New[vaultpb.ActionRemovePmid, vaultpb.Value](self, keyQuorum), nil, 0, disp),
		deleteSvc:     persona.New[vaultpb.ActionDelete, vaultpb.Value](self, vaultpb.PersonaDataManager, store, 0, synclog.New[vaultpb.ActionDelete, vaultpb.Value](self, keyQuorum), nil, 0, disp),
		nodeUpSvc:     persona.New[vaultpb.ActionNodeUp, vaultpb.Value](self, vaultpb.PersonaDataManager, store, 0, synclog.New[vaultpb.ActionNodeUp, vaultpb.Value](self, keyQuorum), nil, 0, disp),
		nodeDownSvc:   persona.New[vaultpb.ActionNodeDown, vaultpb.Value](self, vaultpb.PersonaDataManager, store, 0, synclog.New[vaultpb.ActionNodeDown, vaultpb.Value](self, keyQuorum), nil, 0, disp),

		getAcc: accumulator.New(0),
		timer:  deadline.NewTimer(timerWorkers),

		responsible: func(vaultpb.Key) (vaultpb.NodeID, bool) { return vaultpb.NodeID{}, false },

		accountTransfer: transfer.New[vaultpb.Key, vaultpb.Value, vaultpb.NodeID](valueEqual, transferThreshold),
		kvTransfer:      transfer.New[vaultpb.Key, vaultpb.Value, vaultpb.NodeID](valueEqual, transferThreshold),
	}
}

func quorumOf(n int) accumulator.Predicate {
	return func(observedBy map[vaultpb.NodeID]struct{}, _ interface{}) bool {
		return len(observedBy) >= n
	}
}

func entryKeyFor(env vaultpb.Envelope) accumulator.EntryKey {
	return accumulator.EntryKey{MessageID: env.MessageID, Group: env.Sender.Group}
}

func validateGroupSender(expected vaultpb.GroupID) func(vaultpb.NodeID, vaultpb.GroupID) bool {
	return func(_ vaultpb.NodeID, group vaultpb.GroupID) bool { return group == expected }
}

// HandlePutRequestFromMaidManager implements spec.md §4.5 Put step 1.
func (s *Service) HandlePutRequestFromMaidManager(ctx context.Context, env vaultpb.Envelope) {
	var payload, ok = env.Payload.(vaultpb.PutRequestPayload)
	if !ok {
		log.Warn("datamanager: malformed PutRequestFromMaidManager payload")
		return
	}
	var required = vaultpb.RequiredRequests(s.groups(env.Sender.Group))
	var action = vaultpb.ActionPutRequest{ChunkSize: payload.ChunkSize}

	s.putSvc.HandleAccumulated(ctx, entryKeyFor(env), env.Sender.Node, payload.Key, action, s.putTraits(required, env.Sender.Group))
}

// putTraits is shared between the initiating HandlePutRequestFromMaidManager
// call and a later HandleSynchronise-driven resolution, so both commit
// paths behave identically. Resolving the put creates the account (or
// increments Subscribers on an existing one) and records ChunkSize; the
// holder set is populated later as PutResponseFromPmidManager messages
// accumulate (step 2). The commit runs only once this node's observation,
// broadcast to the key's other Data Manager group members in the sync
// round, has reached the group-wide SyncLog quorum (spec.md §4.3).
func (s *Service) putTraits(required int, group vaultpb.GroupID) persona.Traits[vaultpb.ActionPutRequest, vaultpb.Value] {
	return persona.Traits[vaultpb.ActionPutRequest, vaultpb.Value]{
		ValidateSender:   validateGroupSender(group),
		ArrivalPredicate: quorumOf(required),
		OnResolved: func(_ context.Context, key vaultpb.Key, _ vaultpb.ActionPutRequest, _ vaultpb.Value, err error) {
			if err != nil {
				log.WithError(err).WithField("key", key).Warn("datamanager: PutRequest commit failed")
			}
		},
	}
}

// HandlePutResponseFromPmidManager implements spec.md §4.5 Put step 2.
func (s *Service) HandlePutResponseFromPmidManager(ctx context.Context, env vaultpb.Envelope) {
	var payload, ok = env.Payload.(vaultpb.PutResponsePayload)
	if !ok {
		log.Warn("datamanager: malformed PutResponseFromPmidManager payload")
		return
	}
	var required = vaultpb.RequiredRequests(s.groups(env.Sender.Group))
	var action = vaultpb.ActionAddPmid{Pmid: payload.Pmid, ChunkSize: payload.ChunkSize}

	s.addPmidSvc.HandleAccumulated(ctx, entryKeyFor(env), env.Sender.Node, payload.Key, action, s.addPmidTraits(required, env.Sender.Group))
}

func (s *Service) addPmidTraits(required int, group vaultpb.GroupID) persona.Traits[vaultpb.ActionAddPmid, vaultpb.Value] {
	return persona.Traits[vaultpb.ActionAddPmid, vaultpb.Value]{
		ValidateSender:   validateGroupSender(group),
		ArrivalPredicate: quorumOf(required),
	}
}

// HandlePutFailureFromPmidManager implements spec.md §4.5 Put step 3: a
// holder rejected the chunk. ErrNoSuchAccount is muted (a race against an
// AddPmid not yet resolved; the later AddPmid simply re-adds the holder).
func (s *Service) HandlePutFailureFromPmidManager(ctx context.Context, env vaultpb.Envelope) {
	var payload, ok = env.Payload.(vaultpb.PutFailurePayload)
	if !ok {
		log.Warn("datamanager: malformed PutFailureFromPmidManager payload")
		return
	}
	var required = vaultpb.RequiredRequests(s.groups(env.Sender.Group))
	var action = vaultpb.ActionRemovePmid{Pmid: payload.Pmid}

	s.removePmidSvc.HandleAccumulated(ctx, entryKeyFor(env), env.Sender.Node, payload.Key, action, s.removePmidTraits(required, env.Sender.Group))
}

func (s *Service) removePmidTraits(required int, group vaultpb.GroupID) persona.Traits[vaultpb.ActionRemovePmid, vaultpb.Value] {
	return persona.Traits[vaultpb.ActionRemovePmid, vaultpb.Value]{
		ValidateSender:   validateGroupSender(group),
		ArrivalPredicate: quorumOf(required),
		OnResolved: func(_ context.Context, key vaultpb.Key, _ vaultpb.ActionRemovePmid, _ vaultpb.Value, err error) {
			if err != nil && vaultpb.ClassifyAccountError(err, true, false) != vaultpb.CodeOK {
				log.WithError(err).WithField("key", key).Warn("datamanager: PutFailure commit failed")
			}
		},
	}
}

// HandleGetRequest implements spec.md §4.5 Get steps 1-2: accumulate,
// probe the cache, then fan out to candidate holders with a first-wins
// DeadlineTimer.
func (s *Service) HandleGetRequest(ctx context.Context, env vaultpb.Envelope) {
	var payload, ok = env.Payload.(vaultpb.GetRequestPayload)
	if !ok {
		log.Warn("datamanager: malformed GetRequest payload")
		return
	}

	var required = vaultpb.RequiredRequests(s.groups(env.Sender.Group))
	if env.Sender.IsGroup {
		var result = s.getAcc.Add(entryKeyFor(env), env.Sender.Node, payload, quorumOf(required))
		if result != accumulator.Satisfied {
			return
		}
	}
	// Partial (relay) variants bypass accumulation per spec.md §4.5: a
	// partially-joined client cannot be authenticated by group.

	var name = vaultpb.FromName(payload.Key)
	if s.cache.GetFromCache(ctx, name, env.MessageID, payload.Requestor, s.disp) {
		return
	}

	var value, err = s.store.Get(payload.Key)
	if err != nil {
		s.disp.SendGetResponse(ctx, env.MessageID, payload.Requestor, vaultpb.GetResponsePayload{Key: payload.Key})
		return
	}

	var holders = value.SortedPmids()
	if len(holders) == 0 {
		s.disp.SendGetResponse(ctx, env.MessageID, payload.Requestor, vaultpb.GetResponsePayload{Key: payload.Key})
		return
	}

	var taskID = deadline.TaskID(env.MessageID)
	s.timer.AddTask(taskID, getTimeout, 1, func(responses []interface{}) {
		if len(responses) == 0 {
			s.disp.SendGetResponse(ctx, env.MessageID, payload.Requestor, vaultpb.GetResponsePayload{Key: payload.Key})
			return
		}
		var reply = responses[0].(vaultpb.GetResponsePayload)
		s.disp.SendGetResponse(ctx, env.MessageID, payload.Requestor, reply)
		s.cache.PutToCache(name, reply.Data)
		s.disp.SendPutToCache(ctx, env.MessageID, env.Sender.Group, vaultpb.GetResponsePayload{Key: payload.Key, Data: reply.Data})
	})

	for _, holder := range holders {
		s.disp.SendGetRequest(ctx, env.MessageID, env.Sender.Group, holder, vaultpb.GetRequestPayload{Key: payload.Key, Requestor: payload.Requestor})
	}
}

// HandleGetResponseFromPmidNode implements spec.md §4.5 Get step 3.
func (s *Service) HandleGetResponseFromPmidNode(_ context.Context, env vaultpb.Envelope) {
	var payload, ok = env.Payload.(vaultpb.GetResponsePayload)
	if !ok {
		log.Warn("datamanager: malformed GetResponseFromPmidNode payload")
		return
	}
	s.timer.AddResponse(deadline.TaskID(env.MessageID), payload)
}

// HandleDeleteRequestFromMaidManager implements spec.md §4.5 Delete.
func (s *Service) HandleDeleteRequestFromMaidManager(ctx context.Context, env vaultpb.Envelope) {
	var payload, ok = env.Payload.(vaultpb.DeleteRequestPayload)
	if !ok {
		log.Warn("datamanager: malformed DeleteRequestFromMaidManager payload")
		return
	}
	var required = vaultpb.RequiredRequests(s.groups(env.Sender.Group))
	var action = vaultpb.ActionDelete{RequestMessageID: payload.RequestMessageID}

	s.deleteSvc.HandleAccumulated(ctx, entryKeyFor(env), env.Sender.Node, payload.Key, action, s.deleteTraits(required, env.Sender.Group))
}

// deleteTraits is shared between the initiating
// HandleDeleteRequestFromMaidManager call and a later
// HandleSynchronise-driven resolution; action.RequestMessageID (not a
// closure over the originating payload) drives the downstream
// DeleteRequest fan-out, so the same behaviour is reachable from either
// path.
func (s *Service) deleteTraits(required int, group vaultpb.GroupID) persona.Traits[vaultpb.ActionDelete, vaultpb.Value] {
	return persona.Traits[vaultpb.ActionDelete, vaultpb.Value]{
		ValidateSender:   validateGroupSender(group),
		ArrivalPredicate: quorumOf(required),
		OnResolved: func(ctx context.Context, key vaultpb.Key, action vaultpb.ActionDelete, result vaultpb.Value, err error) {
			if err != nil {
				log.WithError(err).WithField("key", key).Warn("datamanager: Delete commit failed")
				return
			}
			if result.Subscribers == 0 {
				s.cache.Evict(vaultpb.FromName(key))
				for _, holder := range result.SortedPmids() {
					s.disp.SendDeleteRequest(ctx, action.RequestMessageID, holder, vaultpb.DeleteRequestPayload{Key: key, RequestMessageID: action.RequestMessageID})
				}
			}
		},
	}
}

// HandleSetPmidOnline implements spec.md §4.5 Liveness (node-up): commits
// ActionNodeUp against the data Key the event names, per
// original_source/data_manager/tests/service_test.cc's NodeUp section
// (ActionDataManagerNodeUp applied to the chunk's own key, not a
// pmid-identity account).
func (s *Service) HandleSetPmidOnline(ctx context.Context, env vaultpb.Envelope) {
	var payload, ok = env.Payload.(vaultpb.NodeStatusPayload)
	if !ok {
		log.Warn("datamanager: malformed SetPmidOnline payload")
		return
	}
	s.nodeUpSvc.HandleAccumulated(ctx, entryKeyFor(env), env.Sender.Node, payload.Key, vaultpb.ActionNodeUp{Pmid: payload.Pmid}, s.nodeUpTraits())
}

func (s *Service) nodeUpTraits() persona.Traits[vaultpb.ActionNodeUp, vaultpb.Value] {
	return persona.Traits[vaultpb.ActionNodeUp, vaultpb.Value]{
		ArrivalPredicate: func(map[vaultpb.NodeID]struct{}, interface{}) bool { return true },
		OnResolved: func(_ context.Context, key vaultpb.Key, _ vaultpb.ActionNodeUp, _ vaultpb.Value, err error) {
			if err != nil {
				log.WithError(err).WithField("key", key).Warn("datamanager: SetPmidOnline commit failed")
			}
		},
	}
}

// HandleSetPmidOffline implements spec.md §4.5 Liveness (node-down),
// committing ActionNodeDown against the data Key the event names.
// ErrNoSuchElement is muted: the pmid may already be absent from
// OnlinePmids. ErrNoSuchAccount is muted too: the key's account may not
// have resolved yet.
func (s *Service) HandleSetPmidOffline(ctx context.Context, env vaultpb.Envelope) {
	var payload, ok = env.Payload.(vaultpb.NodeStatusPayload)
	if !ok {
		log.Warn("datamanager: malformed SetPmidOffline payload")
		return
	}
	s.nodeDownSvc.HandleAccumulated(ctx, entryKeyFor(env), env.Sender.Node, payload.Key, vaultpb.ActionNodeDown{Pmid: payload.Pmid}, s.nodeDownTraits())
}

func (s *Service) nodeDownTraits() persona.Traits[vaultpb.ActionNodeDown, vaultpb.Value] {
	return persona.Traits[vaultpb.ActionNodeDown, vaultpb.Value]{
		ArrivalPredicate: func(map[vaultpb.NodeID]struct{}, interface{}) bool { return true },
		OnResolved: func(_ context.Context, key vaultpb.Key, _ vaultpb.ActionNodeDown, _ vaultpb.Value, err error) {
			if err != nil && vaultpb.ClassifyAccountError(err, true, true) != vaultpb.CodeOK {
				log.WithError(err).WithField("key", key).Warn("datamanager: SetPmidOffline commit failed")
			}
		},
	}
}

// HandleChurnEvent implements spec.md §4.5 Churn: record the new
// membership, compute transfer info, and dispatch AccountTransfer to each
// newly-responsible peer -- unless the transfer-echo guard is set.
func (s *Service) HandleChurnEvent(ctx context.Context, change vaultpb.MatrixChange, responsible keyedstore.ResponsibleFunc) {
	s.membershipMu.Lock()
	s.responsible = responsible
	s.membershipMu.Unlock()

	for _, n := range change.New {
		s.accountTransfer.ResetHandled(n)
	}

	if s.accountTransfer.CheckHandled(s.self) {
		s.accountTransfer.ResetHandled(s.self)
		log.Debug("datamanager: suppressing outgoing transfer, self recently received one")
		return
	}

	var info, err = s.store.GetTransferInfo(responsible)
	if err != nil {
		log.WithError(err).Warn("datamanager: GetTransferInfo failed")
		return
	}
	for node, entries := range info {
		var payload = vaultpb.AccountTransferPayload{}
		for _, e := range entries {
			payload.Entries = append(payload.Entries, vaultpb.TransferEntry{Key: e.Key, Value: e.Value})
		}
		s.disp.SendAccountTransfer(ctx, 0, node, payload)
	}
}

// HandlePutToCache implements the receiving side of
// PutToCacheFromDataManagerToDataManager: a peer Data Manager in the same
// group resolved a Get and is opportunistically sharing the response so
// this node's own edge cache is warmed without having to win the next
// fan-out race itself.
func (s *Service) HandlePutToCache(_ context.Context, env vaultpb.Envelope) {
	var payload, ok = env.Payload.(vaultpb.GetResponsePayload)
	if !ok {
		log.Warn("datamanager: malformed PutToCacheFromDataManagerToDataManager payload")
		return
	}
	s.cache.PutToCache(vaultpb.FromName(payload.Key), payload.Data)
}

// HandleAccountTransferFromDataManager implements spec.md §4.5 Account
// transfer protocol's receiving side.
func (s *Service) HandleAccountTransferFromDataManager(ctx context.Context, env vaultpb.Envelope) {
	var payload, ok = env.Payload.(vaultpb.AccountTransferPayload)
	if !ok {
		log.Warn("datamanager: malformed AccountTransferFromDataManager payload")
		return
	}
	for _, e := range payload.Entries {
		var result = s.accountTransfer.Add(e.Key, e.Value, env.Sender.Node)
		switch {
		case result.Settled != nil:
			if err := s.store.HandleTransfer([]keyedstore.Entry[vaultpb.Value]{{Key: e.Key, Value: *result.Settled}}); err != nil {
				log.WithError(err).WithField("key", e.Key).Warn("datamanager: HandleTransfer failed")
			}
			s.accountTransfer.MarkHandled(s.self)
		case result.Conflict:
			s.disp.SendAccountQuery(ctx, env.MessageID, vaultpb.GroupID(e.Key.Name), vaultpb.AccountQueryPayload{Key: e.Key})
		}
	}
}

// HandleAccountQuery answers a peer's conflict-resolution query with this
// node's current (Key, Value), if known.
func (s *Service) HandleAccountQuery(ctx context.Context, env vaultpb.Envelope) {
	var payload, ok = env.Payload.(vaultpb.AccountQueryPayload)
	if !ok {
		log.Warn("datamanager: malformed AccountQuery payload")
		return
	}
	var value, err = s.store.Get(payload.Key)
	if err != nil {
		s.disp.SendAccountQueryResponse(ctx, env.MessageID, env.Sender.Node, vaultpb.AccountQueryResponsePayload{Key: payload.Key, Known: false})
		return
	}
	s.disp.SendAccountQueryResponse(ctx, env.MessageID, env.Sender.Node, vaultpb.AccountQueryResponsePayload{Key: payload.Key, Value: value, Known: true})
}

// HandleAccountQueryResponse implements spec.md §4.5's KvTransfer
// conflict-resolution round.
func (s *Service) HandleAccountQueryResponse(_ context.Context, env vaultpb.Envelope) {
	var payload, ok = env.Payload.(vaultpb.AccountQueryResponsePayload)
	if !ok || !payload.Known {
		return
	}
	var result = s.kvTransfer.Add(payload.Key, payload.Value, env.Sender.Node)
	if result.Settled == nil {
		return
	}
	if err := s.store.HandleTransfer([]keyedstore.Entry[vaultpb.Value]{{Key: payload.Key, Value: *result.Settled}}); err != nil {
		log.WithError(err).WithField("key", payload.Key).Warn("datamanager: HandleTransfer (kv) failed")
		return
	}
	s.accountTransfer.Resolve(payload.Key)
	s.accountTransfer.MarkHandled(s.self)
}

// HandleSynchronise merges a close-group peer's endorsement of a resolved
// action into this node's own SyncLog entries, committing locally once the
// group-wide quorum is reached (spec.md §4.3's sync round). ValidateSender
// plays no role here -- it only gates the original Accumulator stage -- so
// the traits bundles are built with a zero GroupID/required.
func (s *Service) HandleSynchronise(ctx context.Context, env vaultpb.Envelope) {
	var payload, ok = env.Payload.(vaultpb.SynchronisePayload)
	if !ok {
		log.Warn("datamanager: malformed Synchronise payload")
		return
	}
	switch action := payload.Action.(type) {
	case vaultpb.ActionPutRequest:
		s.putSvc.HandleSynchronise(ctx, payload.Key, action, env.Sender.Node, s.putTraits(0, vaultpb.GroupID{}))
	case vaultpb.ActionAddPmid:
		s.addPmidSvc.HandleSynchronise(ctx, payload.Key, action, env.Sender.Node, s.addPmidTraits(0, vaultpb.GroupID{}))
	case vaultpb.ActionRemovePmid:
		s.removePmidSvc.HandleSynchronise(ctx, payload.Key, action, env.Sender.Node, s.removePmidTraits(0, vaultpb.GroupID{}))
	case vaultpb.ActionDelete:
		s.deleteSvc.HandleSynchronise(ctx, payload.Key, action, env.Sender.Node, s.deleteTraits(0, vaultpb.GroupID{}))
	case vaultpb.ActionNodeUp:
		s.nodeUpSvc.HandleSynchronise(ctx, payload.Key, action, env.Sender.Node, s.nodeUpTraits())
	case vaultpb.ActionNodeDown:
		s.nodeDownSvc.HandleSynchronise(ctx, payload.Key, action, env.Sender.Node, s.nodeDownTraits())
	default:
		log.WithField("action", payload.Action).Warn("datamanager: unrecognised Synchronise action")
	}
}
