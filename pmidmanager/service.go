// Package pmidmanager implements the Pmid Manager persona: per-holder
// storage accounting over vaultpb.PmidTotals, forwarding evidence of a
// chunk's acceptance or loss on to the owning Data Manager group
// (SPEC_FULL.md §4.5, expansion).
package pmidmanager

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/frrp/MaidSafe-Vault/accumulator"
	"github.com/frrp/MaidSafe-Vault/dispatch"
	"github.com/frrp/MaidSafe-Vault/keyedstore"
	"github.com/frrp/MaidSafe-Vault/persona"
	"github.com/frrp/MaidSafe-Vault/synclog"
	"github.com/frrp/MaidSafe-Vault/vaultpb"
)

// GroupSizeFunc reports the current close-group size for a holder's group.
type GroupSizeFunc func(vaultpb.GroupID) int

// Service is the Pmid Manager persona. One instance accounts for every
// holder, each under its own PmidTotals record (see holderKey).
type Service struct {
	self   vaultpb.NodeID
	store  *keyedstore.Store[vaultpb.PmidTotals]
	disp   *dispatch.Dispatcher
	groups GroupSizeFunc

	putSvc    *persona.Service[vaultpb.ActionPmidPut, vaultpb.PmidTotals]
	deleteSvc *persona.Service[vaultpb.ActionPmidDelete, vaultpb.PmidTotals]
}

// New wires a Pmid Manager over an already-open Store.
func New(self vaultpb.NodeID, store *keyedstore.Store[vaultpb.PmidTotals], disp *dispatch.Dispatcher, groups GroupSizeFunc) *Service {
	var keyQuorum = func(key vaultpb.Key) int {
		return vaultpb.RequiredRequests(groups(vaultpb.GroupID(key.Name)))
	}
	return &Service{
		self:   self,
		store:  store,
		disp:   disp,
		groups: groups,

		putSvc:    persona.New[vaultpb.ActionPmidPut, vaultpb.PmidTotals](self, vaultpb.PersonaPmidManager, store, 0, synclog.New[vaultpb.ActionPmidPut, vaultpb.PmidTotals](self, keyQuorum), nil, 0, disp),
		deleteSvc: persona.New[vaultpb.ActionPmidDelete, vaultpb.PmidTotals](self, vaultpb.PersonaPmidManager, store, 0, synclog.New[vaultpb.ActionPmidDelete, vaultpb.PmidTotals](self, keyQuorum), nil, 0, disp),
	}
}

func quorumOf(n int) func(map[vaultpb.NodeID]struct{}, interface{}) bool {
	return func(observedBy map[vaultpb.NodeID]struct{}, _ interface{}) bool { return len(observedBy) >= n }
}

func accumulatorKey(env vaultpb.Envelope) accumulator.EntryKey {
	return accumulator.EntryKey{MessageID: env.MessageID, Group: env.Sender.Group}
}

// holderKey derives the KeyedDb key addressing pmid's own PmidTotals
// record.
func holderKey(pmid vaultpb.NodeID) vaultpb.Key {
	return vaultpb.Key{Tag: vaultpb.TagImmutableChunk, Name: vaultpb.Identity(pmid)}
}

// HandleChunkStored accounts a chunk this holder accepted and forwards
// PutResponseFromPmidManager to the owning Data Manager group.
func (s *Service) HandleChunkStored(ctx context.Context, env vaultpb.Envelope, pmid vaultpb.NodeID, dataKey vaultpb.Key, size uint64) {
	var required = vaultpb.RequiredRequests(s.groups(env.Sender.Group))
	var action = vaultpb.ActionPmidPut{Size: size, DataKey: dataKey, RequestMessageID: env.MessageID}
	s.putSvc.HandleAccumulated(ctx, accumulatorKey(env), env.Sender.Node, holderKey(pmid), action, s.putTraits(required, pmid))
}

// HandleChunkLost accounts a chunk this holder lost or rejected and
// forwards PutFailureFromPmidManager to the owning Data Manager group.
func (s *Service) HandleChunkLost(ctx context.Context, env vaultpb.Envelope, pmid vaultpb.NodeID, dataKey vaultpb.Key, size uint64) {
	var required = vaultpb.RequiredRequests(s.groups(env.Sender.Group))
	var action = vaultpb.ActionPmidDelete{Size: size, DataKey: dataKey, RequestMessageID: env.MessageID}
	s.deleteSvc.HandleAccumulated(ctx, accumulatorKey(env), env.Sender.Node, holderKey(pmid), action, s.deleteTraits(required, pmid))
}

// HandleSynchronise merges a close-group peer's endorsement of a resolved
// action into this node's own SyncLog entries, committing locally once the
// group-wide quorum is reached (spec.md §4.3's sync round).
func (s *Service) HandleSynchronise(ctx context.Context, env vaultpb.Envelope) {
	var payload, ok = env.Payload.(vaultpb.SynchronisePayload)
	if !ok {
		log.Warn("pmidmanager: malformed Synchronise payload")
		return
	}
	switch action := payload.Action.(type) {
	case vaultpb.ActionPmidPut:
		var pmid = vaultpb.NodeID(payload.Key.Name)
		s.putSvc.HandleSynchronise(ctx, payload.Key, action, env.Sender.Node, s.putTraits(0, pmid))
	case vaultpb.ActionPmidDelete:
		var pmid = vaultpb.NodeID(payload.Key.Name)
		s.deleteSvc.HandleSynchronise(ctx, payload.Key, action, env.Sender.Node, s.deleteTraits(0, pmid))
	default:
		log.WithField("action", payload.Action).Warn("pmidmanager: unrecognised Synchronise action")
	}
}

// putTraits and deleteTraits build the Traits bundles shared between each
// family's initiating Handle* call and a later HandleSynchronise-driven
// resolution, so both commit paths behave identically. required is ignored
// (and may be 0) on the HandleSynchronise path.
func (s *Service) putTraits(required int, pmid vaultpb.NodeID) persona.Traits[vaultpb.ActionPmidPut, vaultpb.PmidTotals] {
	return persona.Traits[vaultpb.ActionPmidPut, vaultpb.PmidTotals]{
		ArrivalPredicate: quorumOf(required),
		OnResolved: func(ctx context.Context, _ vaultpb.Key, action vaultpb.ActionPmidPut, _ vaultpb.PmidTotals, err error) {
			if err != nil {
				log.WithError(err).WithField("pmid", pmid).Warn("pmidmanager: chunk-stored commit failed")
				return
			}
			s.disp.SendPutResponse(ctx, action.RequestMessageID, vaultpb.GroupID(action.DataKey.Name), vaultpb.PutResponsePayload{Key: action.DataKey, Pmid: pmid, ChunkSize: action.Size})
		},
	}
}

func (s *Service) deleteTraits(required int, pmid vaultpb.NodeID) persona.Traits[vaultpb.ActionPmidDelete, vaultpb.PmidTotals] {
	return persona.Traits[vaultpb.ActionPmidDelete, vaultpb.PmidTotals]{
		ArrivalPredicate: quorumOf(required),
		OnResolved: func(ctx context.Context, _ vaultpb.Key, action vaultpb.ActionPmidDelete, _ vaultpb.PmidTotals, err error) {
			if err != nil {
				if vaultpb.ClassifyAccountError(err, false, false) != vaultpb.CodeOK {
					log.WithError(err).WithField("pmid", pmid).Warn("pmidmanager: chunk-lost commit failed")
				}
				return
			}
			s.disp.SendPutFailure(ctx, action.RequestMessageID, vaultpb.GroupID(action.DataKey.Name), vaultpb.PutFailurePayload{Key: action.DataKey, Pmid: pmid})
		},
	}
}
