// Package maidmanager implements the Maid Manager persona: client
// authorisation and accounting. It is a thinner instantiation of the same
// persona.Service composition Data Manager uses, over vaultpb.MaidAccount
// instead of vaultpb.Value (SPEC_FULL.md §4.5, expansion).
package maidmanager

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

// GroupSizeFunc reports the current close-group size for a client's group.
type GroupSizeFunc func(vaultpb.GroupID) int

// Service is the Maid Manager persona.
type Service struct {
	self   vaultpb.NodeID
	store  *keyedstore.Store[vaultpb.MaidAccount]
	disp   *dispatch.Dispatcher
	groups GroupSizeFunc

	putSvc          *persona.Service[vaultpb.ActionMaidPut, vaultpb.MaidAccount]
	registerPmidSvc *persona.Service[vaultpb.ActionMaidRegisterPmid, vaultpb.MaidAccount]
}

// New wires a Maid Manager over an already-open Store.
func New(self vaultpb.NodeID, store *keyedstore.Store[vaultpb.MaidAccount], disp *dispatch.Dispatcher, groups GroupSizeFunc) *Service {
	var keyQuorum = func(key vaultpb.Key) int {
		return vaultpb.RequiredRequests(groups(vaultpb.GroupID(key.Name)))
	}
	return &Service{
		self:   self,
		store:  store,
		disp:   disp,
		groups: groups,

		putSvc:          persona.New[vaultpb.ActionMaidPut, vaultpb.MaidAccount](self, vaultpb.PersonaMaidManager, store, 0, synclog.New[vaultpb.ActionMaidPut, vaultpb.MaidAccount](self, keyQuorum), nil, 0, disp),
		registerPmidSvc: persona.New[vaultpb.ActionMaidRegisterPmid, vaultpb.MaidAccount](self, vaultpb.PersonaMaidManager, store, 0, synclog.New[vaultpb.ActionMaidRegisterPmid, vaultpb.MaidAccount](self, keyQuorum), nil, 0, disp),
	}
}

func quorumOf(n int) func(map[vaultpb.NodeID]struct{}, interface{}) bool {
	return func(observedBy map[vaultpb.NodeID]struct{}, _ interface{}) bool { return len(observedBy) >= n }
}

// clientKey derives the KeyedDb key addressing a client's MaidAccount from
// its identity. The Maid Manager has no content-tag variants, so it always
// addresses TagMutableData (the client's own mutable account record).
func clientKey(client vaultpb.NodeID) vaultpb.Key {
	return vaultpb.Key{Tag: vaultpb.TagMutableData, Name: vaultpb.Identity(client)}
}

// HandlePutRequest accounts a client put of size bytes and forwards it to
// the Data Manager group once the account is debited, per SPEC_FULL.md
// §4.5's Maid Manager expansion. No space check is made (see
// vaultpb.ActionMaidPut).
func (s *Service) HandlePutRequest(ctx context.Context, env vaultpb.Envelope, client vaultpb.NodeID, size uint64, dataKey vaultpb.Key) {
	var required = vaultpb.RequiredRequests(s.groups(env.Sender.Group))
	var action = vaultpb.ActionMaidPut{Size: size, DataKey: dataKey, RequestMessageID: env.MessageID}
	s.putSvc.HandleAccumulated(ctx, accumulatorKey(env), env.Sender.Node, clientKey(client), action, s.putTraits(required))
}

// HandleSynchronise merges a close-group peer's endorsement of a resolved
// action into this node's own SyncLog entries, committing locally once the
// group-wide quorum is reached (spec.md §4.3's sync round).
func (s *Service) HandleSynchronise(ctx context.Context, env vaultpb.Envelope) {
	var payload, ok = env.Payload.(vaultpb.SynchronisePayload)
	if !ok {
		log.Warn("maidmanager: malformed Synchronise payload")
		return
	}
	switch action := payload.Action.(type) {
	case vaultpb.ActionMaidPut:
		s.putSvc.HandleSynchronise(ctx, payload.Key, action, env.Sender.Node, s.putTraits(0))
	case vaultpb.ActionMaidRegisterPmid:
		s.registerPmidSvc.HandleSynchronise(ctx, payload.Key, action, env.Sender.Node, persona.Traits[vaultpb.ActionMaidRegisterPmid, vaultpb.MaidAccount]{})
	default:
		log.WithField("action", payload.Action).Warn("maidmanager: unrecognised Synchronise action")
	}
}

// putTraits builds the Traits bundle for ActionMaidPut, shared between the
// initiating HandlePutRequest call and a later HandleSynchronise-driven
// resolution so both commit paths behave identically. required is ignored
// (and may be 0) on the HandleSynchronise path, since ArrivalPredicate only
// matters for the original Accumulator stage.
func (s *Service) putTraits(required int) persona.Traits[vaultpb.ActionMaidPut, vaultpb.MaidAccount] {
	return persona.Traits[vaultpb.ActionMaidPut, vaultpb.MaidAccount]{
		ArrivalPredicate: quorumOf(required),
		OnResolved: func(ctx context.Context, _ vaultpb.Key, action vaultpb.ActionMaidPut, _ vaultpb.MaidAccount, err error) {
			if err != nil {
				log.WithError(err).WithField("messageID", action.RequestMessageID).Warn("maidmanager: put authorisation failed")
				return
			}
			s.disp.SendPutRequestFromMaidManager(ctx, action.RequestMessageID, vaultpb.GroupID(action.DataKey.Name), vaultpb.PutRequestPayload{Key: action.DataKey, ChunkSize: action.Size})
		},
	}
}

// HandleRegisterPmid records that client has registered pmid as its own
// storage contribution, crediting SpaceAvailable by capacity.
func (s *Service) HandleRegisterPmid(ctx context.Context, env vaultpb.Envelope, client, pmid vaultpb.NodeID, capacity uint64) {
	var required = vaultpb.RequiredRequests(s.groups(env.Sender.Group))
	s.registerPmidSvc.HandleAccumulated(ctx, accumulatorKey(env), env.Sender.Node, clientKey(client), vaultpb.ActionMaidRegisterPmid{Pmid: pmid, Capacity: capacity}, persona.Traits[vaultpb.ActionMaidRegisterPmid, vaultpb.MaidAccount]{
		ArrivalPredicate: quorumOf(required),
	})
}

func accumulatorKey(env vaultpb.Envelope) accumulator.EntryKey {
	return accumulator.EntryKey{MessageID: env.MessageID, Group: env.Sender.Group}
}
