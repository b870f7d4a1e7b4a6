// Package versionhandler implements the Version Handler persona
// (SPEC_FULL.md §4.8, supplementing the distillation): it tracks the
// current version pointer for TagVersionedData keys using the exact same
// persona.Service composition as Maid/Pmid Manager, since a version
// pointer update is itself a replicated single-key mutation requiring
// group quorum, structurally identical to an AddPmid.
package versionhandler

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

// GroupSizeFunc reports the current close-group size for a versioned
// key's group.
type GroupSizeFunc func(vaultpb.GroupID) int

// Service is the Version Handler persona.
type Service struct {
	self   vaultpb.NodeID
	store  *keyedstore.Store[vaultpb.VersionPointer]
	disp   *dispatch.Dispatcher
	groups GroupSizeFunc

	putVersionSvc *persona.Service[vaultpb.ActionPutVersion, vaultpb.VersionPointer]
}

// New wires a Version Handler over an already-open Store.
func New(self vaultpb.NodeID, store *keyedstore.Store[vaultpb.VersionPointer], disp *dispatch.Dispatcher, groups GroupSizeFunc) *Service {
	var keyQuorum = func(key vaultpb.Key) int {
		return vaultpb.RequiredRequests(groups(vaultpb.GroupID(key.Name)))
	}
	return &Service{
		self:   self,
		store:  store,
		disp:   disp,
		groups: groups,

		putVersionSvc: persona.New[vaultpb.ActionPutVersion, vaultpb.VersionPointer](self, vaultpb.PersonaVersionHandler, store, 0, synclog.New[vaultpb.ActionPutVersion, vaultpb.VersionPointer](self, keyQuorum), nil, 0, disp),
	}
}

func quorumOf(n int) func(map[vaultpb.NodeID]struct{}, interface{}) bool {
	return func(observedBy map[vaultpb.NodeID]struct{}, _ interface{}) bool { return len(observedBy) >= n }
}

// HandlePutVersion advances key's current version to newVersion once a
// quorum of the owning group agrees.
func (s *Service) HandlePutVersion(ctx context.Context, env vaultpb.Envelope, key vaultpb.Key, newVersion vaultpb.Identity) {
	var required = vaultpb.RequiredRequests(s.groups(env.Sender.Group))
	s.putVersionSvc.HandleAccumulated(ctx, accumulator.EntryKey{MessageID: env.MessageID, Group: env.Sender.Group}, env.Sender.Node, key, vaultpb.ActionPutVersion{New: newVersion}, s.putVersionTraits(required))
}

// HandleSynchronise merges a close-group peer's endorsement of a resolved
// action into this node's own SyncLog entries, committing locally once the
// group-wide quorum is reached (spec.md §4.3's sync round).
func (s *Service) HandleSynchronise(ctx context.Context, env vaultpb.Envelope) {
	var payload, ok = env.Payload.(vaultpb.SynchronisePayload)
	if !ok {
		log.Warn("versionhandler: malformed Synchronise payload")
		return
	}
	switch action := payload.Action.(type) {
	case vaultpb.ActionPutVersion:
		s.putVersionSvc.HandleSynchronise(ctx, payload.Key, action, env.Sender.Node, s.putVersionTraits(0))
	default:
		log.WithField("action", payload.Action).Warn("versionhandler: unrecognised Synchronise action")
	}
}

// putVersionTraits is shared between the initiating HandlePutVersion call
// and a later HandleSynchronise-driven resolution. required is ignored
// (and may be 0) on the HandleSynchronise path.
func (s *Service) putVersionTraits(required int) persona.Traits[vaultpb.ActionPutVersion, vaultpb.VersionPointer] {
	return persona.Traits[vaultpb.ActionPutVersion, vaultpb.VersionPointer]{
		ArrivalPredicate: quorumOf(required),
		OnResolved: func(_ context.Context, k vaultpb.Key, _ vaultpb.ActionPutVersion, result vaultpb.VersionPointer, err error) {
			if err != nil {
				log.WithError(err).WithField("key", k).Warn("versionhandler: PutVersion commit failed")
				return
			}
			log.WithFields(log.Fields{"key": k, "current": result.Current}).Debug("versionhandler: version advanced")
		},
	}
}

// GetVersion returns the current version pointer for key.
func (s *Service) GetVersion(key vaultpb.Key) (vaultpb.VersionPointer, error) {
	return s.store.Get(key)
}
