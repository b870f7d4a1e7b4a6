// Package pmidnode implements the Pmid Node persona: on-disk chunk I/O.
// Unlike every other persona it carries no replicated state -- one holder,
// no group quorum needed (spec.md §1) -- so it has no KeyedDb, Accumulator
// or SyncLog, only a direct ChunkStore and the typed request/response
// handlers spec.md §4.5's Get pipeline and Put/Delete protocols address to
// it.
package pmidnode

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/frrp/MaidSafe-Vault/dispatch"
	"github.com/frrp/MaidSafe-Vault/vaultpb"
)

// ChunkStore is the local byte-storage dependency a Pmid Node delegates
// to. Actual chunk storage is out of scope (spec.md §1); cmd/vaultd wires
// a concrete implementation (FileChunkStore, one file per chunk, for local
// development) at process start, matching how original_source/vault.cc
// wires a chunk_store dependency into the Pmid Node.
type ChunkStore interface {
	Get(name vaultpb.Identity) ([]byte, bool, error)
	Put(name vaultpb.Identity, data []byte) error
	Delete(name vaultpb.Identity) error
}

// Service is the Pmid Node persona.
type Service struct {
	self  vaultpb.NodeID
	disp  *dispatch.Dispatcher
	store ChunkStore
}

// New returns a Pmid Node persona backed by store.
func New(self vaultpb.NodeID, disp *dispatch.Dispatcher, store ChunkStore) *Service {
	return &Service{self: self, disp: disp, store: store}
}

// HandleGetRequest serves a chunk from local storage. When the chunk is
// absent (or the read fails) it sends no reply; the requesting Data
// Manager's DeadlineTimer fan-out then times out or takes another
// holder's response (spec.md §4.5 Get step 4).
func (s *Service) HandleGetRequest(ctx context.Context, env vaultpb.Envelope) {
	var payload, ok = env.Payload.(vaultpb.GetRequestPayload)
	if !ok {
		log.Warn("pmidnode: malformed GetRequest payload")
		return
	}
	var data, found, err = s.store.Get(payload.Key.Name)
	if err != nil {
		log.WithError(err).WithField("key", payload.Key).Warn("pmidnode: chunk read failed")
		return
	}
	if !found {
		return
	}
	s.disp.SendGetResponse(ctx, env.MessageID, env.Sender.Node, vaultpb.GetResponsePayload{Key: payload.Key, Data: data})
}

// HandlePutChunk stores data under key, reporting the outcome to this
// node's own Pmid Manager group so it can account the chunk and forward
// evidence on to the owning Data Manager group (spec.md §4.5 Put steps
// 2-3 begin at a Pmid Manager, not directly at a Pmid Node).
func (s *Service) HandlePutChunk(ctx context.Context, env vaultpb.Envelope, key vaultpb.Key, data []byte) {
	var pmidGroup = vaultpb.GroupID(s.self)
	if err := s.store.Put(key.Name, data); err != nil {
		log.WithError(err).WithField("key", key).Warn("pmidnode: chunk write failed")
		s.disp.SendChunkLost(ctx, env.MessageID, pmidGroup, vaultpb.ChunkLostPayload{DataKey: key, ChunkSize: uint64(len(data))})
		return
	}
	s.disp.SendChunkStored(ctx, env.MessageID, pmidGroup, vaultpb.ChunkStoredPayload{DataKey: key, ChunkSize: uint64(len(data))})
}

// Fetch reads a chunk directly from local storage, bypassing the envelope
// pipeline -- used by cmd/vault-tool to verify a prior store without
// round-tripping through a GetRequest/GetResponse exchange.
func (s *Service) Fetch(name vaultpb.Identity) ([]byte, bool, error) {
	return s.store.Get(name)
}

// HandleDeleteRequest removes key's chunk from local storage. Absence is
// not an error: a delete racing a prior eviction is expected.
func (s *Service) HandleDeleteRequest(_ context.Context, env vaultpb.Envelope) {
	var payload, ok = env.Payload.(vaultpb.DeleteRequestPayload)
	if !ok {
		log.Warn("pmidnode: malformed DeleteRequest payload")
		return
	}
	if err := s.store.Delete(payload.Key.Name); err != nil {
		log.WithError(err).WithField("key", payload.Key).Warn("pmidnode: chunk delete failed")
	}
}
