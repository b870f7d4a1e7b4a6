// Package dispatch implements typed outbound message construction: one
// method per (message-type, receiver-kind) combination, a thin wrapper
// over router.Router.Send that handles sender-group tagging and never
// blocks under a caller's lock. Grounded on the teacher's own dispatch
// idiom of wrapping a routed client with typed, single-purpose methods
// (go.gazette.dev/core/broker/client's AppendService / Reader split).
package dispatch

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/frrp/MaidSafe-Vault/router"
	"github.com/frrp/MaidSafe-Vault/vaultpb"
)

// Dispatcher sends typed outbound messages over a Router on behalf of one
// persona instance.
type Dispatcher struct {
	r       router.Router
	self    vaultpb.NodeID
	persona vaultpb.Persona
}

// New returns a Dispatcher sending as self, in persona's name, over r.
func New(r router.Router, self vaultpb.NodeID, persona vaultpb.Persona) *Dispatcher {
	return &Dispatcher{r: r, self: self, persona: persona}
}

// groupSender wraps (group-id-derived-from-key, self-node-id), per
// spec.md §4.7.
func (d *Dispatcher) groupSender(group vaultpb.GroupID) vaultpb.Sender {
	return vaultpb.Sender{Node: d.self, Persona: d.persona, Group: group, IsGroup: true}
}

func (d *Dispatcher) nodeSender() vaultpb.Sender {
	return vaultpb.Sender{Node: d.self, Persona: d.persona}
}

// send never blocks under a caller's lock: Router.Send is expected to be
// non-blocking (fire-and-forget) per its own contract, and any error is
// logged rather than propagated, since a single outbound send failing
// must never abort the handler that triggered it (spec.md §7 propagation
// policy).
func (d *Dispatcher) send(ctx context.Context, env vaultpb.Envelope) {
	if err := d.r.Send(ctx, env); err != nil {
		log.WithFields(log.Fields{
			"messageType": env.Type,
			"messageID":   env.MessageID,
			"receiver":    env.Receiver,
		}).WithError(err).Warn("dispatch send failed")
	}
}

// SendPutRequestFromMaidManager forwards an authorised client put to the
// Data Manager group owning dataKey.
func (d *Dispatcher) SendPutRequestFromMaidManager(ctx context.Context, messageID uint64, group vaultpb.GroupID, payload interface{}) {
	d.send(ctx, vaultpb.Envelope{
		MessageID: messageID,
		Type:      vaultpb.MsgPutRequestFromMaidManager,
		Sender:    d.groupSender(group),
		Receiver:  vaultpb.Receiver{Persona: vaultpb.PersonaDataManager, Group: group, IsGroup: true},
		Payload:   payload,
	})
}

// SendDeleteRequestFromMaidManager forwards an authorised client delete to
// the Data Manager group owning the key.
func (d *Dispatcher) SendDeleteRequestFromMaidManager(ctx context.Context, messageID uint64, group vaultpb.GroupID, payload interface{}) {
	d.send(ctx, vaultpb.Envelope{
		MessageID: messageID,
		Type:      vaultpb.MsgDeleteRequestFromMaidManager,
		Sender:    d.groupSender(group),
		Receiver:  vaultpb.Receiver{Persona: vaultpb.PersonaDataManager, Group: group, IsGroup: true},
		Payload:   payload,
	})
}

// SendSetPmidOnline / SendSetPmidOffline notify the Data Manager group
// responsible for pmid of a liveness change.
func (d *Dispatcher) SendSetPmidOnline(ctx context.Context, messageID uint64, group vaultpb.GroupID, payload interface{}) {
	d.send(ctx, vaultpb.Envelope{
		MessageID: messageID,
		Type:      vaultpb.MsgSetPmidOnline,
		Sender:    d.groupSender(group),
		Receiver:  vaultpb.Receiver{Persona: vaultpb.PersonaDataManager, Group: group, IsGroup: true},
		Payload:   payload,
	})
}

func (d *Dispatcher) SendSetPmidOffline(ctx context.Context, messageID uint64, group vaultpb.GroupID, payload interface{}) {
	d.send(ctx, vaultpb.Envelope{
		MessageID: messageID,
		Type:      vaultpb.MsgSetPmidOffline,
		Sender:    d.groupSender(group),
		Receiver:  vaultpb.Receiver{Persona: vaultpb.PersonaDataManager, Group: group, IsGroup: true},
		Payload:   payload,
	})
}

// SendPutResponse notifies the Data Manager group that a holder accepted
// a chunk.
func (d *Dispatcher) SendPutResponse(ctx context.Context, messageID uint64, group vaultpb.GroupID, payload interface{}) {
	d.send(ctx, vaultpb.Envelope{
		MessageID: messageID,
		Type:      vaultpb.MsgPutResponseFromPmidManager,
		Sender:    d.groupSender(group),
		Receiver:  vaultpb.Receiver{Persona: vaultpb.PersonaDataManager, Group: group, IsGroup: true},
		Payload:   payload,
	})
}

// SendPutFailure notifies the Data Manager group that a holder rejected a
// chunk.
func (d *Dispatcher) SendPutFailure(ctx context.Context, messageID uint64, group vaultpb.GroupID, payload interface{}) {
	d.send(ctx, vaultpb.Envelope{
		MessageID: messageID,
		Type:      vaultpb.MsgPutFailureFromPmidManager,
		Sender:    d.groupSender(group),
		Receiver:  vaultpb.Receiver{Persona: vaultpb.PersonaDataManager, Group: group, IsGroup: true},
		Payload:   payload,
	})
}

// SendGetRequest fans out a GetRequest to a single Pmid Node holder.
func (d *Dispatcher) SendGetRequest(ctx context.Context, messageID uint64, group vaultpb.GroupID, holder vaultpb.NodeID, payload interface{}) {
	d.send(ctx, vaultpb.Envelope{
		MessageID: messageID,
		Type:      vaultpb.MsgGetRequest,
		Sender:    d.groupSender(group),
		Receiver:  vaultpb.Receiver{Node: holder, Persona: vaultpb.PersonaPmidNode},
		Payload:   payload,
	})
}

// SendGetResponse replies to the original requestor.
func (d *Dispatcher) SendGetResponse(ctx context.Context, messageID uint64, to vaultpb.NodeID, payload interface{}) {
	d.send(ctx, vaultpb.Envelope{
		MessageID: messageID,
		Type:      vaultpb.MsgGetResponseFromPmidNode,
		Sender:    d.nodeSender(),
		Receiver:  vaultpb.Receiver{Node: to},
		Payload:   payload,
	})
}

// SendCachedResponse replies directly from a cache hit.
func (d *Dispatcher) SendCachedResponse(ctx context.Context, messageID uint64, to vaultpb.NodeID, payload interface{}) {
	d.send(ctx, vaultpb.Envelope{
		MessageID: messageID,
		Type:      vaultpb.MsgGetCachedResponse,
		Sender:    d.nodeSender(),
		Receiver:  vaultpb.Receiver{Node: to},
		Payload:   payload,
	})
}

// SendDeleteRequest dispatches a DeleteRequest to a single holder, fanned
// out once per entry in AllPmids at the moment a delete resolves to
// Subscribers==0.
func (d *Dispatcher) SendDeleteRequest(ctx context.Context, messageID uint64, holder vaultpb.NodeID, payload interface{}) {
	d.send(ctx, vaultpb.Envelope{
		MessageID: messageID,
		Type:      vaultpb.MsgDeleteRequest,
		Sender:    d.nodeSender(),
		Receiver:  vaultpb.Receiver{Node: holder, Persona: vaultpb.PersonaPmidNode},
		Payload:   payload,
	})
}

// SendAccountTransfer ships a batch of (Key, Value) entries to a newly
// responsible peer, per spec.md §4.5 "Churn".
func (d *Dispatcher) SendAccountTransfer(ctx context.Context, messageID uint64, to vaultpb.NodeID, payload interface{}) {
	d.send(ctx, vaultpb.Envelope{
		MessageID: messageID,
		Type:      vaultpb.MsgAccountTransferFromDataManager,
		Sender:    d.nodeSender(),
		Receiver:  vaultpb.Receiver{Node: to, Persona: d.persona},
		Payload:   payload,
	})
}

// SendAccountQuery asks the owning group for its current (Key, Value) for
// a conflicted transfer entry.
func (d *Dispatcher) SendAccountQuery(ctx context.Context, messageID uint64, group vaultpb.GroupID, payload interface{}) {
	d.send(ctx, vaultpb.Envelope{
		MessageID: messageID,
		Type:      vaultpb.MsgAccountQuery,
		Sender:    d.nodeSender(),
		Receiver:  vaultpb.Receiver{Group: group, Persona: d.persona, IsGroup: true},
		Payload:   payload,
	})
}

// SendAccountQueryResponse answers an AccountQuery with this node's
// current (Key, Value), if known.
func (d *Dispatcher) SendAccountQueryResponse(ctx context.Context, messageID uint64, to vaultpb.NodeID, payload interface{}) {
	d.send(ctx, vaultpb.Envelope{
		MessageID: messageID,
		Type:      vaultpb.MsgAccountQueryResponse,
		Sender:    d.nodeSender(),
		Receiver:  vaultpb.Receiver{Node: to, Persona: d.persona},
		Payload:   payload,
	})
}

// SendRegisterPmid announces this node to the Maid Manager group owning
// its account as a storage contributor.
func (d *Dispatcher) SendRegisterPmid(ctx context.Context, messageID uint64, group vaultpb.GroupID, payload interface{}) {
	d.send(ctx, vaultpb.Envelope{
		MessageID: messageID,
		Type:      vaultpb.MsgRegisterPmid,
		Sender:    d.nodeSender(),
		Receiver:  vaultpb.Receiver{Persona: vaultpb.PersonaMaidManager, Group: group, IsGroup: true},
		Payload:   payload,
	})
}

// SendChunkStored reports a successful local chunk write to the Pmid
// Manager group responsible for this node's account.
func (d *Dispatcher) SendChunkStored(ctx context.Context, messageID uint64, group vaultpb.GroupID, payload interface{}) {
	d.send(ctx, vaultpb.Envelope{
		MessageID: messageID,
		Type:      vaultpb.MsgChunkStored,
		Sender:    d.nodeSender(),
		Receiver:  vaultpb.Receiver{Persona: vaultpb.PersonaPmidManager, Group: group, IsGroup: true},
		Payload:   payload,
	})
}

// SendChunkLost reports a failed or evicted local chunk to the Pmid
// Manager group responsible for this node's account.
func (d *Dispatcher) SendChunkLost(ctx context.Context, messageID uint64, group vaultpb.GroupID, payload interface{}) {
	d.send(ctx, vaultpb.Envelope{
		MessageID: messageID,
		Type:      vaultpb.MsgChunkLost,
		Sender:    d.nodeSender(),
		Receiver:  vaultpb.Receiver{Persona: vaultpb.PersonaPmidManager, Group: group, IsGroup: true},
		Payload:   payload,
	})
}

// SendPutToCache broadcasts a resolved Get's payload to every peer Data
// Manager in group, so each independently populates its own edge cache
// rather than only the member that happened to win the fan-out race --
// resolving spec.md §9's open question over
// PutToCacheFromDataManagerToDataManager by giving the message a real
// receiving-side effect (cachehandler.Cache.PutToCache at each peer)
// instead of leaving it a no-op.
func (d *Dispatcher) SendPutToCache(ctx context.Context, messageID uint64, group vaultpb.GroupID, payload interface{}) {
	d.send(ctx, vaultpb.Envelope{
		MessageID: messageID,
		Type:      vaultpb.MsgPutToCacheFromDataManagerToDataManager,
		Sender:    d.groupSender(group),
		Receiver:  vaultpb.Receiver{Persona: vaultpb.PersonaDataManager, Group: group, IsGroup: true},
		Payload:   payload,
	})
}

// SendSynchronise broadcasts this node's own observation of a resolved
// action to its close-group peers in group, so each can merge it into its
// own SyncLog and independently cross the group-wide quorum spec.md §4.3
// requires before committing (spec.md §2's mutation data flow).
func (d *Dispatcher) SendSynchronise(ctx context.Context, messageID uint64, group vaultpb.GroupID, payload vaultpb.SynchronisePayload) {
	d.send(ctx, vaultpb.Envelope{
		MessageID: messageID,
		Type:      vaultpb.MsgSynchronise,
		Sender:    d.groupSender(group),
		Receiver:  vaultpb.Receiver{Persona: d.persona, Group: group, IsGroup: true},
		Payload:   payload,
	})
}

// SendPutChunk instructs a specific Pmid Node holder to persist chunk
// data.
func (d *Dispatcher) SendPutChunk(ctx context.Context, messageID uint64, group vaultpb.GroupID, holder vaultpb.NodeID, payload interface{}) {
	d.send(ctx, vaultpb.Envelope{
		MessageID: messageID,
		Type:      vaultpb.MsgPutChunk,
		Sender:    d.groupSender(group),
		Receiver:  vaultpb.Receiver{Node: holder, Persona: vaultpb.PersonaPmidNode},
		Payload:   payload,
	})
}
