// Package router defines the Router contract consumed by every persona
// service. The overlay routing layer itself -- delivery of typed
// messages, churn detection, network health -- is explicitly out of
// scope (spec.md §1, §6): this package only names the interface a vault
// process wires a concrete transport into, modelled on the teacher's own
// split between pb.RoutedJournalClient (dispatch) and allocator.State
// (membership/health), per SPEC_FULL.md §6.
package router

import (
	"context"

	"github.com/frrp/MaidSafe-Vault/vaultpb"
)

// MinNetworkHealth is the minimum reported NetworkStatus at which a vault
// counts as healthy, per spec.md §6. cmd/vaultd logs NetworkStatus
// readings without comparing them against it.
const MinNetworkHealth = 50

// Router is the contract a vault process depends on for message delivery
// and churn/health notification. Router implementations deliver typed
// messages in five routing topologies (single→single, single→group,
// group→single, group→group, single→group-relay) -- that fan-out detail
// is the transport's concern; callers of this interface only ever see the
// resulting Envelope plus its Sender/Receiver.
type Router interface {
	// Send is a fire-and-forget typed outbound send.
	Send(ctx context.Context, env vaultpb.Envelope) error
	// NetworkStatus streams health in [-1, 100]; -1 means "unknown/down".
	NetworkStatus() <-chan int
	// MatrixChanges streams close-group membership diffs as they are
	// observed by the routing layer.
	MatrixChanges() <-chan vaultpb.MatrixChange
	// GetCacheData probes the routing layer's own edge cache, if any, for
	// name prior to falling back to a persona's CacheHandler.
	GetCacheData(name vaultpb.DataName) ([]byte, bool)
	// PutCacheData opportunistically populates the routing layer's edge
	// cache with an observed response.
	PutCacheData(name vaultpb.DataName, data []byte)
}

// Inbound wraps an envelope as delivered by Router, already demuxed by
// MessageType. The persona handlers in this repository take the
// vaultpb.Envelope directly rather than an Inbound.
type Inbound struct {
	Envelope vaultpb.Envelope
}
