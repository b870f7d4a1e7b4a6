package vaultpb

// Persona identifies one of the replicated roles a vault plays in the
// overlay, per the GLOSSARY.
type Persona int32

const (
	PersonaMaidManager Persona = iota
	PersonaDataManager
	PersonaPmidManager
	PersonaPmidNode
	PersonaVersionHandler
	PersonaCacheHandler
)

func (p Persona) String() string {
	switch p {
	case PersonaMaidManager:
		return "MaidManager"
	case PersonaDataManager:
		return "DataManager"
	case PersonaPmidManager:
		return "PmidManager"
	case PersonaPmidNode:
		return "PmidNode"
	case PersonaVersionHandler:
		return "VersionHandler"
	case PersonaCacheHandler:
		return "CacheHandler"
	default:
		return "UnknownPersona"
	}
}

// GroupID identifies the logical subject -- typically a Key's Identity --
// whose close group originated a group-sourced message.
type GroupID Identity

// Sender carries the origin of a message: either a single node, or a
// group-source identified by (GroupID, persona, the particular member
// that forwarded it). Accumulation requires Group to be set and to match
// the logical subject of the request (spec.md §3, "Message envelope").
type Sender struct {
	Node    NodeID
	Persona Persona
	// Group is the zero value for a single-node sender. A non-zero Group
	// marks this as a group-source send.
	Group   GroupID
	IsGroup bool
}

// Receiver is a single node or an entire close group, addressed by
// persona.
type Receiver struct {
	Node    NodeID
	Persona Persona
	Group   GroupID
	IsGroup bool
}

// MessageType discriminates payload kinds carried in an Envelope.
type MessageType int32

const (
	MsgPutRequestFromMaidManager MessageType = iota
	MsgPutResponseFromPmidManager
	MsgPutFailureFromPmidManager
	MsgGetRequest
	MsgGetRequestPartial
	MsgGetResponseFromPmidNode
	MsgGetCachedResponse
	MsgDeleteRequestFromMaidManager
	MsgDeleteRequest
	MsgSetPmidOnline
	MsgSetPmidOffline
	MsgAccountTransferFromDataManager
	MsgAccountQuery
	MsgAccountQueryResponse
	MsgPutToCacheFromDataManagerToDataManager
	// MsgPutRequest is a client's initial put, addressed to the Maid
	// Manager group owning the client's account.
	MsgPutRequest
	// MsgRegisterPmid is a vault node announcing itself to its Maid
	// Manager group as a storage contributor.
	MsgRegisterPmid
	// MsgChunkStored is a Pmid Node reporting a successful local chunk
	// write to its Pmid Manager group.
	MsgChunkStored
	// MsgChunkLost is a Pmid Node reporting a failed or since-evicted
	// local chunk to its Pmid Manager group.
	MsgChunkLost
	// MsgPutChunk is a Pmid Manager instructing a specific Pmid Node
	// holder to persist chunk data.
	MsgPutChunk
	// MsgPutVersion is a client's request to advance a mutable key's
	// current version, addressed to the owning Version Handler group.
	MsgPutVersion
	// MsgSynchronise carries one node's own observation of a resolved
	// inbound request to its close-group peers, so each can merge it into
	// its own per-key SyncLog and independently reach the group-wide
	// quorum spec.md §4.3 requires before Commit (spec.md §2's mutation
	// data flow: "Accumulator → SyncLog.AddUnresolvedAction → (on
	// resolution) KeyedDb.Commit").
	MsgSynchronise
)

// Envelope wraps a Message with routing metadata. Every typed message
// carries a stable MessageID, a Sender, a Receiver and an opaque Payload.
type Envelope struct {
	MessageID uint64
	Type      MessageType
	Sender    Sender
	Receiver  Receiver
	Payload   interface{}
}

// RequiredRequests is the default arrival predicate denominator: the
// number of distinct group-sourced copies of a message the Accumulator
// must observe before it is satisfied: a strict majority,
// floor(groupSize/2)+1 (1 for a group of 1, 2 for 2 or 3, 3 for 4 or 5).
func RequiredRequests(groupSize int) int {
	return groupSize/2 + 1
}

// TransferAcceptanceThreshold is the account-transfer / conflict-query
// majority threshold. spec.md §9's open question is resolved here: the
// same strict majority as RequiredRequests, floor(groupSize/2)+1, is used
// uniformly, rather than the
// source's inconsistent groupSize/2 for transfer acceptance specifically
// -- see DESIGN.md "Open Questions".
func TransferAcceptanceThreshold(groupSize int) int {
	return RequiredRequests(groupSize)
}

// MatrixChange describes a diff over a close group's membership, as
// delivered by the (out of scope) routing layer.
type MatrixChange struct {
	// Lost are nodes that have left the subject's close group.
	Lost []NodeID
	// New are nodes that have newly joined the subject's close group.
	New []NodeID
	// Group is the logical subject whose membership changed.
	Group GroupID
}
