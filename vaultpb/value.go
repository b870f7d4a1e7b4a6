package vaultpb

import "sort"

// Value is the Data Manager's account record for a single Key: how many
// clients subscribe to the chunk, its size, and which Pmid holders keep a
// copy. Invariants (enforced by every Action.Apply and by Merge):
// OnlinePmids ⊆ AllPmids; Subscribers >= 0.
type Value struct {
	Subscribers int64
	ChunkSize   uint64
	AllPmids    map[NodeID]struct{}
	OnlinePmids map[NodeID]struct{}
}

// NewValue returns an empty Value with initialised holder sets.
func NewValue() Value {
	return Value{
		AllPmids:    make(map[NodeID]struct{}),
		OnlinePmids: make(map[NodeID]struct{}),
	}
}

// Clone returns a deep copy, so that Apply can mutate the clone and leave
// the committed Value untouched until the write actually lands.
func (v Value) Clone() Value {
	var out = Value{Subscribers: v.Subscribers, ChunkSize: v.ChunkSize,
		AllPmids: make(map[NodeID]struct{}, len(v.AllPmids)),
		OnlinePmids: make(map[NodeID]struct{}, len(v.OnlinePmids)),
	}
	for k := range v.AllPmids {
		out.AllPmids[k] = struct{}{}
	}
	for k := range v.OnlinePmids {
		out.OnlinePmids[k] = struct{}{}
	}
	return out
}

// Valid reports whether the invariants hold.
func (v Value) Valid() bool {
	if v.Subscribers < 0 {
		return false
	}
	for p := range v.OnlinePmids {
		if _, ok := v.AllPmids[p]; !ok {
			return false
		}
	}
	return true
}

// SortedPmids returns AllPmids in a deterministic order, preferring online
// holders first, for use in get-pipeline holder selection.
func (v Value) SortedPmids() []NodeID {
	var out = make([]NodeID, 0, len(v.AllPmids))
	for p := range v.AllPmids {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		var iOnline, jOnline = v.isOnline(out[i]), v.isOnline(out[j])
		if iOnline != jOnline {
			return iOnline // online holders sort first
		}
		return out[i].Compare(out[j]) < 0
	})
	return out
}

func (v Value) isOnline(id NodeID) bool {
	_, ok := v.OnlinePmids[id]
	return ok
}

// Merge combines two Values discovered for the same Key during account
// transfer or bulk upsert, taking the union of holder sets and the maximum
// subscriber count -- the Value family's Merge rule referenced by
// KeyedDb.HandleTransfer.
func (v Value) Merge(other Value) Value {
	var out = v.Clone()
	if other.Subscribers > out.Subscribers {
		out.Subscribers = other.Subscribers
	}
	if other.ChunkSize > out.ChunkSize {
		out.ChunkSize = other.ChunkSize
	}
	for p := range other.AllPmids {
		out.AllPmids[p] = struct{}{}
	}
	for p := range other.OnlinePmids {
		out.OnlinePmids[p] = struct{}{}
	}
	return out
}
