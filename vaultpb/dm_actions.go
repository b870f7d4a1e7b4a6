package vaultpb

// Data Manager action families. Each implements Action[Value].

// ActionPutRequest is emitted when a quorum of PutRequestFromMaidManager
// has been observed. It either creates the account or increments
// Subscribers on an existing one.
type ActionPutRequest struct {
	ChunkSize uint64
}

func (ActionPutRequest) ID() ActionID          { return ActionPut }
func (ActionPutRequest) CreatesAccount() bool  { return true }
func (a ActionPutRequest) Equal(o Action[Value]) bool {
	other, ok := o.(ActionPutRequest)
	return ok && other.ChunkSize == a.ChunkSize
}
func (a ActionPutRequest) Apply(v Value, exists bool) (Value, error) {
	if !exists {
		v = NewValue()
		v.ChunkSize = a.ChunkSize
	}
	v.Subscribers++
	return v, nil
}

// ActionAddPmid records that a specific holder accepted the chunk. It may
// itself create the account (eg when the AddPmid evidence arrives before,
// or in place of, a PutRequest having resolved first).
type ActionAddPmid struct {
	Pmid      NodeID
	ChunkSize uint64
}

func (ActionAddPmid) ID() ActionID         { return ActionAddPmid }
func (ActionAddPmid) CreatesAccount() bool { return true }
func (a ActionAddPmid) Equal(o Action[Value]) bool {
	other, ok := o.(ActionAddPmid)
	return ok && other.Pmid == a.Pmid && other.ChunkSize == a.ChunkSize
}
func (a ActionAddPmid) Apply(v Value, exists bool) (Value, error) {
	if !exists {
		v = NewValue()
		v.ChunkSize = a.ChunkSize
		v.Subscribers = 1
	}
	v.AllPmids[a.Pmid] = struct{}{}
	v.OnlinePmids[a.Pmid] = struct{}{}
	return v, nil
}

// ActionRemovePmid removes a holder from AllPmids (and OnlinePmids). This
// is not a create family: it must be muted with ErrNoSuchAccount when the
// account does not yet exist (the PutFailure may race an AddPmid that has
// not yet resolved).
type ActionRemovePmid struct {
	Pmid NodeID
}

func (ActionRemovePmid) ID() ActionID         { return ActionRemovePmid }
func (ActionRemovePmid) CreatesAccount() bool { return false }
func (a ActionRemovePmid) Equal(o Action[Value]) bool {
	other, ok := o.(ActionRemovePmid)
	return ok && other.Pmid == a.Pmid
}
func (a ActionRemovePmid) Apply(v Value, exists bool) (Value, error) {
	if !exists {
		return Value{}, ErrNoSuchAccount
	}
	delete(v.AllPmids, a.Pmid)
	delete(v.OnlinePmids, a.Pmid)
	return v, nil
}

// ActionDelete reduces Subscribers by one. When Subscribers reaches zero
// the caller (PersonaService) enumerates AllPmids at that moment and
// dispatches a DeleteRequest to each holder; ActionDelete itself leaves
// the record in the db (a subsequent compaction/expiry is out of scope)
// but signals the post-state so the service can observe Subscribers==0.
type ActionDelete struct {
	// RequestMessageID is carried for propagation/idempotence bookkeeping,
	// per spec.md §3's "UnresolvedAction" description of Delete.
	RequestMessageID uint64
}

func (ActionDelete) ID() ActionID         { return ActionDelete }
func (ActionDelete) CreatesAccount() bool { return false }
func (a ActionDelete) Equal(o Action[Value]) bool {
	other, ok := o.(ActionDelete)
	return ok && other.RequestMessageID == a.RequestMessageID
}
func (a ActionDelete) Apply(v Value, exists bool) (Value, error) {
	if !exists {
		return Value{}, ErrNoSuchAccount
	}
	if v.Subscribers > 0 {
		v.Subscribers--
	}
	return v, nil
}

// ActionNodeUp marks a holder online. Idempotent: re-marking an already
// online holder is a no-op. A holder not in AllPmids yields
// ErrNoSuchElement, keeping OnlinePmids ⊆ AllPmids.
type ActionNodeUp struct {
	Pmid NodeID
}

func (ActionNodeUp) ID() ActionID         { return ActionNodeUp }
func (ActionNodeUp) CreatesAccount() bool { return false }
func (a ActionNodeUp) Equal(o Action[Value]) bool {
	other, ok := o.(ActionNodeUp)
	return ok && other.Pmid == a.Pmid
}
func (a ActionNodeUp) Apply(v Value, exists bool) (Value, error) {
	if !exists {
		return Value{}, ErrNoSuchAccount
	}
	if _, ok := v.AllPmids[a.Pmid]; !ok {
		return v, ErrNoSuchElement
	}
	v.OnlinePmids[a.Pmid] = struct{}{}
	return v, nil
}

// ActionNodeDown marks a holder offline. ErrNoSuchElement is muted by the
// caller when the holder was already absent from OnlinePmids (spec.md §4.5
// "Liveness").
type ActionNodeDown struct {
	Pmid NodeID
}

func (ActionNodeDown) ID() ActionID         { return ActionNodeDown }
func (ActionNodeDown) CreatesAccount() bool { return false }
func (a ActionNodeDown) Equal(o Action[Value]) bool {
	other, ok := o.(ActionNodeDown)
	return ok && other.Pmid == a.Pmid
}
func (a ActionNodeDown) Apply(v Value, exists bool) (Value, error) {
	if !exists {
		return Value{}, ErrNoSuchAccount
	}
	if _, ok := v.OnlinePmids[a.Pmid]; !ok {
		return v, ErrNoSuchElement
	}
	delete(v.OnlinePmids, a.Pmid)
	return v, nil
}
