package vaultpb

// PmidTotals is the Pmid Manager's per-holder usage account, grounded
// directly on original_source/maid_manager/pmid_totals.h's PmidTotals
// struct (there: serialised_pmid_registration + PmidManagerMetadata).
// This rewrite keeps the same two concerns -- registration state and
// accumulated storage metadata -- as plain accounted fields rather than an
// opaque serialised registration blob, since the registration's own
// contents are out of this core's scope (passport/crypto, per spec.md §1).
type PmidTotals struct {
	Registered      bool
	StoredCount     uint64
	StoredTotalSize uint64
	LostCount       uint64
}

// Merge takes the maximum of every counter, the PmidTotals family's Merge
// rule.
func (p PmidTotals) Merge(other PmidTotals) PmidTotals {
	var out = p
	out.Registered = out.Registered || other.Registered
	if other.StoredCount > out.StoredCount {
		out.StoredCount = other.StoredCount
	}
	if other.StoredTotalSize > out.StoredTotalSize {
		out.StoredTotalSize = other.StoredTotalSize
	}
	if other.LostCount > out.LostCount {
		out.LostCount = other.LostCount
	}
	return out
}

// ActionPmidPut accounts a chunk placed onto this holder. DataKey and
// RequestMessageID carry what HandleChunkStored's post-commit forward to
// the owning Data Manager group needs, so the action is reconstructible
// purely from (key, action) when a SyncLog peer endorsement resolves it.
type ActionPmidPut struct {
	Size             uint64
	DataKey          Key
	RequestMessageID uint64
}

func (ActionPmidPut) ID() ActionID         { return ActionPmidPut }
func (ActionPmidPut) CreatesAccount() bool { return true }
func (a ActionPmidPut) Equal(o Action[PmidTotals]) bool {
	other, ok := o.(ActionPmidPut)
	return ok && other.Size == a.Size && other.RequestMessageID == a.RequestMessageID
}
func (a ActionPmidPut) Apply(v PmidTotals, exists bool) (PmidTotals, error) {
	if !exists {
		v = PmidTotals{Registered: true}
	}
	v.StoredCount++
	v.StoredTotalSize += a.Size
	return v, nil
}

// ActionPmidDelete accounts a chunk removed from this holder. DataKey and
// RequestMessageID serve the same self-containment purpose as on
// ActionPmidPut.
type ActionPmidDelete struct {
	Size             uint64
	DataKey          Key
	RequestMessageID uint64
}

func (ActionPmidDelete) ID() ActionID         { return ActionPmidDelete }
func (ActionPmidDelete) CreatesAccount() bool { return false }
func (a ActionPmidDelete) Equal(o Action[PmidTotals]) bool {
	other, ok := o.(ActionPmidDelete)
	return ok && other.Size == a.Size && other.RequestMessageID == a.RequestMessageID
}
func (a ActionPmidDelete) Apply(v PmidTotals, exists bool) (PmidTotals, error) {
	if !exists {
		return PmidTotals{}, ErrNoSuchAccount
	}
	if v.StoredCount > 0 {
		v.StoredCount--
	}
	if v.StoredTotalSize >= a.Size {
		v.StoredTotalSize -= a.Size
	} else {
		v.StoredTotalSize = 0
	}
	v.LostCount++
	return v, nil
}
