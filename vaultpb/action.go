package vaultpb

// ActionID discriminates an Action family. Actions are commutative only
// within a family for identical inputs; ordering across families on the
// same key is determined by the resolution order of the owning SyncLogs
// (spec.md §3).
type ActionID int32

const (
	ActionPut ActionID = iota
	ActionDelete
	ActionAddPmid
	ActionRemovePmid
	ActionNodeUp
	ActionNodeDown
	ActionMaidPut
	ActionMaidRegisterPmid
	ActionPmidPut
	ActionPmidDelete
	ActionPutVersion
)

func (a ActionID) String() string {
	switch a {
	case ActionPut:
		return "Put"
	case ActionDelete:
		return "Delete"
	case ActionAddPmid:
		return "AddPmid"
	case ActionRemovePmid:
		return "RemovePmid"
	case ActionNodeUp:
		return "NodeUp"
	case ActionNodeDown:
		return "NodeDown"
	case ActionMaidPut:
		return "MaidPut"
	case ActionMaidRegisterPmid:
		return "MaidRegisterPmid"
	case ActionPmidPut:
		return "PmidPut"
	case ActionPmidDelete:
		return "PmidDelete"
	case ActionPutVersion:
		return "PutVersion"
	default:
		return "UnknownAction"
	}
}

// Action is a typed command that deterministically transforms a value of
// type V. Implementations live in this package, one file per persona's
// Value type (dm_actions.go, maidaccount.go, pmidtotals.go,
// versionptr.go). V is the persona's account Value type.
type Action[V any] interface {
	// ID reports the action family's discriminator.
	ID() ActionID
	// Apply transforms the current value (the zero value of V if exists is
	// false) into the post-state. A "create" family action must construct
	// a fresh V when exists is false; any other family must return
	// ErrNoSuchAccount in that case.
	Apply(current V, exists bool) (V, error)
	// Equal reports whether other is logically the same action (same
	// family, same parameters) for the purpose of SyncLog de-duplication.
	// Two actions from different originators that are Equal still
	// accumulate into a single UnresolvedAction.
	Equal(other Action[V]) bool
	// CreatesAccount reports whether this action family is permitted to
	// bring a new account into existence (ActionPut, ActionAddPmid, ...).
	CreatesAccount() bool
}
