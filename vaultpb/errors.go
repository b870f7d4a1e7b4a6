package vaultpb

import (
	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
)

// Sentinel account errors, per spec.md §7's error taxonomy. Callers compare
// against these with errors.Is/errors.Cause; they are never constructed
// with a dynamic message so that muting logic (§4.5 Put/Delete/Liveness
// pipelines) can match on identity rather than string content.
var (
	// ErrNoSuchAccount is returned by Commit when key is absent and the
	// action is not of a "create" family.
	ErrNoSuchAccount = errors.New("no_such_account")
	// ErrAccountAlreadyExists is returned by a create action applied to an
	// already-present key, where the family forbids re-creation.
	ErrAccountAlreadyExists = errors.New("account_already_exists")
	// ErrNoSuchElement is returned by Get for an absent key, and by actions
	// (NodeUp, NodeDown) that reference a holder not on record.
	ErrNoSuchElement = errors.New("no_such_element")
	// ErrParsingError flags a corrupted on-disk record. Fatal for that key.
	ErrParsingError = errors.New("parsing_error")
)

// Code classifies an error for the outbound reply boundary (spec.md §6,
// "wire payloads" / §7 propagation policy). It is gRPC's own well-known
// status vocabulary (google.golang.org/grpc/codes) even though the
// Router transport itself is out of scope and never constructs a live
// grpc.Status -- the vocabulary is reused standalone, the same way a
// caller might compare against codes.NotFound without a surrounding RPC.
type Code = codes.Code

const (
	CodeOK                 = codes.OK
	CodeNotFound           = codes.NotFound
	CodeAlreadyExists      = codes.AlreadyExists
	CodeDeadlineExceeded   = codes.DeadlineExceeded
	CodeFailedPrecondition = codes.FailedPrecondition
	CodeInternal           = codes.Internal
)

// ClassifyAccountError maps the sentinel account errors above to a Code.
// ErrNoSuchAccount and ErrNoSuchElement are muted (CodeOK) when their mute
// flag is set, for the idempotent races the spec calls out (RemovePmid
// racing an AddPmid, NodeDown on an already-absent holder), and classify
// as CodeNotFound otherwise; ErrAccountAlreadyExists classifies as
// CodeAlreadyExists; ErrParsingError and any other error as CodeInternal.
// Callers log every result other than CodeOK, never silently dropping it
// -- resolving the "enumerate exactly which error codes are expected" open
// question from spec.md §9.
func ClassifyAccountError(err error, muteNoSuchAccount, muteNoSuchElement bool) Code {
	switch errors.Cause(err) {
	case nil:
		return CodeOK
	case ErrNoSuchAccount:
		if muteNoSuchAccount {
			return CodeOK
		}
		return CodeNotFound
	case ErrNoSuchElement:
		if muteNoSuchElement {
			return CodeOK
		}
		return CodeNotFound
	case ErrAccountAlreadyExists:
		return CodeAlreadyExists
	case ErrParsingError:
		return CodeInternal
	default:
		return CodeInternal
	}
}
