/*
errors.go - Status taxonomy for the ledger engine

PURPOSE:
  Every failure that crosses the engine boundary carries a Status rather
  than a raw store fault. Callers branch on the Status (or errors.Is on the
  matching sentinel); the message is for humans.

ERROR CATEGORIES:
  BadRequest:    Caller data fails validation, checked before any store access
  NotFound:      Referenced record does not exist
  Gone:          Referenced record exists but is soft-deleted
  Forbidden:     Mutation of a reserved system record
  Conflict:      Valid request, unsafe given current ledger state
  InternalError: The store raised an unexpected fault

USAGE:
  if _, err := accounts.Delete(ctx, id); ledger.StatusOf(err) == ledger.StatusConflict {
      // hide it first, or clear its transactions
  }

SEE ALSO:
  - store.go: ErrRecordNotFound returned by store implementations
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// STATUS
// =============================================================================

type Status int

const (
	StatusSuccess Status = iota
	StatusBadRequest
	StatusNotFound
	StatusGone
	StatusForbidden
	StatusConflict
	StatusInternalError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusBadRequest:
		return "bad_request"
	case StatusNotFound:
		return "not_found"
	case StatusGone:
		return "gone"
	case StatusForbidden:
		return "forbidden"
	case StatusConflict:
		return "conflict"
	default:
		return "internal_error"
	}
}

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("not found")
	ErrGone       = errors.New("gone")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
	ErrInternal   = errors.New("internal error")

	// ErrRecordNotFound is returned by Store implementations when Update
	// targets a row that does not exist.
	ErrRecordNotFound = errors.New("record not found")
)

var sentinels = map[Status]error{
	StatusBadRequest:    ErrBadRequest,
	StatusNotFound:      ErrNotFound,
	StatusGone:          ErrGone,
	StatusForbidden:     ErrForbidden,
	StatusConflict:      ErrConflict,
	StatusInternalError: ErrInternal,
}

// =============================================================================
// STRUCTURED ERROR
// =============================================================================

// Error is the only error type returned by the budget engine.
type Error struct {
	Status  Status
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Status, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Status, e.Message)
}

// Unwrap exposes both the status sentinel and the cause.
func (e *Error) Unwrap() []error {
	errs := []error{sentinels[e.Status]}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

func newError(status Status, format string, args ...any) *Error {
	return &Error{Status: status, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...any) error { return newError(StatusBadRequest, format, args...) }
func NotFound(format string, args ...any) error   { return newError(StatusNotFound, format, args...) }
func Gone(format string, args ...any) error       { return newError(StatusGone, format, args...) }
func Forbidden(format string, args ...any) error  { return newError(StatusForbidden, format, args...) }
func Conflict(format string, args ...any) error   { return newError(StatusConflict, format, args...) }

// Internal wraps a store fault. Already-classified errors pass through.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	var le *Error
	if errors.As(err, &le) {
		return err
	}
	return &Error{Status: StatusInternalError, Message: "store failure", Cause: err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// StatusOf classifies err. A nil error is StatusSuccess; anything that is
// not an *Error is StatusInternalError.
func StatusOf(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	var le *Error
	if errors.As(err, &le) {
		return le.Status
	}
	return StatusInternalError
}

// MessageOf returns the human-readable message of an *Error.
func MessageOf(err error) string {
	var le *Error
	if errors.As(err, &le) {
		return le.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
