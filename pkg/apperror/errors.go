// Package apperror provides a structured way to classify controller errors
// by the taxonomy the SAGSIN controller operates under: input validation,
// infeasibility, transient network failures, subscriber back-pressure,
// configuration errors, and internal invariant violations. Each kind carries
// its own HTTP status mapping so handlers never have to guess.
package apperror

import (
	"errors"
	"fmt"
)

// Kind identifies which of the controller's semantic error categories an
// error belongs to.
type Kind string

const (
	// KindValidation covers malformed request bodies, unknown node ids, and
	// non-positive parameters. Never mutates state.
	KindValidation Kind = "validation"

	// KindInfeasible covers src/dst pairs with no path under the current
	// enabled-edge set, after both ACO and the BFS fallback have failed.
	KindInfeasible Kind = "infeasible"

	// KindTransientNetwork covers TCP connect/read/write failures between
	// the controller and node agents, or between agents. Logged, never
	// retried for a single hop.
	KindTransientNetwork Kind = "transient_network"

	// KindBackpressure covers a full subscriber queue; the frame is dropped
	// for that subscriber only, the connection stays open.
	KindBackpressure Kind = "backpressure"

	// KindConfig covers unreadable configuration or a missing node source;
	// callers treat this as fatal at startup.
	KindConfig Kind = "config"

	// KindInternal covers invariant violations (inconsistent edge index,
	// negative cost, non-finite normalization). Logged, surfaced as a 500
	// for the in-flight request; the process keeps serving.
	KindInternal Kind = "internal"
)

// Error is the controller's error type. It always carries a Kind so callers
// (HTTP handlers, loggers) can react without string-matching messages.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	Cause   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (field: %s)", e.Kind, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is/errors.As to see through to the cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the status code a REST handler should respond with for
// this error kind.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return 400
	case KindInfeasible:
		return 422
	case KindTransientNetwork:
		return 502
	case KindBackpressure:
		return 200 // never surfaced to the caller; the frame is simply dropped
	case KindConfig:
		return 500
	case KindInternal:
		return 500
	default:
		return 500
	}
}

// New builds an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NewWithField builds an *Error of the given kind, annotated with the
// offending request field.
func NewWithField(kind Kind, message, field string) *Error {
	return &Error{Kind: kind, Message: message, Field: field}
}

// Wrap attaches a Kind and message to an underlying cause, preserving it for
// Unwrap/errors.Is/errors.As.
func Wrap(cause error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithField returns a copy of e with Field set.
func (e *Error) WithField(field string) *Error {
	cp := *e
	cp.Field = field
	return &cp
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// KindOf extracts the Kind of err, defaulting to KindInternal for errors
// that were never classified.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Validation is a convenience constructor for the most common error kind
// raised by request-parsing code.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// ValidationField is a convenience constructor for a field-scoped validation
// error.
func ValidationField(message, field string) *Error {
	return NewWithField(KindValidation, message, field)
}

// Infeasible is a convenience constructor for the no-feasible-path case.
func Infeasible(message string) *Error {
	return New(KindInfeasible, message)
}

// TransientNetwork is a convenience constructor for a TCP relay or dial
// failure.
func TransientNetwork(cause error, message string) *Error {
	return Wrap(cause, KindTransientNetwork, message)
}

// Config is a convenience constructor for startup configuration failures.
func Config(cause error, message string) *Error {
	return Wrap(cause, KindConfig, message)
}

// Internal is a convenience constructor for invariant violations.
func Internal(message string) *Error {
	return New(KindInternal, message)
}

// Predefined errors for the most common scenarios, mirroring the taxonomy's
// recurring cases so call sites don't re-derive a message each time.
var (
	ErrUnknownNode   = New(KindValidation, "node id not found in current graph state")
	ErrSameSrcDst    = New(KindValidation, "source and destination must differ")
	ErrNoPath        = New(KindInfeasible, "no feasible path between source and destination")
	ErrEdgeNotFound  = New(KindValidation, "no link between the given node pair")
	ErrQueueFull     = New(KindBackpressure, "subscriber queue full, frame dropped")
	ErrNodesNotFound = New(KindConfig, "no node source available")
)
