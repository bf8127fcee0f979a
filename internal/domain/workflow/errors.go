package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a workflow failure
type Kind string

const (
	KindNotFound                  Kind = "NOT_FOUND"
	KindInvalidTransition         Kind = "INVALID_TRANSITION"
	KindRequiresElevatedPrivilege Kind = "REQUIRES_ELEVATED_PRIVILEGE"
	KindMissingPrerequisites      Kind = "MISSING_PREREQUISITES"
	KindConflict                  Kind = "CONFLICT"
	KindInvalidState              Kind = "INVALID_STATE"
	KindUnexpected                Kind = "UNEXPECTED"
)

// String returns the string representation of the kind
func (k Kind) String() string {
	return string(k)
}

// CallerCorrectable reports whether the caller can fix the request and retry.
// Unexpected is the only kind that maps to an opaque internal failure.
func (k Kind) CallerCorrectable() bool {
	return k != KindUnexpected
}

// Retryable reports whether an identical retry may succeed
func (k Kind) Retryable() bool {
	return k == KindConflict || k == KindUnexpected
}

// Error is the typed failure returned by the workflow engine
type Error struct {
	Kind    Kind
	Message string

	// Allowed lists the legal targets from the current state (InvalidTransition)
	Allowed []State

	// MissingFields names every required field that is absent (MissingPrerequisites)
	MissingFields []string

	// MissingAttachments is set when no attachment is present (MissingPrerequisites)
	MissingAttachments bool

	// Err is the underlying cause, if any
	Err error
}

func (e *Error) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	if e.Err != nil && e.Kind == KindUnexpected {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches workflow errors by kind, so errors.Is(err, ErrInvalidTransition) works
// for any invalid-transition failure regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	// ErrNotFound is returned when the submission id does not resolve
	ErrNotFound = &Error{Kind: KindNotFound, Message: "submission not found"}

	// ErrInvalidTransition is returned when a state transition is not allowed
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition, Message: "invalid state transition"}

	// ErrRequiresElevatedPrivilege is returned when the target needs an admin actor
	ErrRequiresElevatedPrivilege = &Error{Kind: KindRequiresElevatedPrivilege, Message: "elevated privilege required"}

	// ErrMissingPrerequisites is returned when the readiness guard fails
	ErrMissingPrerequisites = &Error{Kind: KindMissingPrerequisites, Message: "missing prerequisites"}

	// ErrConflict is returned when the submission changed since it was read
	ErrConflict = &Error{Kind: KindConflict, Message: "version conflict"}

	// ErrInvalidState is returned when a state is not valid
	ErrInvalidState = &Error{Kind: KindInvalidState, Message: "invalid state"}

	// ErrUnexpected wraps collaborator failures that are not otherwise classified
	ErrUnexpected = &Error{Kind: KindUnexpected, Message: "unexpected failure"}
)

// KindOf classifies any error. Errors that are not workflow errors are Unexpected.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var wfErr *Error
	if errors.As(err, &wfErr) {
		return wfErr.Kind
	}
	return KindUnexpected
}

// NewNotFound builds a NotFound error for the given submission id
func NewNotFound(submissionID string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("submission %s not found", submissionID),
	}
}

// NewInvalidTransition builds an InvalidTransition error that enumerates the legal targets
func NewInvalidTransition(from, to State) *Error {
	allowed := AllowedTargets(from)
	return &Error{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s; allowed targets: %s", from, to, FormatStates(allowed)),
		Allowed: allowed,
	}
}

// NewRequiresElevatedPrivilege builds a privilege error for the target state
func NewRequiresElevatedPrivilege(target State) *Error {
	return &Error{
		Kind:    KindRequiresElevatedPrivilege,
		Message: fmt.Sprintf("transition to %s requires elevated privilege", target),
	}
}

// NewMissingPrerequisites builds a readiness failure listing every missing field
// and, separately, the missing attachment condition.
func NewMissingPrerequisites(missingFields []string, missingAttachments bool) *Error {
	var parts []string
	if len(missingFields) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(missingFields, ", "))
	}
	if missingAttachments {
		parts = append(parts, "at least one attachment is required")
	}
	return &Error{
		Kind:               KindMissingPrerequisites,
		Message:            "missing prerequisites: " + strings.Join(parts, "; "),
		MissingFields:      missingFields,
		MissingAttachments: missingAttachments,
	}
}

// NewConflict builds a Conflict error for a stale version
func NewConflict(submissionID string, version int64, cause error) *Error {
	return &Error{
		Kind:    KindConflict,
		Message: fmt.Sprintf("submission %s was modified concurrently (read version %d); reload and retry", submissionID, version),
		Err:     cause,
	}
}

// NewUnexpected wraps a collaborator failure
func NewUnexpected(op string, cause error) *Error {
	return &Error{
		Kind:    KindUnexpected,
		Message: op,
		Err:     cause,
	}
}
