package workflow

import (
	"fmt"
	"strings"
)

// State represents a homologation submission status
type State string

const (
	StateDraft         State = "DRAFT"
	StatePendingReview State = "PENDING_REVIEW"
	StatePaid          State = "PAID"
	StateIncomplete    State = "INCOMPLETE"
	StateApproved      State = "APPROVED"
	StateRejected      State = "REJECTED"
	StateCompleted     State = "COMPLETED"
)

// InitialState is the status every submission is created with
const InitialState = StateDraft

// States returns every valid state in lifecycle order
func States() []State {
	return []State{
		StateDraft,
		StatePendingReview,
		StatePaid,
		StateIncomplete,
		StateApproved,
		StateRejected,
		StateCompleted,
	}
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	switch s {
	case StateRejected, StateCompleted:
		return true
	default:
		return false
	}
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid workflow state
func (s State) IsValid() bool {
	switch s {
	case StateDraft, StatePendingReview, StatePaid, StateIncomplete,
		StateApproved, StateRejected, StateCompleted:
		return true
	default:
		return false
	}
}

// ParseState converts a raw status value into a State. Matching ignores case
// and surrounding whitespace.
func ParseState(raw string) (State, error) {
	s := State(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", &Error{Kind: KindInvalidState, Message: fmt.Sprintf("unknown status %q", raw)}
	}
	return s, nil
}
