package workflow

import "strings"

// AllowedTargets returns the states reachable from the given state in one step.
// The returned slice is freshly allocated; callers may modify it.
func AllowedTargets(from State) []State {
	switch from {
	case StateDraft:
		return []State{StatePendingReview}
	case StatePendingReview:
		return []State{StatePaid, StateApproved, StateIncomplete, StateRejected}
	case StatePaid:
		return []State{StateApproved, StateRejected, StateIncomplete}
	case StateIncomplete:
		return []State{StatePendingReview, StateRejected}
	case StateApproved:
		return []State{StateCompleted}
	case StateRejected, StateCompleted:
		return []State{}
	default:
		return []State{}
	}
}

// CanTransition reports whether the edge from -> to exists in the transition table
func CanTransition(from, to State) bool {
	for _, target := range AllowedTargets(from) {
		if target == to {
			return true
		}
	}
	return false
}

// RequiresElevation reports whether moving into the target state needs an elevated actor
func RequiresElevation(target State) bool {
	switch target {
	case StateApproved, StateRejected, StateCompleted:
		return true
	default:
		return false
	}
}

// RequiresReadiness reports whether the edge is guarded by the submission-readiness check.
// Only the first submission from DRAFT is guarded; re-submission from INCOMPLETE is not.
func RequiresReadiness(from, to State) bool {
	return from == StateDraft && to == StatePendingReview
}

// FormatStates renders a state list for messages; an empty list renders as "none"
func FormatStates(states []State) string {
	if len(states) == 0 {
		return "none"
	}
	names := make([]string, len(states))
	for i, s := range states {
		names[i] = s.String()
	}
	return strings.Join(names, ", ")
}
