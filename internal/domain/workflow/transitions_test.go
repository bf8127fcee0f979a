package workflow

import (
	"testing"
)

// legalEdges mirrors the published transition table and is the oracle for the
// exhaustive pair test below.
var legalEdges = map[State]map[State]bool{
	StateDraft:         {StatePendingReview: true},
	StatePendingReview: {StatePaid: true, StateApproved: true, StateIncomplete: true, StateRejected: true},
	StatePaid:          {StateApproved: true, StateRejected: true, StateIncomplete: true},
	StateIncomplete:    {StatePendingReview: true, StateRejected: true},
	StateApproved:      {StateCompleted: true},
	StateRejected:      {},
	StateCompleted:     {},
}

func TestCanTransition_AllPairs(t *testing.T) {
	for _, from := range States() {
		for _, to := range States() {
			want := legalEdges[from][to]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestCanTransition_NoSelfLoops(t *testing.T) {
	for _, s := range States() {
		if CanTransition(s, s) {
			t.Errorf("CanTransition(%s, %s) should be false", s, s)
		}
	}
}

func TestCanTransition_UnknownStates(t *testing.T) {
	if CanTransition(State("UNKNOWN"), StateDraft) {
		t.Error("unknown source state should have no edges")
	}
	if CanTransition(StateDraft, State("UNKNOWN")) {
		t.Error("unknown target state should never be reachable")
	}
}

func TestAllowedTargets_TerminalStatesAreEmpty(t *testing.T) {
	for _, s := range States() {
		targets := AllowedTargets(s)
		if s.IsTerminal() && len(targets) != 0 {
			t.Errorf("AllowedTargets(%s) = %v, want empty", s, targets)
		}
		if !s.IsTerminal() && len(targets) == 0 {
			t.Errorf("AllowedTargets(%s) is empty for a non-terminal state", s)
		}
	}
}

func TestAllowedTargets_ReturnsCopy(t *testing.T) {
	targets := AllowedTargets(StateDraft)
	targets[0] = StateCompleted

	if got := AllowedTargets(StateDraft); got[0] != StatePendingReview {
		t.Errorf("AllowedTargets() leaked mutation: got %v", got)
	}
}

func TestRequiresElevation(t *testing.T) {
	tests := []struct {
		target   State
		expected bool
	}{
		{StateDraft, false},
		{StatePendingReview, false},
		{StatePaid, false},
		{StateIncomplete, false},
		{StateApproved, true},
		{StateRejected, true},
		{StateCompleted, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.target), func(t *testing.T) {
			if got := RequiresElevation(tt.target); got != tt.expected {
				t.Errorf("RequiresElevation(%s) = %v, want %v", tt.target, got, tt.expected)
			}
		})
	}
}

func TestRequiresReadiness(t *testing.T) {
	if !RequiresReadiness(StateDraft, StatePendingReview) {
		t.Error("DRAFT -> PENDING_REVIEW should be guarded")
	}
	if RequiresReadiness(StateIncomplete, StatePendingReview) {
		t.Error("INCOMPLETE -> PENDING_REVIEW should not be guarded")
	}
	if RequiresReadiness(StatePendingReview, StateApproved) {
		t.Error("PENDING_REVIEW -> APPROVED should not be guarded")
	}
}

func TestFormatStates(t *testing.T) {
	if got := FormatStates(nil); got != "none" {
		t.Errorf("FormatStates(nil) = %q, want %q", got, "none")
	}
	if got := FormatStates(AllowedTargets(StateIncomplete)); got != "PENDING_REVIEW, REJECTED" {
		t.Errorf("FormatStates() = %q", got)
	}
}
