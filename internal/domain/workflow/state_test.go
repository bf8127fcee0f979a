package workflow

import (
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateDraft, false},
		{StatePendingReview, false},
		{StatePaid, false},
		{StateIncomplete, false},
		{StateApproved, false},
		{StateRejected, true},
		{StateCompleted, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"valid state", StateDraft, true},
		{"valid state", StateCompleted, true},
		{"lowercase", State("draft"), false},
		{"invalid state", State("INVALID"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStates_AllValid(t *testing.T) {
	states := States()
	if len(states) != 7 {
		t.Fatalf("States() returned %d states, want 7", len(states))
	}
	for _, s := range states {
		if !s.IsValid() {
			t.Errorf("States() contains invalid state %q", s)
		}
	}
	if InitialState != StateDraft {
		t.Errorf("InitialState = %v, want %v", InitialState, StateDraft)
	}
}

func TestParseState(t *testing.T) {
	s, err := ParseState("PENDING_REVIEW")
	if err != nil {
		t.Fatalf("ParseState() failed: %v", err)
	}
	if s != StatePendingReview {
		t.Errorf("ParseState() = %v, want %v", s, StatePendingReview)
	}

	s, err = ParseState(" paid ")
	if err != nil || s != StatePaid {
		t.Errorf("ParseState(\" paid \") = %v, %v; want %v", s, err, StatePaid)
	}

	_, err = ParseState("ARCHIVED")
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("ParseState() error = %v, want %v", err, ErrInvalidState)
	}
}
