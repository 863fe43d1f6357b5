package model

import (
	"errors"
	"testing"
)

func TestProcessState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    ProcessState
		terminal bool
	}{
		{ProcessStateNew, false},
		{ProcessStateReady, false},
		{ProcessStateRunning, false},
		{ProcessStateFinished, true},
	}
	for _, tt := range tests {
		if got := tt.state.IsTerminal(); got != tt.terminal {
			t.Errorf("ProcessState(%q).IsTerminal() = %v, want %v", tt.state, got, tt.terminal)
		}
	}
}

func TestProcessState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from  ProcessState
		to    ProcessState
		valid bool
	}{
		// Valid transitions
		{ProcessStateNew, ProcessStateReady, true},
		{ProcessStateReady, ProcessStateRunning, true},
		{ProcessStateRunning, ProcessStateReady, true},
		{ProcessStateRunning, ProcessStateFinished, true},

		// Invalid transitions
		{ProcessStateNew, ProcessStateRunning, false},
		{ProcessStateReady, ProcessStateFinished, false},
		{ProcessStateReady, ProcessStateReady, false},
		{ProcessStateFinished, ProcessStateReady, false},
		{ProcessStateFinished, ProcessStateRunning, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.valid {
			t.Errorf("%s → %s = %v, want %v", tt.from, tt.to, got, tt.valid)
		}
	}
}

func TestProcess_MoveTo(t *testing.T) {
	p := NewProcess(0, Descriptor{ID: "P1", Arrival: 0, Burst: 2, Priority: 1})
	if err := p.MoveTo(ProcessStateReady); err != nil {
		t.Fatalf("new → ready: %v", err)
	}
	err := p.MoveTo(ProcessStateFinished)
	var te *InvalidTransitionError
	if !errors.As(err, &te) {
		t.Fatalf("ready → finished: got %v, want InvalidTransitionError", err)
	}
	if p.State != ProcessStateReady {
		t.Errorf("state = %s after rejected transition, want READY", p.State)
	}
}
