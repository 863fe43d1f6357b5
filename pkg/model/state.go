package model

// ProcessState represents where a process sits during one simulation run.
type ProcessState string

const (
	ProcessStateNew      ProcessState = "NEW"
	ProcessStateReady    ProcessState = "READY"
	ProcessStateRunning  ProcessState = "RUNNING"
	ProcessStateFinished ProcessState = "FINISHED"
)

// String returns the string representation of the process state.
func (s ProcessState) String() string {
	return string(s)
}

// IsTerminal returns true if the process has finished.
func (s ProcessState) IsTerminal() bool {
	return s == ProcessStateFinished
}

// ValidProcessTransitions defines the allowed state transitions for Processes.
// A process is in exactly one of ready, running, or finished once admitted.
var ValidProcessTransitions = map[ProcessState][]ProcessState{
	ProcessStateNew:     {ProcessStateReady},
	ProcessStateReady:   {ProcessStateRunning},
	ProcessStateRunning: {ProcessStateReady, ProcessStateFinished},
}

// CanTransitionTo returns true if moving from the current state to next is valid.
func (s ProcessState) CanTransitionTo(next ProcessState) bool {
	for _, allowed := range ValidProcessTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
