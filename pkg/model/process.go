package model

import "fmt"

// Descriptor is the static description of a simulated process as read from input.
type Descriptor struct {
	ID       string `json:"id"`
	Arrival  int    `json:"arrival"`
	Burst    int    `json:"burst"`
	Priority int    `json:"priority"`
}

// String returns a one-line summary of the descriptor.
func (d Descriptor) String() string {
	return fmt.Sprintf("%s arrival=%d burst=%d priority=%d", d.ID, d.Arrival, d.Burst, d.Priority)
}

// Process is a simulated task: a descriptor plus the mutable run-state of one simulation run.
type Process struct {
	Descriptor

	// Seq is the position of the descriptor in the input. Ties that the
	// policies resolve "by id" use it so that P10 sorts after P9.
	Seq int `json:"seq"`

	Remaining       int  `json:"remaining"`
	StartTime       *int `json:"start_time,omitempty"`
	FinishTime      *int `json:"finish_time,omitempty"`
	DynamicPriority int  `json:"dynamic_priority"`

	State ProcessState `json:"state"`
}

// NewProcess creates a process record in its initial run-state.
func NewProcess(seq int, d Descriptor) *Process {
	p := &Process{Descriptor: d, Seq: seq}
	p.Reset()
	return p
}

// Reset restores the run-state to its initial values.
func (p *Process) Reset() {
	p.Remaining = p.Burst
	p.StartTime = nil
	p.FinishTime = nil
	p.DynamicPriority = p.Priority
	p.State = ProcessStateNew
}

// MoveTo transitions the process to next, rejecting transitions the lifecycle forbids.
func (p *Process) MoveTo(next ProcessState) error {
	if !p.State.CanTransitionTo(next) {
		return &InvalidTransitionError{Entity: "Process", ID: p.ID, From: string(p.State), To: string(next)}
	}
	p.State = next
	return nil
}

// Started reports whether the process has been dispatched at least once.
func (p *Process) Started() bool { return p.StartTime != nil }

// Finished reports whether the process has consumed its whole burst.
func (p *Process) Finished() bool { return p.FinishTime != nil }

// Start records the first dispatch. Later calls are ignored.
func (p *Process) Start(tick int) {
	if p.StartTime != nil {
		return
	}
	t := tick
	p.StartTime = &t
}

// Finish records the completion tick.
func (p *Process) Finish(tick int) {
	t := tick
	p.FinishTime = &t
}

// Turnaround returns finish time minus arrival, or 0 if the process has not finished.
func (p *Process) Turnaround() int {
	if p.FinishTime == nil {
		return 0
	}
	return *p.FinishTime - p.Arrival
}

// Waiting returns turnaround minus burst, or 0 if the process has not finished.
func (p *Process) Waiting() int {
	if p.FinishTime == nil {
		return 0
	}
	return p.Turnaround() - p.Burst
}

// Response returns the delay between arrival and first dispatch.
func (p *Process) Response() int {
	if p.StartTime == nil {
		return 0
	}
	return *p.StartTime - p.Arrival
}

// Clone returns a deep copy of the process.
func (p *Process) Clone() *Process {
	c := *p
	if p.StartTime != nil {
		s := *p.StartTime
		c.StartTime = &s
	}
	if p.FinishTime != nil {
		f := *p.FinishTime
		c.FinishTime = &f
	}
	return &c
}

// NewProcessSet builds fresh process records for one simulation run.
func NewProcessSet(descriptors []Descriptor) []*Process {
	procs := make([]*Process, len(descriptors))
	for i, d := range descriptors {
		procs[i] = NewProcess(i, d)
	}
	return procs
}
