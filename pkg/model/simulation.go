package model

import "time"

// Simulation is a persisted session: one process set run under one or more policies.
type Simulation struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Quantum   int          `json:"quantum"`
	Aging     int          `json:"aging"`
	Seed      int64        `json:"seed"`
	Processes []Descriptor `json:"processes"`
	Runs      []*PolicyRun `json:"runs,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// PolicyRun is the stored outcome of one policy within a simulation.
// Error is set, and the metrics are zero, when the run aborted.
type PolicyRun struct {
	SimulationID    string   `json:"simulation_id"`
	Policy          Policy   `json:"policy"`
	Timeline        Timeline `json:"timeline"`
	ContextSwitches int      `json:"context_switches"`
	AvgTurnaround   float64  `json:"avg_turnaround"`
	AvgWaiting      float64  `json:"avg_waiting"`
	AvgResponse     float64  `json:"avg_response"`
	Error           string   `json:"error,omitempty"`
}

// Failed reports whether the run aborted.
func (r *PolicyRun) Failed() bool {
	return r.Error != ""
}
