package model

// Idle is the occupant recorded for a tick in which no process ran.
const Idle = ""

// Slice is one unit record of a timeline: the interval [Start, End) and its occupant.
type Slice struct {
	Start     int    `json:"start"`
	End       int    `json:"end"`
	ProcessID string `json:"process_id"`
}

// IsIdle reports whether no process occupied the slice.
func (s Slice) IsIdle() bool {
	return s.ProcessID == Idle
}

// Timeline is an ordered, gap-free sequence of slices starting at tick 0.
type Timeline []Slice

// Len returns the number of ticks covered by the timeline.
func (t Timeline) Len() int {
	if len(t) == 0 {
		return 0
	}
	return t[len(t)-1].End
}

// Last returns the occupant of the final slice, or Idle for an empty timeline.
func (t Timeline) Last() string {
	if len(t) == 0 {
		return Idle
	}
	return t[len(t)-1].ProcessID
}

// BusyTicks counts the ticks in which some process ran.
func (t Timeline) BusyTicks() int {
	n := 0
	for _, s := range t {
		if !s.IsIdle() {
			n += s.End - s.Start
		}
	}
	return n
}

// TicksByProcess sums the executed ticks per process id.
func (t Timeline) TicksByProcess() map[string]int {
	out := make(map[string]int)
	for _, s := range t {
		if !s.IsIdle() {
			out[s.ProcessID] += s.End - s.Start
		}
	}
	return out
}

// Result is the output of running one policy over one process set.
type Result struct {
	Policy          Policy     `json:"policy"`
	Timeline        Timeline   `json:"timeline"`
	ContextSwitches int        `json:"context_switches"`
	Processes       []*Process `json:"processes"`
}
