// Package report derives metrics from a simulation result and renders them.
package report

import "github.com/me/schedsim/pkg/model"

// ProcessMetrics is the per-process row of a report.
type ProcessMetrics struct {
	ID         string `json:"id"`
	Arrival    int    `json:"arrival"`
	Burst      int    `json:"burst"`
	Priority   int    `json:"priority"`
	Start      int    `json:"start"`
	Finish     int    `json:"finish"`
	Turnaround int    `json:"turnaround"`
	Waiting    int    `json:"waiting"`
	Response   int    `json:"response"`
}

// Metrics aggregates one policy run.
type Metrics struct {
	Processes       []ProcessMetrics `json:"processes"`
	AvgTurnaround   float64          `json:"avg_turnaround"`
	AvgWaiting      float64          `json:"avg_waiting"`
	AvgResponse     float64          `json:"avg_response"`
	ContextSwitches int              `json:"context_switches"`
	TotalTicks      int              `json:"total_ticks"`
	BusyTicks       int              `json:"busy_ticks"`
	IdleTicks       int              `json:"idle_ticks"`
	Utilization     float64          `json:"utilization"`
	Throughput      float64          `json:"throughput"`
}

// Compute derives metrics from res. Averages are 0 for an empty process set.
func Compute(res *model.Result) Metrics {
	m := Metrics{
		Processes:       make([]ProcessMetrics, 0, len(res.Processes)),
		ContextSwitches: res.ContextSwitches,
		TotalTicks:      res.Timeline.Len(),
		BusyTicks:       res.Timeline.BusyTicks(),
	}
	m.IdleTicks = m.TotalTicks - m.BusyTicks

	var turnaround, waiting, response int
	for _, p := range res.Processes {
		pm := ProcessMetrics{
			ID:         p.ID,
			Arrival:    p.Arrival,
			Burst:      p.Burst,
			Priority:   p.Priority,
			Turnaround: p.Turnaround(),
			Waiting:    p.Waiting(),
			Response:   p.Response(),
		}
		if p.StartTime != nil {
			pm.Start = *p.StartTime
		}
		if p.FinishTime != nil {
			pm.Finish = *p.FinishTime
		}
		turnaround += pm.Turnaround
		waiting += pm.Waiting
		response += pm.Response
		m.Processes = append(m.Processes, pm)
	}

	if n := len(res.Processes); n > 0 {
		m.AvgTurnaround = float64(turnaround) / float64(n)
		m.AvgWaiting = float64(waiting) / float64(n)
		m.AvgResponse = float64(response) / float64(n)
	}
	if m.TotalTicks > 0 {
		m.Utilization = float64(m.BusyTicks) / float64(m.TotalTicks)
		m.Throughput = float64(len(res.Processes)) / float64(m.TotalTicks)
	}
	return m
}

// Segment is a run of consecutive ticks with the same occupant.
type Segment struct {
	Start     int    `json:"start"`
	End       int    `json:"end"`
	ProcessID string `json:"process_id,omitempty"`
}

// Idle reports whether the CPU did nothing during the segment.
func (s Segment) Idle() bool { return s.ProcessID == model.Idle }

// Segments collapses consecutive slices with the same occupant.
func Segments(tl model.Timeline) []Segment {
	var out []Segment
	for _, s := range tl {
		if n := len(out); n > 0 && out[n-1].ProcessID == s.ProcessID && out[n-1].End == s.Start {
			out[n-1].End = s.End
			continue
		}
		out = append(out, Segment{Start: s.Start, End: s.End, ProcessID: s.ProcessID})
	}
	return out
}

// PolicyReport is the outcome of one policy as shown to users and API clients.
// Exactly one of Metrics and Error is set.
type PolicyReport struct {
	Policy          model.Policy `json:"policy"`
	Name            string       `json:"name"`
	ContextSwitches int          `json:"context_switches"`
	Segments        []Segment    `json:"segments"`
	Metrics         *Metrics     `json:"metrics,omitempty"`
	Error           string       `json:"error,omitempty"`

	result *model.Result
}

// NewPolicyReport builds the report for one run. err marks the run as failed.
func NewPolicyReport(policy model.Policy, res *model.Result, err error) PolicyReport {
	r := PolicyReport{Policy: policy, Name: policy.Name(), Segments: []Segment{}}
	if err != nil {
		r.Error = err.Error()
		return r
	}
	m := Compute(res)
	r.Metrics = &m
	r.ContextSwitches = res.ContextSwitches
	r.Segments = Segments(res.Timeline)
	r.result = res
	return r
}

// Failed reports whether the run aborted.
func (r PolicyReport) Failed() bool { return r.Error != "" }

// Result returns the underlying simulation result, nil for failed runs.
func (r PolicyReport) Result() *model.Result { return r.result }

// PolicyRun converts the report into its persisted form.
func (r PolicyReport) PolicyRun(simulationID string) *model.PolicyRun {
	run := &model.PolicyRun{SimulationID: simulationID, Policy: r.Policy, Error: r.Error}
	if r.result != nil {
		run.Timeline = r.result.Timeline
	}
	if r.Metrics != nil {
		run.ContextSwitches = r.Metrics.ContextSwitches
		run.AvgTurnaround = r.Metrics.AvgTurnaround
		run.AvgWaiting = r.Metrics.AvgWaiting
		run.AvgResponse = r.Metrics.AvgResponse
	}
	return run
}
