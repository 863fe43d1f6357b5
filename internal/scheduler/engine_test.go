package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/me/schedsim/internal/tiebreak"
	"github.com/me/schedsim/pkg/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEngine(cfg Config) *Engine {
	return New(cfg, testLogger(), WithSource(tiebreak.NewSource(1)))
}

// scenario is the three-process example used throughout the tests.
func scenario() []model.Descriptor {
	return []model.Descriptor{
		{ID: "P1", Arrival: 0, Burst: 5, Priority: 1},
		{ID: "P2", Arrival: 1, Burst: 3, Priority: 2},
		{ID: "P3", Arrival: 2, Burst: 1, Priority: 3},
	}
}

// occupants renders a timeline as one id per tick, "-" for idle.
func occupants(tl model.Timeline) string {
	parts := make([]string, len(tl))
	for i, s := range tl {
		if s.IsIdle() {
			parts[i] = "-"
		} else {
			parts[i] = s.ProcessID
		}
	}
	return strings.Join(parts, " ")
}

func finishTimes(res *model.Result) map[string]int {
	out := make(map[string]int)
	for _, p := range res.Processes {
		if p.FinishTime != nil {
			out[p.ID] = *p.FinishTime
		}
	}
	return out
}

func TestEngine_Scenario(t *testing.T) {
	tests := []struct {
		policy   model.Policy
		aging    int
		timeline string
		switches int
		finish   map[string]int
	}{
		{model.PolicyFCFS, 0, "P1 P1 P1 P1 P1 P2 P2 P2 P3", 2, map[string]int{"P1": 5, "P2": 8, "P3": 9}},
		{model.PolicySJF, 0, "P1 P1 P1 P1 P1 P3 P2 P2 P2", 2, map[string]int{"P1": 5, "P2": 9, "P3": 6}},
		{model.PolicySRTF, 0, "P1 P2 P3 P2 P2 P1 P1 P1 P1", 4, map[string]int{"P1": 9, "P2": 5, "P3": 3}},
		{model.PolicyPriority, 0, "P1 P1 P1 P1 P1 P3 P2 P2 P2", 2, map[string]int{"P1": 5, "P2": 9, "P3": 6}},
		{model.PolicyPriorityPreemptive, 0, "P1 P2 P3 P2 P2 P1 P1 P1 P1", 4, map[string]int{"P1": 9, "P2": 5, "P3": 3}},
		{model.PolicyRoundRobin, 0, "P1 P1 P2 P2 P1 P1 P3 P2 P1", 5, map[string]int{"P1": 9, "P2": 8, "P3": 7}},
		{model.PolicyRoundRobinAging, 0, "P1 P1 P1 P1 P1 P2 P2 P2 P3", 2, map[string]int{"P1": 5, "P2": 8, "P3": 9}},
		{model.PolicyRoundRobinAging, 1, "P1 P1 P1 P1 P1 P3 P2 P2 P2", 2, map[string]int{"P1": 5, "P2": 9, "P3": 6}},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			eng := testEngine(Config{Quantum: 2, Aging: tt.aging})
			res, err := eng.Run(context.Background(), tt.policy, scenario())
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if got := occupants(res.Timeline); got != tt.timeline {
				t.Errorf("timeline = %q, want %q", got, tt.timeline)
			}
			if res.ContextSwitches != tt.switches {
				t.Errorf("context switches = %d, want %d", res.ContextSwitches, tt.switches)
			}
			got := finishTimes(res)
			for id, want := range tt.finish {
				if got[id] != want {
					t.Errorf("%s finish = %d, want %d", id, got[id], want)
				}
			}
			if res.Policy != tt.policy {
				t.Errorf("policy = %s, want %s", res.Policy, tt.policy)
			}
		})
	}
}

func TestEngine_EmptyInput(t *testing.T) {
	eng := testEngine(DefaultConfig())
	for _, p := range model.AllPolicies {
		res, err := eng.Run(context.Background(), p, nil)
		if err != nil {
			t.Fatalf("%s: Run: %v", p, err)
		}
		if len(res.Timeline) != 0 {
			t.Errorf("%s: timeline length = %d, want 0", p, len(res.Timeline))
		}
		if res.ContextSwitches != 0 {
			t.Errorf("%s: context switches = %d, want 0", p, res.ContextSwitches)
		}
	}
}

func TestEngine_IdleGap(t *testing.T) {
	ds := []model.Descriptor{
		{ID: "P1", Arrival: 0, Burst: 1, Priority: 1},
		{ID: "P2", Arrival: 3, Burst: 2, Priority: 1},
	}
	for _, p := range model.AllPolicies {
		res, err := testEngine(DefaultConfig()).Run(context.Background(), p, ds)
		if err != nil {
			t.Fatalf("%s: Run: %v", p, err)
		}
		if got := occupants(res.Timeline); got != "P1 - - P2 P2" {
			t.Errorf("%s: timeline = %q", p, got)
		}
		// An idle tick between two processes is not a context switch.
		if res.ContextSwitches != 0 {
			t.Errorf("%s: context switches = %d, want 0", p, res.ContextSwitches)
		}
	}
}

func TestEngine_LateFirstArrival(t *testing.T) {
	ds := []model.Descriptor{{ID: "P1", Arrival: 2, Burst: 2, Priority: 1}}
	res, err := testEngine(DefaultConfig()).Run(context.Background(), model.PolicyFCFS, ds)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := occupants(res.Timeline); got != "- - P1 P1" {
		t.Errorf("timeline = %q", got)
	}
	if *res.Processes[0].StartTime != 2 {
		t.Errorf("start = %d, want 2", *res.Processes[0].StartTime)
	}
}

func TestEngine_SJFTieBreakByInputOrder(t *testing.T) {
	ds := []model.Descriptor{
		{ID: "P1", Arrival: 0, Burst: 1, Priority: 1},
		{ID: "P2", Arrival: 1, Burst: 2, Priority: 1},
		{ID: "P3", Arrival: 0, Burst: 2, Priority: 1},
	}
	res, err := testEngine(DefaultConfig()).Run(context.Background(), model.PolicySJF, ds)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := occupants(res.Timeline); got != "P1 P2 P2 P3 P3" {
		t.Errorf("timeline = %q", got)
	}
}

func TestEngine_PriorityTieBreakByInputOrder(t *testing.T) {
	ds := []model.Descriptor{
		{ID: "P1", Arrival: 0, Burst: 1, Priority: 1},
		{ID: "P2", Arrival: 0, Burst: 1, Priority: 4},
		{ID: "P3", Arrival: 0, Burst: 1, Priority: 4},
	}
	res, err := testEngine(DefaultConfig()).Run(context.Background(), model.PolicyPriority, ds)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := occupants(res.Timeline); got != "P2 P3 P1" {
		t.Errorf("timeline = %q", got)
	}
}

func TestEngine_PriorityPreemptiveKeepsRunningOnTie(t *testing.T) {
	ds := []model.Descriptor{
		{ID: "P1", Arrival: 0, Burst: 4, Priority: 2},
		{ID: "P2", Arrival: 1, Burst: 1, Priority: 2},
	}
	res, err := testEngine(DefaultConfig()).Run(context.Background(), model.PolicyPriorityPreemptive, ds)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := occupants(res.Timeline); got != "P1 P1 P1 P1 P2" {
		t.Errorf("timeline = %q", got)
	}
	if res.ContextSwitches != 1 {
		t.Errorf("context switches = %d, want 1", res.ContextSwitches)
	}
}

func TestEngine_SRTFKeepsRunningOnTie(t *testing.T) {
	ds := []model.Descriptor{
		{ID: "P1", Arrival: 0, Burst: 3, Priority: 1},
		{ID: "P2", Arrival: 1, Burst: 2, Priority: 1},
	}
	// At tick 1 both have 2 remaining; the running P1 keeps the CPU.
	res, err := testEngine(DefaultConfig()).Run(context.Background(), model.PolicySRTF, ds)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := occupants(res.Timeline); got != "P1 P1 P1 P2 P2" {
		t.Errorf("timeline = %q", got)
	}
}

func TestEngine_RoundRobinSingleProcessNoSwitch(t *testing.T) {
	ds := []model.Descriptor{{ID: "P1", Arrival: 0, Burst: 5, Priority: 1}}
	res, err := testEngine(Config{Quantum: 2}).Run(context.Background(), model.PolicyRoundRobin, ds)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ContextSwitches != 0 {
		t.Errorf("context switches = %d, want 0", res.ContextSwitches)
	}
	if res.Timeline.Len() != 5 {
		t.Errorf("ticks = %d, want 5", res.Timeline.Len())
	}
}

func TestEngine_RoundRobinPreemptedBeforeNewArrivals(t *testing.T) {
	ds := []model.Descriptor{
		{ID: "P1", Arrival: 0, Burst: 3, Priority: 1},
		{ID: "P2", Arrival: 0, Burst: 2, Priority: 1},
		{ID: "P3", Arrival: 2, Burst: 1, Priority: 1},
	}
	// P1 is preempted at the end of tick 1, so it queues behind P2 but ahead of P3.
	res, err := testEngine(Config{Quantum: 2}).Run(context.Background(), model.PolicyRoundRobin, ds)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := occupants(res.Timeline); got != "P1 P1 P2 P2 P1 P3" {
		t.Errorf("timeline = %q", got)
	}
}

func TestEngine_AgingPreventsStarvation(t *testing.T) {
	// P3 starts at a low urgency (9) behind two level-1 processes. With aging
	// it reaches level 1 while the first of them runs and then wins on
	// remaining time against the second.
	ds := []model.Descriptor{
		{ID: "P1", Arrival: 0, Burst: 6, Priority: 1},
		{ID: "P2", Arrival: 0, Burst: 6, Priority: 1},
		{ID: "P3", Arrival: 0, Burst: 1, Priority: 9},
	}
	run := func(aging int) *model.Result {
		res, err := testEngine(Config{Quantum: 2, Aging: aging}).Run(context.Background(), model.PolicyRoundRobinAging, ds)
		if err != nil {
			t.Fatalf("Run(aging=%d): %v", aging, err)
		}
		return res
	}
	without := finishTimes(run(0))
	with := finishTimes(run(4))
	if without["P3"] != 13 {
		t.Errorf("without aging P3 finish = %d, want 13", without["P3"])
	}
	if with["P3"] >= without["P3"] {
		t.Errorf("aging should let P3 finish earlier: with=%d without=%d", with["P3"], without["P3"])
	}
}

func TestEngine_AgingLowersDynamicPriority(t *testing.T) {
	ds := []model.Descriptor{
		{ID: "P1", Arrival: 0, Burst: 4, Priority: 1},
		{ID: "P2", Arrival: 0, Burst: 1, Priority: 5},
	}
	res, err := testEngine(Config{Quantum: 1, Aging: 3}).Run(context.Background(), model.PolicyRoundRobinAging, ds)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, p := range res.Processes {
		if p.DynamicPriority > p.Priority {
			t.Errorf("%s dynamic priority rose from %d to %d", p.ID, p.Priority, p.DynamicPriority)
		}
		if p.Priority >= 1 && p.DynamicPriority < 1 {
			t.Errorf("%s dynamic priority %d fell below 1", p.ID, p.DynamicPriority)
		}
	}
	// P2 reaches level 1 after two slice boundaries, but the requeued P1 is
	// preferred at its own level and keeps the CPU until it finishes.
	if got := occupants(res.Timeline); got != "P1 P1 P1 P1 P2" {
		t.Errorf("timeline = %q", got)
	}
	for _, p := range res.Processes {
		if p.ID == "P2" && p.DynamicPriority != 1 {
			t.Errorf("P2 dynamic priority = %d, want 1", p.DynamicPriority)
		}
	}
}

func TestEngine_ValidationErrors(t *testing.T) {
	eng := testEngine(DefaultConfig())
	tests := []struct {
		name string
		ds   []model.Descriptor
	}{
		{"zero burst", []model.Descriptor{{ID: "P1", Arrival: 0, Burst: 0}}},
		{"negative arrival", []model.Descriptor{{ID: "P1", Arrival: -1, Burst: 1}}},
		{"duplicate id", []model.Descriptor{{ID: "P1", Burst: 1}, {ID: "P1", Burst: 2}}},
		{"missing id", []model.Descriptor{{Burst: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Run(context.Background(), model.PolicyFCFS, tt.ds)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrValidation {
				t.Fatalf("err = %v, want validation error", err)
			}
		})
	}

	if _, err := testEngine(Config{Quantum: 0}).Run(context.Background(), model.PolicyRoundRobin, scenario()); err == nil {
		t.Error("quantum 0 should be rejected")
	}
	if _, err := eng.Run(context.Background(), model.Policy("lottery"), scenario()); err == nil {
		t.Error("unknown policy should be rejected")
	}
}

func TestEngine_RunProcessesResetsRecords(t *testing.T) {
	eng := testEngine(DefaultConfig())
	procs := model.NewProcessSet(scenario())

	first, err := eng.RunProcesses(context.Background(), model.PolicyFCFS, procs)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := eng.RunProcesses(context.Background(), model.PolicySJF, procs)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.Timeline.Len() != 9 || second.Timeline.Len() != 9 {
		t.Errorf("runs should each cover 9 ticks, got %d and %d", first.Timeline.Len(), second.Timeline.Len())
	}
	if got := occupants(second.Timeline); got != "P1 P1 P1 P1 P1 P3 P2 P2 P2" {
		t.Errorf("second timeline = %q", got)
	}
}

func TestEngine_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testEngine(DefaultConfig()).Run(ctx, model.PolicyFCFS, scenario())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestSim_SelectionOutsideReadyQueueIsInconsistent(t *testing.T) {
	outsider := model.NewProcess(9, model.Descriptor{ID: "PX", Burst: 1})
	st := &nonPreemptive{choose: func([]*model.Process) *model.Process { return outsider }}
	s := newSim(model.PolicySJF, model.NewProcessSet(scenario()), testLogger())

	err := s.run(context.Background(), st)
	var ie *model.InconsistencyError
	if !errors.As(err, &ie) {
		t.Fatalf("err = %v, want InconsistencyError", err)
	}
	if ie.Policy != model.PolicySJF {
		t.Errorf("policy = %s, want sjf", ie.Policy)
	}
	if ie.Tick != 0 {
		t.Errorf("tick = %d, want 0", ie.Tick)
	}
}

func TestSim_ExecuteRequiresRunningProcess(t *testing.T) {
	procs := model.NewProcessSet(scenario())
	s := newSim(model.PolicyFCFS, procs, testLogger())
	if err := s.execute(procs[0]); !model.IsInconsistency(err) {
		t.Errorf("err = %v, want inconsistency", err)
	}
}
