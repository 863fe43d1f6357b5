package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/me/schedsim/internal/scheduler"
	"github.com/me/schedsim/internal/tiebreak"
	"github.com/me/schedsim/pkg/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func scenario() []model.Descriptor {
	return []model.Descriptor{
		{ID: "P1", Arrival: 0, Burst: 5, Priority: 1},
		{ID: "P2", Arrival: 1, Burst: 3, Priority: 2},
		{ID: "P3", Arrival: 2, Burst: 1, Priority: 3},
	}
}

func TestRunAll_EveryPolicyInOrder(t *testing.T) {
	r := New(scheduler.Config{Quantum: 2}, testLogger(), WithSeed(1))
	outcomes, err := r.RunAll(context.Background(), model.AllPolicies, scenario())
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if len(outcomes) != len(model.AllPolicies) {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), len(model.AllPolicies))
	}
	for i, o := range outcomes {
		if o.Policy != model.AllPolicies[i] {
			t.Errorf("outcome %d policy = %s, want %s", i, o.Policy, model.AllPolicies[i])
		}
		if o.Err != nil {
			t.Errorf("%s: %v", o.Policy, o.Err)
			continue
		}
		if o.Result.Timeline.Len() != 9 {
			t.Errorf("%s: ticks = %d, want 9", o.Policy, o.Result.Timeline.Len())
		}
	}
	if outcomes[0].Result.ContextSwitches != 2 {
		t.Errorf("fcfs context switches = %d, want 2", outcomes[0].Result.ContextSwitches)
	}
}

func TestRunAll_RunsDoNotShareRecords(t *testing.T) {
	r := New(scheduler.Config{Quantum: 2}, testLogger(), WithSeed(1))
	outcomes, err := r.RunAll(context.Background(), []model.Policy{model.PolicyFCFS, model.PolicySJF}, scenario())
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	a, b := outcomes[0].Result.Processes, outcomes[1].Result.Processes
	for i := range a {
		if a[i] == b[i] {
			t.Fatalf("process %s record shared between runs", a[i].ID)
		}
	}
	// P3 finishes at 9 under FCFS and at 6 under SJF.
	if *a[2].FinishTime != 9 || *b[2].FinishTime != 6 {
		t.Errorf("P3 finish: fcfs=%d sjf=%d", *a[2].FinishTime, *b[2].FinishTime)
	}
}

func TestRunAll_ParallelMatchesSequential(t *testing.T) {
	ds := []model.Descriptor{
		{ID: "P1", Arrival: 0, Burst: 4, Priority: 2},
		{ID: "P2", Arrival: 0, Burst: 4, Priority: 2},
		{ID: "P3", Arrival: 1, Burst: 2, Priority: 5},
		{ID: "P4", Arrival: 3, Burst: 3, Priority: 1},
	}
	cfg := scheduler.Config{Quantum: 2, Aging: 1}
	seq, err := New(cfg, testLogger(), WithSeed(7)).RunAll(context.Background(), model.AllPolicies, ds)
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}
	par, err := New(cfg, testLogger(), WithSeed(7), WithParallel(3)).RunAll(context.Background(), model.AllPolicies, ds)
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}
	for i := range seq {
		if seq[i].Policy != par[i].Policy {
			t.Fatalf("order differs at %d", i)
		}
		if timelineString(seq[i].Result) != timelineString(par[i].Result) {
			t.Errorf("%s: sequential %q != parallel %q", seq[i].Policy,
				timelineString(seq[i].Result), timelineString(par[i].Result))
		}
	}
}

func timelineString(res *model.Result) string {
	var b strings.Builder
	for _, s := range res.Timeline {
		b.WriteString(s.ProcessID)
		b.WriteByte(',')
	}
	return b.String()
}

// faultyScheduler fails two policies and delegates the rest.
type faultyScheduler struct {
	next scheduler.Scheduler
}

func (f faultyScheduler) Run(ctx context.Context, policy model.Policy, ds []model.Descriptor) (*model.Result, error) {
	switch policy {
	case model.PolicySRTF:
		panic("ready queue corrupted")
	case model.PolicyRoundRobin:
		return nil, &model.InconsistencyError{Policy: policy, Tick: 3, Detail: "selected P9 is not in the ready queue"}
	}
	return f.next.Run(ctx, policy, ds)
}

func TestRunAll_FailuresAreIsolated(t *testing.T) {
	cfg := scheduler.Config{Quantum: 2}
	factory := func(seed int64) scheduler.Scheduler {
		return faultyScheduler{next: scheduler.New(cfg, testLogger(), scheduler.WithSource(tiebreak.NewSource(seed)))}
	}
	for _, parallel := range []int{1, 4} {
		r := New(cfg, testLogger(), WithSeed(1), WithParallel(parallel), WithFactory(factory))
		outcomes, err := r.RunAll(context.Background(), model.AllPolicies, scenario())
		if err != nil {
			t.Fatalf("RunAll: %v", err)
		}
		failed := map[model.Policy]bool{}
		for _, o := range outcomes {
			if o.Err != nil {
				failed[o.Policy] = true
				if !model.IsInconsistency(o.Err) {
					t.Errorf("%s: err %v is not an inconsistency", o.Policy, o.Err)
				}
				if o.Result != nil {
					t.Errorf("%s: failed outcome carries a result", o.Policy)
				}
			} else if o.Result == nil {
				t.Errorf("%s: missing result", o.Policy)
			}
		}
		if len(failed) != 2 || !failed[model.PolicySRTF] || !failed[model.PolicyRoundRobin] {
			t.Errorf("parallel=%d failed = %v", parallel, failed)
		}
		if msg := outcomes[2].Err.Error(); !strings.Contains(msg, "panic: ready queue corrupted") {
			t.Errorf("panic message = %q", msg)
		}
		reports := Reports(outcomes)
		if !reports[2].Failed() || reports[0].Failed() {
			t.Errorf("reports failed flags wrong: %+v", reports)
		}
	}
}

func TestRunAll_InvalidInput(t *testing.T) {
	r := New(scheduler.DefaultConfig(), testLogger())
	_, err := r.RunAll(context.Background(), model.AllPolicies, []model.Descriptor{{ID: "P1", Burst: 0}})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrValidation {
		t.Errorf("err = %v, want validation error", err)
	}

	_, err = r.RunAll(context.Background(), []model.Policy{"lottery"}, scenario())
	if !errors.As(err, &apiErr) {
		t.Errorf("unknown policy err = %v, want validation error", err)
	}

	_, err = New(scheduler.Config{Quantum: 0}, testLogger()).RunAll(context.Background(), model.AllPolicies, scenario())
	if err == nil {
		t.Error("quantum 0 should be rejected")
	}
}

func TestRunAll_EmptyInput(t *testing.T) {
	outcomes, err := New(scheduler.DefaultConfig(), testLogger()).RunAll(context.Background(), model.AllPolicies, nil)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	for _, o := range outcomes {
		if o.Err != nil || len(o.Result.Timeline) != 0 || o.Result.ContextSwitches != 0 {
			t.Errorf("%s: outcome = %+v", o.Policy, o)
		}
	}
}

func TestRunAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, parallel := range []int{1, 2} {
		outcomes, err := New(scheduler.DefaultConfig(), testLogger(), WithParallel(parallel)).RunAll(ctx, model.AllPolicies, scenario())
		if err != nil {
			t.Fatalf("RunAll: %v", err)
		}
		for _, o := range outcomes {
			if !errors.Is(o.Err, context.Canceled) {
				t.Errorf("parallel=%d %s: err = %v, want context.Canceled", parallel, o.Policy, o.Err)
			}
		}
	}
}

func TestRecord(t *testing.T) {
	r := New(scheduler.Config{Quantum: 3, Aging: 1}, testLogger(), WithSeed(42))
	policies := []model.Policy{model.PolicyFCFS, model.PolicyRoundRobin}
	outcomes, err := r.RunAll(context.Background(), policies, scenario())
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}

	sim := r.Record("demo", scenario(), Reports(outcomes))
	if !strings.HasPrefix(sim.ID, "sim_") {
		t.Errorf("ID = %q, want sim_ prefix", sim.ID)
	}
	if sim.Quantum != 3 || sim.Aging != 1 || sim.Seed != 42 {
		t.Errorf("config = q%d a%d seed %d, want q3 a1 seed 42", sim.Quantum, sim.Aging, sim.Seed)
	}
	if len(sim.Runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(sim.Runs))
	}
	for i, run := range sim.Runs {
		if run.SimulationID != sim.ID {
			t.Errorf("run %d simulation id = %q, want %q", i, run.SimulationID, sim.ID)
		}
		if run.Policy != policies[i] {
			t.Errorf("run %d policy = %s, want %s", i, run.Policy, policies[i])
		}
		if run.Timeline.Len() != 9 {
			t.Errorf("run %d timeline length = %d, want 9", i, run.Timeline.Len())
		}
	}
}
