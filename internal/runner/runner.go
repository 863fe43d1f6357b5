// Package runner drives several independent policy runs over one process set.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/me/schedsim/internal/report"
	"github.com/me/schedsim/internal/scheduler"
	"github.com/me/schedsim/internal/tiebreak"
	"github.com/me/schedsim/internal/tracing"
	"github.com/me/schedsim/pkg/model"
)

// Outcome is the result of one policy. Exactly one of Result and Err is set.
type Outcome struct {
	Policy  model.Policy
	Result  *model.Result
	Err     error
	Elapsed time.Duration
}

// Report converts the outcome for rendering or persistence.
func (o Outcome) Report() report.PolicyReport {
	return report.NewPolicyReport(o.Policy, o.Result, o.Err)
}

// Reports converts every outcome, keeping order.
func Reports(outcomes []Outcome) []report.PolicyReport {
	out := make([]report.PolicyReport, len(outcomes))
	for i, o := range outcomes {
		out[i] = o.Report()
	}
	return out
}

// Factory builds the scheduler for one run from its tie-break seed.
type Factory func(seed int64) scheduler.Scheduler

// Runner executes policies on independent copies of a process set.
type Runner struct {
	config   scheduler.Config
	seed     int64
	parallel int
	factory  Factory
	logger   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithSeed fixes the tie-break seed. Run i of a batch uses seed+i.
// Without it the seed is taken from the clock when the Runner is created.
func WithSeed(seed int64) Option {
	return func(r *Runner) {
		r.seed = seed
	}
}

// WithParallel runs up to n policies concurrently. n <= 1 runs them in order.
func WithParallel(n int) Option {
	return func(r *Runner) {
		r.parallel = n
	}
}

// WithFactory replaces the scheduler built for each run.
func WithFactory(f Factory) Option {
	return func(r *Runner) {
		r.factory = f
	}
}

// New creates a Runner.
func New(cfg scheduler.Config, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		config: cfg,
		seed:   time.Now().UnixNano(),
		logger: logger.With("component", "runner"),
	}
	r.factory = func(seed int64) scheduler.Scheduler {
		return scheduler.New(r.config, logger, scheduler.WithSource(tiebreak.NewSource(seed)))
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Seed returns the base tie-break seed, so a batch can be replayed.
func (r *Runner) Seed() int64 {
	return r.seed
}

// Config returns the scheduler configuration shared by every run.
func (r *Runner) Config() scheduler.Config {
	return r.config
}

// RunAll runs every policy and returns one outcome per policy in the given
// order. A failing or panicking policy is reported in its outcome and does
// not stop the others. The returned error is non-nil only when the input
// itself is invalid.
func (r *Runner) RunAll(ctx context.Context, policies []model.Policy, descriptors []model.Descriptor) ([]Outcome, error) {
	if err := scheduler.ValidateInput(descriptors, r.config); err != nil {
		return nil, err
	}
	for _, p := range policies {
		if !p.Valid() {
			return nil, model.NewValidationError("invalid simulation input",
				model.FieldError{Field: "policy", Message: fmt.Sprintf("unknown policy %q", p)})
		}
	}

	ctx, span := tracing.StartSpan(ctx, "simulation")
	span.SetInt("processes", len(descriptors)).SetInt("policies", len(policies))
	defer tracing.EndSpan(span, nil)

	base := r.seed
	outcomes := make([]Outcome, len(policies))
	if r.parallel <= 1 {
		for i, p := range policies {
			outcomes[i] = r.runOne(ctx, p, descriptors, base+int64(i))
		}
		return outcomes, nil
	}

	sem := NewSemaphore(r.parallel)
	var wg sync.WaitGroup
	for i, p := range policies {
		wg.Add(1)
		go func(i int, p model.Policy) {
			defer wg.Done()
			if !sem.Acquire(ctx) {
				outcomes[i] = Outcome{Policy: p, Err: ctx.Err()}
				return
			}
			defer sem.Release()
			outcomes[i] = r.runOne(ctx, p, descriptors, base+int64(i))
		}(i, p)
	}
	wg.Wait()
	return outcomes, nil
}

// runOne gives the policy its own engine, random source and process records.
func (r *Runner) runOne(ctx context.Context, policy model.Policy, descriptors []model.Descriptor, seed int64) (out Outcome) {
	out.Policy = policy
	start := time.Now()

	ctx, span := tracing.StartSpan(ctx, "policy "+string(policy))
	span.SetString("policy", string(policy)).SetInt("seed", int(seed))
	defer func() {
		if rec := recover(); rec != nil {
			out.Result = nil
			out.Err = &model.InconsistencyError{Policy: policy, Tick: -1, Detail: fmt.Sprintf("panic: %v", rec)}
		}
		out.Elapsed = time.Since(start)
		r.log(out)
		tracing.EndSpan(span, out.Err)
	}()

	res, err := r.factory(seed).Run(ctx, policy, descriptors)
	if err != nil {
		out.Err = err
		return out
	}
	out.Result = res
	span.SetInt("ticks", res.Timeline.Len()).SetInt("context_switches", res.ContextSwitches)
	return out
}

func (r *Runner) log(o Outcome) {
	if o.Err != nil {
		r.logger.Error("policy failed", "policy", o.Policy, "error", o.Err)
		return
	}
	r.logger.Info("policy complete",
		"policy", o.Policy,
		"ticks", o.Result.Timeline.Len(),
		"context_switches", o.Result.ContextSwitches,
		"duration", o.Elapsed,
	)
}

// Record builds the persisted form of a finished batch under a fresh id.
func (r *Runner) Record(name string, descriptors []model.Descriptor, reports []report.PolicyReport) *model.Simulation {
	sim := &model.Simulation{
		ID:        "sim_" + uuid.New().String(),
		Name:      name,
		Quantum:   r.config.Quantum,
		Aging:     r.config.Aging,
		Seed:      r.seed,
		Processes: descriptors,
		CreatedAt: time.Now().UTC(),
	}
	for _, rep := range reports {
		sim.Runs = append(sim.Runs, rep.PolicyRun(sim.ID))
	}
	return sim
}
