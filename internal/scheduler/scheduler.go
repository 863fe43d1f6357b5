package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/schedsim/internal/tiebreak"
	"github.com/me/schedsim/pkg/model"
)

// Scheduler runs one policy over a process set and returns its trace.
type Scheduler interface {
	// Run simulates policy over fresh process records built from descriptors.
	Run(ctx context.Context, policy model.Policy, descriptors []model.Descriptor) (*model.Result, error)
}

// Config holds the scalar parameters shared by every policy.
type Config struct {
	Quantum int // slice length for the round-robin policies
	Aging   int // dynamic-priority decrement per aging event; 0 disables aging
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{Quantum: 2, Aging: 0}
}

// Engine implements Scheduler with a discrete tick simulation.
// An Engine is not safe for concurrent use because its random source is not;
// parallel runs each need their own Engine.
type Engine struct {
	config Config
	source tiebreak.Source
	logger *slog.Logger
}

// Option configures optional Engine dependencies.
type Option func(*Engine)

// WithSource sets the random source used to break ties among equally
// eligible processes.
func WithSource(src tiebreak.Source) Option {
	return func(e *Engine) {
		e.source = src
	}
}

// New creates an Engine.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		config: cfg,
		logger: logger.With("component", "scheduler"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.source == nil {
		e.source = tiebreak.NewSource(time.Now().UnixNano())
	}
	return e
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Run validates the input, builds fresh process records, and simulates policy.
// Zero descriptors yield an empty result and no error.
func (e *Engine) Run(ctx context.Context, policy model.Policy, descriptors []model.Descriptor) (*model.Result, error) {
	if err := Validate(policy, descriptors, e.config); err != nil {
		return nil, err
	}
	return e.RunProcesses(ctx, policy, model.NewProcessSet(descriptors))
}

// RunProcesses resets procs and simulates policy over them. The records are
// mutated in place and returned in the result.
func (e *Engine) RunProcesses(ctx context.Context, policy model.Policy, procs []*model.Process) (*model.Result, error) {
	for _, p := range procs {
		p.Reset()
	}

	st, err := e.strategyFor(policy)
	if err != nil {
		return nil, err
	}

	s := newSim(policy, procs, e.logger)
	if err := s.run(ctx, st); err != nil {
		return nil, err
	}

	e.logger.Debug("run complete",
		"policy", policy,
		"ticks", s.timeline.Len(),
		"context_switches", s.switches,
	)
	return &model.Result{
		Policy:          policy,
		Timeline:        s.timeline,
		ContextSwitches: s.switches,
		Processes:       procs,
	}, nil
}

func (e *Engine) strategyFor(policy model.Policy) (strategy, error) {
	switch policy {
	case model.PolicyFCFS:
		return &nonPreemptive{choose: firstCome}, nil
	case model.PolicySJF:
		return &nonPreemptive{choose: shortestJob}, nil
	case model.PolicySRTF:
		return &preemptive{choose: shortestRemaining(e.source)}, nil
	case model.PolicyPriority:
		return &nonPreemptive{choose: highestPriority}, nil
	case model.PolicyPriorityPreemptive:
		return &preemptive{choose: highestPriorityPreferRunning(e.source)}, nil
	case model.PolicyRoundRobin:
		return &roundRobin{quantum: e.config.Quantum}, nil
	case model.PolicyRoundRobinAging:
		return newAgingRoundRobin(e.config.Quantum, e.config.Aging, e.source), nil
	}
	return nil, model.NewValidationError(fmt.Sprintf("unknown policy %q", policy))
}
