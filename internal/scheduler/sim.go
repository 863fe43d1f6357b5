package scheduler

import (
	"context"
	"log/slog"
	"sort"

	"github.com/me/schedsim/pkg/model"
)

// strategy supplies the policy-specific parts of the tick loop.
type strategy interface {
	// admit places a newly arrived process in the ready state.
	admit(s *sim, p *model.Process)
	// pick decides which process executes this tick and records it as
	// s.running. It returns nil when the CPU stays idle.
	pick(s *sim) (*model.Process, error)
	// ran is called after p executed one tick.
	ran(s *sim, p *model.Process) error
	// idled is called after a tick in which no process ran.
	idled(s *sim)
	// waiting reports how many processes sit in the ready state.
	waiting() int
}

// sim is the state of one tick-by-tick simulation.
type sim struct {
	policy    model.Policy
	logger    *slog.Logger
	byArrival []*model.Process
	admitted  int

	tick     int
	running  *model.Process
	timeline model.Timeline
	switches int
}

func newSim(policy model.Policy, procs []*model.Process, logger *slog.Logger) *sim {
	byArrival := make([]*model.Process, len(procs))
	copy(byArrival, procs)
	sort.SliceStable(byArrival, func(i, j int) bool {
		if byArrival[i].Arrival != byArrival[j].Arrival {
			return byArrival[i].Arrival < byArrival[j].Arrival
		}
		return byArrival[i].Seq < byArrival[j].Seq
	})
	return &sim{
		policy:    policy,
		logger:    logger.With("policy", string(policy)),
		byArrival: byArrival,
	}
}

// run drives the loop until every process has finished.
func (s *sim) run(ctx context.Context, st strategy) error {
	if len(s.byArrival) == 0 {
		return nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.admitArrivals(st); err != nil {
			return err
		}

		p, err := st.pick(s)
		if err != nil {
			return err
		}
		if p != nil {
			if err := s.execute(p); err != nil {
				return err
			}
			if err := st.ran(s, p); err != nil {
				return err
			}
		} else {
			s.idle()
			st.idled(s)
		}

		s.tick++
		if s.running == nil && s.admitted == len(s.byArrival) && st.waiting() == 0 {
			return nil
		}
	}
}

// admitArrivals moves every process with Arrival <= tick into the ready state.
func (s *sim) admitArrivals(st strategy) error {
	for s.admitted < len(s.byArrival) && s.byArrival[s.admitted].Arrival <= s.tick {
		p := s.byArrival[s.admitted]
		if err := p.MoveTo(model.ProcessStateReady); err != nil {
			return s.inconsistent("admit "+p.ID, err)
		}
		st.admit(s, p)
		s.admitted++
		s.logger.Debug("admit", "tick", s.tick, "process", p.ID)
	}
	return nil
}

// dispatch makes p the running process.
func (s *sim) dispatch(p *model.Process) error {
	if err := p.MoveTo(model.ProcessStateRunning); err != nil {
		return s.inconsistent("dispatch "+p.ID, err)
	}
	p.Start(s.tick)
	s.running = p
	s.logger.Debug("dispatch", "tick", s.tick, "process", p.ID, "remaining", p.Remaining)
	return nil
}

// preempt returns the running process to the ready state and frees the CPU.
func (s *sim) preempt() (*model.Process, error) {
	p := s.running
	if p == nil {
		return nil, nil
	}
	if err := p.MoveTo(model.ProcessStateReady); err != nil {
		return nil, s.inconsistent("preempt "+p.ID, err)
	}
	s.running = nil
	s.logger.Debug("preempt", "tick", s.tick, "process", p.ID, "remaining", p.Remaining)
	return p, nil
}

// execute runs p for one tick, counting a context switch when the previous
// tick was occupied by a different process.
func (s *sim) execute(p *model.Process) error {
	if p != s.running {
		return s.inconsistent("execute "+p.ID+" which is not the running process", nil)
	}
	if p.Remaining <= 0 {
		return s.inconsistent("execute finished process "+p.ID, nil)
	}
	if last := s.timeline.Last(); last != model.Idle && last != p.ID {
		s.switches++
	}
	s.timeline = append(s.timeline, model.Slice{Start: s.tick, End: s.tick + 1, ProcessID: p.ID})
	p.Remaining--
	if p.Remaining == 0 {
		p.Finish(s.tick + 1)
		if err := p.MoveTo(model.ProcessStateFinished); err != nil {
			return s.inconsistent("finish "+p.ID, err)
		}
		s.running = nil
		s.logger.Debug("finish", "tick", s.tick+1, "process", p.ID)
	}
	return nil
}

func (s *sim) idle() {
	s.timeline = append(s.timeline, model.Slice{Start: s.tick, End: s.tick + 1, ProcessID: model.Idle})
}

func (s *sim) inconsistent(detail string, err error) error {
	return &model.InconsistencyError{Policy: s.policy, Tick: s.tick, Detail: detail, Err: err}
}
