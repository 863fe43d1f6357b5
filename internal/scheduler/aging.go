package scheduler

import (
	"github.com/me/schedsim/internal/tiebreak"
	"github.com/me/schedsim/pkg/model"
)

// agingRoundRobin is round robin over priority levels (lower value runs first)
// with aging. The running process is re-decided only when the CPU is free or
// its slice is used up.
//
// When a slice expires on an unfinished process, every waiting process is aged
// first and then the expired process rejoins its own level without being aged.
// It is preferred at its level, so newcomers at that level do not displace it.
type agingRoundRobin struct {
	ready   *levels
	quantum int
	step    int
	source  tiebreak.Source
	slice   int
}

func newAgingRoundRobin(quantum, step int, src tiebreak.Source) *agingRoundRobin {
	return &agingRoundRobin{
		ready:   newLevels(),
		quantum: quantum,
		step:    step,
		source:  src,
	}
}

func (a *agingRoundRobin) admit(_ *sim, p *model.Process) { a.ready.push(p) }
func (a *agingRoundRobin) waiting() int                   { return a.ready.len() }

func (a *agingRoundRobin) pick(s *sim) (*model.Process, error) {
	if s.running != nil && a.slice > 0 {
		return s.running, nil
	}

	var preferred *model.Process
	if s.running != nil {
		// Slice used up and the process is not finished.
		a.ready.age(a.step)
		prev, err := s.preempt()
		if err != nil {
			return nil, err
		}
		a.ready.push(prev)
		preferred = prev
	}

	next := tiebreak.PreferAlways(a.ready.best(), preferred, a.source)
	if next == nil {
		return nil, nil
	}
	if !a.ready.remove(next) {
		return nil, s.inconsistent("selected "+next.ID+" is not in its priority level", nil)
	}
	if err := s.dispatch(next); err != nil {
		return nil, err
	}
	a.slice = min(a.quantum, next.Remaining)
	s.logger.Debug("slice", "tick", s.tick, "process", next.ID, "level", next.DynamicPriority, "slice", a.slice)
	return next, nil
}

func (a *agingRoundRobin) ran(_ *sim, p *model.Process) error {
	a.slice--
	if p.Finished() {
		a.slice = 0
	}
	return nil
}

// idled ages the waiting processes after a tick in which the CPU did nothing.
func (a *agingRoundRobin) idled(*sim) {
	a.ready.age(a.step)
}
