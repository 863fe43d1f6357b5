package scheduler

import (
	"github.com/me/schedsim/internal/tiebreak"
	"github.com/me/schedsim/pkg/model"
)

// nonPreemptive dispatches only when the CPU is free and lets the chosen
// process run to completion. choose picks from the ready queue.
type nonPreemptive struct {
	ready  fifo
	choose func(ready []*model.Process) *model.Process
}

func (n *nonPreemptive) admit(_ *sim, p *model.Process) { n.ready.push(p) }
func (n *nonPreemptive) ran(*sim, *model.Process) error { return nil }
func (n *nonPreemptive) idled(*sim)                     {}
func (n *nonPreemptive) waiting() int                   { return n.ready.len() }

func (n *nonPreemptive) pick(s *sim) (*model.Process, error) {
	if s.running != nil || n.ready.len() == 0 {
		return s.running, nil
	}
	next := n.choose(n.ready.items)
	if !n.ready.remove(next) {
		return nil, s.inconsistent("selected "+next.ID+" is not in the ready queue", nil)
	}
	if err := s.dispatch(next); err != nil {
		return nil, err
	}
	return next, nil
}

// firstCome picks the queue head, i.e. arrival order.
func firstCome(ready []*model.Process) *model.Process {
	return ready[0]
}

// shortestJob picks the smallest burst, ties by input order.
func shortestJob(ready []*model.Process) *model.Process {
	best := ready[0]
	for _, p := range ready[1:] {
		if p.Burst < best.Burst || (p.Burst == best.Burst && p.Seq < best.Seq) {
			best = p
		}
	}
	return best
}

// highestPriority picks the numerically highest priority, ties by input order.
func highestPriority(ready []*model.Process) *model.Process {
	best := ready[0]
	for _, p := range ready[1:] {
		if p.Priority > best.Priority || (p.Priority == best.Priority && p.Seq < best.Seq) {
			best = p
		}
	}
	return best
}

// preemptive re-decides the running process every tick among the ready queue
// and the running process. choose receives the candidates and the running
// process (nil when the CPU is free).
type preemptive struct {
	ready  fifo
	choose func(candidates []*model.Process, running *model.Process) *model.Process
}

func (pe *preemptive) admit(_ *sim, p *model.Process) { pe.ready.push(p) }
func (pe *preemptive) ran(*sim, *model.Process) error { return nil }
func (pe *preemptive) idled(*sim)                     {}
func (pe *preemptive) waiting() int                   { return pe.ready.len() }

func (pe *preemptive) pick(s *sim) (*model.Process, error) {
	if s.running == nil && pe.ready.len() == 0 {
		return nil, nil
	}
	candidates := pe.ready.snapshot()
	if s.running != nil {
		candidates = append(candidates, s.running)
	}
	next := pe.choose(candidates, s.running)
	if next == nil {
		return nil, s.inconsistent("no process selected from a non-empty candidate set", nil)
	}
	if next == s.running {
		return next, nil
	}

	prev, err := s.preempt()
	if err != nil {
		return nil, err
	}
	if prev != nil {
		pe.ready.push(prev)
	}
	if !pe.ready.remove(next) {
		return nil, s.inconsistent("selected "+next.ID+" is not in the ready queue", nil)
	}
	if err := s.dispatch(next); err != nil {
		return nil, err
	}
	return next, nil
}

// shortestRemaining picks the least remaining time, keeping the running
// process on ties.
func shortestRemaining(src tiebreak.Source) func([]*model.Process, *model.Process) *model.Process {
	return func(candidates []*model.Process, running *model.Process) *model.Process {
		return tiebreak.PreferIfTied(candidates, running, src)
	}
}

// highestPriorityPreferRunning picks the numerically highest priority. Among
// several holders of that priority the running process is kept.
func highestPriorityPreferRunning(src tiebreak.Source) func([]*model.Process, *model.Process) *model.Process {
	return func(candidates []*model.Process, running *model.Process) *model.Process {
		top := candidates[0].Priority
		for _, p := range candidates[1:] {
			if p.Priority > top {
				top = p.Priority
			}
		}
		var tied []*model.Process
		for _, p := range candidates {
			if p.Priority == top {
				tied = append(tied, p)
			}
		}
		if len(tied) == 1 {
			return tied[0]
		}
		return tiebreak.PreferAlways(tied, running, src)
	}
}

// roundRobin runs the queue head for at most quantum ticks, then sends it to
// the tail if it has not finished.
type roundRobin struct {
	ready   fifo
	quantum int
	slice   int
}

func (rr *roundRobin) admit(_ *sim, p *model.Process) { rr.ready.push(p) }
func (rr *roundRobin) idled(*sim)                     {}
func (rr *roundRobin) waiting() int                   { return rr.ready.len() }

func (rr *roundRobin) pick(s *sim) (*model.Process, error) {
	if s.running != nil || rr.ready.len() == 0 {
		return s.running, nil
	}
	next := rr.ready.pop()
	if err := s.dispatch(next); err != nil {
		return nil, err
	}
	rr.slice = min(rr.quantum, next.Remaining)
	return next, nil
}

func (rr *roundRobin) ran(s *sim, p *model.Process) error {
	rr.slice--
	if p.Finished() {
		rr.slice = 0
		return nil
	}
	if rr.slice > 0 {
		return nil
	}
	prev, err := s.preempt()
	if err != nil {
		return err
	}
	rr.ready.push(prev)
	return nil
}
