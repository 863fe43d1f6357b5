package scheduler

import (
	"sort"

	"github.com/me/schedsim/pkg/model"
)

// fifo is a ready queue in admission order.
type fifo struct {
	items []*model.Process
}

func (q *fifo) push(p *model.Process) {
	q.items = append(q.items, p)
}

func (q *fifo) pop() *model.Process {
	if len(q.items) == 0 {
		return nil
	}
	p := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return p
}

// remove deletes p, keeping the order of the others. It reports whether p was present.
func (q *fifo) remove(p *model.Process) bool {
	for i, it := range q.items {
		if it == p {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

func (q *fifo) len() int { return len(q.items) }

// snapshot returns a copy of the queued processes.
func (q *fifo) snapshot() []*model.Process {
	out := make([]*model.Process, len(q.items))
	copy(out, q.items)
	return out
}

// levels holds ready processes partitioned by dynamic priority. Keys are kept
// sorted ascending so scans are deterministic; empty levels are dropped.
type levels struct {
	keys  []int
	byKey map[int]*fifo
	count int
}

func newLevels() *levels {
	return &levels{byKey: make(map[int]*fifo)}
}

// push appends p to the level matching its dynamic priority.
func (l *levels) push(p *model.Process) {
	k := p.DynamicPriority
	q, ok := l.byKey[k]
	if !ok {
		q = &fifo{}
		l.byKey[k] = q
		i := sort.SearchInts(l.keys, k)
		l.keys = append(l.keys, 0)
		copy(l.keys[i+1:], l.keys[i:])
		l.keys[i] = k
	}
	q.push(p)
	l.count++
}

// remove deletes p from the level matching its dynamic priority.
func (l *levels) remove(p *model.Process) bool {
	k := p.DynamicPriority
	q, ok := l.byKey[k]
	if !ok || !q.remove(p) {
		return false
	}
	l.count--
	if q.len() == 0 {
		l.drop(k)
	}
	return true
}

func (l *levels) drop(k int) {
	delete(l.byKey, k)
	i := sort.SearchInts(l.keys, k)
	if i < len(l.keys) && l.keys[i] == k {
		l.keys = append(l.keys[:i], l.keys[i+1:]...)
	}
}

// best returns the processes in the numerically lowest level, in FIFO order.
func (l *levels) best() []*model.Process {
	if len(l.keys) == 0 {
		return nil
	}
	return l.byKey[l.keys[0]].snapshot()
}

// all returns every ready process, lowest level first, FIFO within a level.
func (l *levels) all() []*model.Process {
	out := make([]*model.Process, 0, l.count)
	for _, k := range l.keys {
		out = append(out, l.byKey[k].items...)
	}
	return out
}

func (l *levels) len() int { return l.count }

// age lowers the dynamic priority of every ready process by step and re-files
// each one under its new level. Values are floored at 1 but never raised.
func (l *levels) age(step int) {
	if step <= 0 || l.count == 0 {
		return
	}
	ready := l.all()
	l.keys = l.keys[:0]
	l.byKey = make(map[int]*fifo)
	l.count = 0
	for _, p := range ready {
		p.DynamicPriority = agedPriority(p.DynamicPriority, step)
		l.push(p)
	}
}

func agedPriority(current, step int) int {
	next := current - step
	if next < 1 {
		next = 1
	}
	if next > current {
		return current
	}
	return next
}
