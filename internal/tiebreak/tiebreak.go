// Package tiebreak picks one process among candidates that a policy considers
// equally eligible.
package tiebreak

import (
	"math/rand"

	"github.com/me/schedsim/pkg/model"
)

// Source supplies the random choice among equally minimal candidates.
// *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

// NewSource returns a Source seeded with seed.
func NewSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// MinRemaining returns the candidates holding the smallest Remaining value,
// in the order they were given.
func MinRemaining(candidates []*model.Process) []*model.Process {
	if len(candidates) == 0 {
		return nil
	}
	min := candidates[0].Remaining
	for _, p := range candidates[1:] {
		if p.Remaining < min {
			min = p.Remaining
		}
	}
	tied := make([]*model.Process, 0, len(candidates))
	for _, p := range candidates {
		if p.Remaining == min {
			tied = append(tied, p)
		}
	}
	return tied
}

// PreferIfTied restricts the candidates to those with minimal Remaining. The
// preferred process wins if it is among them; otherwise one of them is chosen
// at random.
func PreferIfTied(candidates []*model.Process, preferred *model.Process, src Source) *model.Process {
	tied := MinRemaining(candidates)
	if len(tied) == 0 {
		return nil
	}
	if preferred != nil && contains(tied, preferred) {
		return preferred
	}
	return pick(tied, src)
}

// PreferAlways returns the preferred process whenever it is a candidate,
// regardless of its Remaining. Otherwise it falls back to a random choice among
// the candidates with minimal Remaining.
func PreferAlways(candidates []*model.Process, preferred *model.Process, src Source) *model.Process {
	if len(candidates) == 0 {
		return nil
	}
	if preferred != nil && contains(candidates, preferred) {
		return preferred
	}
	return pick(MinRemaining(candidates), src)
}

func pick(tied []*model.Process, src Source) *model.Process {
	if len(tied) == 1 || src == nil {
		return tied[0]
	}
	return tied[src.Intn(len(tied))]
}

func contains(ps []*model.Process, target *model.Process) bool {
	for _, p := range ps {
		if p == target {
			return true
		}
	}
	return false
}
