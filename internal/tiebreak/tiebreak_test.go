package tiebreak

import (
	"testing"

	"github.com/me/schedsim/pkg/model"
)

func proc(id string, remaining int) *model.Process {
	p := model.NewProcess(0, model.Descriptor{ID: id, Burst: remaining})
	p.Remaining = remaining
	return p
}

// fixedSource always answers the same index, clamped to n.
type fixedSource int

func (f fixedSource) Intn(n int) int {
	if int(f) >= n {
		return n - 1
	}
	return int(f)
}

func member(ps []*model.Process, p *model.Process) bool {
	for _, q := range ps {
		if q == p {
			return true
		}
	}
	return false
}

func TestMinRemaining(t *testing.T) {
	a, b, c := proc("P1", 3), proc("P2", 1), proc("P3", 1)
	got := MinRemaining([]*model.Process{a, b, c})
	if len(got) != 2 || got[0] != b || got[1] != c {
		t.Errorf("MinRemaining = %v, want [P2 P3]", ids(got))
	}
	if MinRemaining(nil) != nil {
		t.Error("MinRemaining(nil) should be nil")
	}
}

func TestPreferIfTied(t *testing.T) {
	a, b, c := proc("P1", 2), proc("P2", 2), proc("P3", 5)
	src := NewSource(1)

	tests := []struct {
		name       string
		candidates []*model.Process
		preferred  *model.Process
		want       *model.Process
	}{
		{"preferred among minimal", []*model.Process{a, b, c}, b, b},
		{"preferred not minimal", []*model.Process{a, c}, c, a},
		{"single minimal", []*model.Process{c, a}, nil, a},
		{"empty", nil, a, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PreferIfTied(tt.candidates, tt.preferred, src); got != tt.want {
				t.Errorf("got %v, want %v", name(got), name(tt.want))
			}
		})
	}
}

func TestPreferIfTied_RandomIsMemberOfMinimalSet(t *testing.T) {
	a, b, c, d := proc("P1", 1), proc("P2", 1), proc("P3", 1), proc("P4", 4)
	candidates := []*model.Process{a, b, c, d}
	minimal := []*model.Process{a, b, c}
	src := NewSource(42)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		got := PreferIfTied(candidates, d, src)
		if !member(minimal, got) {
			t.Fatalf("iteration %d: %s is not in the minimal set", i, got.ID)
		}
		seen[got.ID] = true
	}
	if len(seen) < 2 {
		t.Errorf("random choice never varied: %v", seen)
	}
}

func TestPreferIfTied_InjectedSource(t *testing.T) {
	a, b, c := proc("P1", 1), proc("P2", 1), proc("P3", 1)
	if got := PreferIfTied([]*model.Process{a, b, c}, nil, fixedSource(2)); got != c {
		t.Errorf("got %s, want P3", name(got))
	}
}

func TestPreferAlways(t *testing.T) {
	a, b, c := proc("P1", 4), proc("P2", 1), proc("P3", 2)
	src := NewSource(7)

	if got := PreferAlways([]*model.Process{a, b, c}, a, src); got != a {
		t.Errorf("preferred present: got %s, want P1", name(got))
	}
	if got := PreferAlways([]*model.Process{a, b, c}, proc("PX", 0), src); got != b {
		t.Errorf("preferred absent: got %s, want P2", name(got))
	}
	if got := PreferAlways([]*model.Process{a, c}, nil, src); got != c {
		t.Errorf("no preferred: got %s, want P3", name(got))
	}
	if got := PreferAlways(nil, a, src); got != nil {
		t.Errorf("empty: got %s, want nil", name(got))
	}
}

func TestPreferAlways_FallbackRandom(t *testing.T) {
	a, b := proc("P1", 3), proc("P2", 3)
	got := PreferAlways([]*model.Process{a, b}, nil, fixedSource(1))
	if got != b {
		t.Errorf("got %s, want P2", name(got))
	}
}

func TestNilSourceChoosesFirst(t *testing.T) {
	a, b := proc("P1", 3), proc("P2", 3)
	if got := PreferIfTied([]*model.Process{a, b}, nil, nil); got != a {
		t.Errorf("got %s, want P1", name(got))
	}
}

func name(p *model.Process) string {
	if p == nil {
		return "<nil>"
	}
	return p.ID
}

func ids(ps []*model.Process) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}
