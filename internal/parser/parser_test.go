package parser

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/me/schedsim/pkg/model"
)

func testParser() *Parser {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestParse(t *testing.T) {
	input := `0 5 1
1 3 2

# comment
2 1 3
`
	got, err := testParser().Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []model.Descriptor{
		{ID: "P1", Arrival: 0, Burst: 5, Priority: 1},
		{ID: "P2", Arrival: 1, Burst: 3, Priority: 2},
		{ID: "P3", Arrival: 2, Burst: 1, Priority: 3},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d descriptors, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("descriptor %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParse_SkipsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		"0 4 1",
		"1 2",       // too few fields
		"1 2 3 4",   // too many fields
		"a 2 3",     // not an integer
		"-1 2 3",    // negative arrival
		"3 0 1",     // zero burst
		"  2\t3  5", // extra whitespace is fine
	}, "\n")
	got, err := testParser().Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d descriptors, want 2: %+v", len(got), got)
	}
	if got[1] != (model.Descriptor{ID: "P2", Arrival: 2, Burst: 3, Priority: 5}) {
		t.Errorf("second descriptor = %+v", got[1])
	}
}

func TestParse_Empty(t *testing.T) {
	for _, input := range []string{"", "\n\n", "x y z\n1 2\n"} {
		_, err := testParser().Parse(strings.NewReader(input))
		if !errors.Is(err, model.ErrEmptyInput) {
			t.Errorf("Parse(%q) err = %v, want ErrEmptyInput", input, err)
		}
	}
}

func TestParseYAML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			"bare list",
			"- {arrival: 0, burst: 2, priority: 1}\n- {arrival: 1, burst: 1}\n",
			[]string{"P1", "P2"},
		},
		{
			"processes key",
			"processes:\n  - id: A\n    arrival: 0\n    burst: 3\n  - arrival: 2\n    burst: 1\n",
			[]string{"A", "P1"},
		},
		{
			"generated ids avoid explicit ones",
			"- {arrival: 0, burst: 1}\n- {id: P1, arrival: 0, burst: 1}\n",
			[]string{"P2", "P1"},
		},
		{
			"invalid entries skipped",
			"- {arrival: 0}\n- {arrival: 0, burst: 0}\n- {arrival: 3, burst: 2}\n",
			[]string{"P1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := testParser().ParseYAML([]byte(tt.input))
			if err != nil {
				t.Fatalf("ParseYAML: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %+v, want ids %v", got, tt.want)
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("descriptor %d id = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestParseYAML_Errors(t *testing.T) {
	if _, err := testParser().ParseYAML([]byte("processes: [")); err == nil || errors.Is(err, model.ErrEmptyInput) {
		t.Errorf("broken YAML err = %v, want parse error", err)
	}
	if _, err := testParser().ParseYAML([]byte("processes: []\n")); !errors.Is(err, model.ErrEmptyInput) {
		t.Errorf("empty list err = %v, want ErrEmptyInput", err)
	}
}

func TestParseFile_DispatchesOnExtension(t *testing.T) {
	p := testParser()
	got, err := p.ParseFile("procs.YML", strings.NewReader("- {arrival: 0, burst: 4, priority: 2}\n"))
	if err != nil || len(got) != 1 || got[0].Burst != 4 {
		t.Errorf("yaml file: got %+v, err %v", got, err)
	}
	got, err = p.ParseFile("procs.txt", strings.NewReader("0 4 2\n"))
	if err != nil || len(got) != 1 || got[0].Priority != 2 {
		t.Errorf("text file: got %+v, err %v", got, err)
	}
}
