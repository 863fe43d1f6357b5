// Package parser reads process descriptors from text or YAML input.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/me/schedsim/pkg/model"
	"gopkg.in/yaml.v3"
)

// Parser converts raw input into process descriptors.
type Parser struct {
	logger *slog.Logger
}

// New creates a Parser with the given logger.
func New(logger *slog.Logger) *Parser {
	return &Parser{logger: logger.With("component", "parser")}
}

// Parse reads one process per line as whitespace-separated
// "arrival burst priority" integers. Blank lines, lines starting with '#',
// and malformed lines are skipped. Accepted lines are named P1, P2, ... in
// order. It returns model.ErrEmptyInput when no line is accepted.
func (p *Parser) Parse(r io.Reader) ([]model.Descriptor, error) {
	var out []model.Descriptor
	skipped := 0

	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		d, err := parseLine(line)
		if err != nil {
			skipped++
			p.logger.Debug("skipping process line", "line", n, "error", err)
			continue
		}
		d.ID = fmt.Sprintf("P%d", len(out)+1)
		out = append(out, d)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read processes: %w", err)
	}

	p.logger.Debug("processes parsed", "accepted", len(out), "skipped", skipped)
	if len(out) == 0 {
		return nil, model.ErrEmptyInput
	}
	return out, nil
}

func parseLine(line string) (model.Descriptor, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return model.Descriptor{}, fmt.Errorf("want 3 fields, got %d", len(fields))
	}
	var vals [3]int
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return model.Descriptor{}, fmt.Errorf("field %d: %q is not an integer", i+1, f)
		}
		vals[i] = v
	}
	d := model.Descriptor{Arrival: vals[0], Burst: vals[1], Priority: vals[2]}
	return d, checkDescriptor(d)
}

func checkDescriptor(d model.Descriptor) error {
	if d.Arrival < 0 {
		return fmt.Errorf("arrival %d < 0", d.Arrival)
	}
	if d.Burst <= 0 {
		return fmt.Errorf("burst %d <= 0", d.Burst)
	}
	return nil
}

// yamlProcess is one entry of a YAML process list. ID is optional.
type yamlProcess struct {
	ID       string `yaml:"id"`
	Arrival  *int   `yaml:"arrival"`
	Burst    *int   `yaml:"burst"`
	Priority int    `yaml:"priority"`
}

// ParseYAML reads either a bare list of processes or a mapping with a
// "processes" list. Entries missing arrival or burst, or with out-of-range
// values, are skipped like malformed text lines. Entries without an id get
// the next free P<n> name.
func (p *Parser) ParseYAML(data []byte) ([]model.Descriptor, error) {
	var list []yamlProcess
	if err := yaml.Unmarshal(data, &list); err != nil {
		var doc struct {
			Processes []yamlProcess `yaml:"processes"`
		}
		if err2 := yaml.Unmarshal(data, &doc); err2 != nil {
			return nil, fmt.Errorf("YAML parse error: %w", err2)
		}
		list = doc.Processes
	}

	used := make(map[string]bool)
	for _, yp := range list {
		if yp.ID != "" {
			used[yp.ID] = true
		}
	}

	var out []model.Descriptor
	next := 1
	for i, yp := range list {
		if yp.Arrival == nil || yp.Burst == nil {
			p.logger.Debug("skipping process entry", "index", i, "error", "arrival and burst are required")
			continue
		}
		d := model.Descriptor{ID: yp.ID, Arrival: *yp.Arrival, Burst: *yp.Burst, Priority: yp.Priority}
		if err := checkDescriptor(d); err != nil {
			p.logger.Debug("skipping process entry", "index", i, "error", err)
			continue
		}
		if d.ID == "" {
			for used[fmt.Sprintf("P%d", next)] {
				next++
			}
			d.ID = fmt.Sprintf("P%d", next)
			used[d.ID] = true
		}
		out = append(out, d)
	}

	p.logger.Debug("processes parsed", "accepted", len(out), "skipped", len(list)-len(out))
	if len(out) == 0 {
		return nil, model.ErrEmptyInput
	}
	return out, nil
}

// ParseFile dispatches on the file name: .yaml and .yml go through
// ParseYAML, anything else through Parse.
func (p *Parser) ParseFile(name string, r io.Reader) ([]model.Descriptor, error) {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return p.ParseYAML(data)
	}
	return p.Parse(r)
}
