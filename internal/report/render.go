package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/me/schedsim/pkg/model"
)

const rule = "================================================================================"

// RenderText writes the human-readable report for one policy.
func RenderText(w io.Writer, r PolicyReport) error {
	tw := &textWriter{w: w}
	tw.println(rule)
	tw.printf("%s (%s)\n", r.Name, r.Policy)
	tw.println(rule)

	if r.Failed() {
		tw.printf("run failed: %s\n\n", r.Error)
		return tw.err
	}

	m := r.Metrics
	tw.printf("Average turnaround time: %.2f\n", m.AvgTurnaround)
	tw.printf("Average waiting time:    %.2f\n", m.AvgWaiting)
	tw.printf("Context switches:        %d\n\n", m.ContextSwitches)

	if res := r.Result(); res != nil && len(res.Timeline) > 0 {
		tw.println("Timeline:")
		writeGrid(tw, res)
		tw.println()
		tw.println("Gantt:")
		writeGantt(tw, r.Segments)
		tw.println()
	}
	if tw.err != nil {
		return tw.err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Arrival", "Burst", "Priority", "Start", "Finish", "Turnaround", "Waiting"})
	for _, p := range m.Processes {
		table.Append([]string{
			p.ID,
			fmt.Sprint(p.Arrival),
			fmt.Sprint(p.Burst),
			fmt.Sprint(p.Priority),
			fmt.Sprint(p.Start),
			fmt.Sprint(p.Finish),
			fmt.Sprint(p.Turnaround),
			fmt.Sprint(p.Waiting),
		})
	}
	table.SetFooter([]string{"", "", "", "", "", "Average",
		fmt.Sprintf("%.2f", m.AvgTurnaround),
		fmt.Sprintf("%.2f", m.AvgWaiting),
	})
	table.Render()

	tw.printf("Utilization %.1f%%, throughput %.2f/tick\n\n", 100*m.Utilization, m.Throughput)
	return tw.err
}

// RenderComparison writes one summary row per policy.
func RenderComparison(w io.Writer, reports []PolicyReport) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Policy", "Avg Turnaround", "Avg Waiting", "Avg Response", "Switches", "Ticks", "Status"})
	for _, r := range reports {
		if r.Failed() {
			table.Append([]string{string(r.Policy), "-", "-", "-", "-", "-", "failed"})
			continue
		}
		m := r.Metrics
		table.Append([]string{
			string(r.Policy),
			fmt.Sprintf("%.2f", m.AvgTurnaround),
			fmt.Sprintf("%.2f", m.AvgWaiting),
			fmt.Sprintf("%.2f", m.AvgResponse),
			fmt.Sprint(m.ContextSwitches),
			fmt.Sprint(m.TotalTicks),
			"ok",
		})
	}
	table.Render()
}

// RenderJSON writes the reports as an indented JSON array.
func RenderJSON(w io.Writer, reports []PolicyReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}

// writeGrid prints one row per tick with "##" under the running process and
// "--" under every other column.
func writeGrid(tw *textWriter, res *model.Result) {
	width := 4
	for _, p := range res.Processes {
		width = max(width, len(p.ID)+1)
	}
	label := len(fmt.Sprintf("%d-%d", res.Timeline.Len()-1, res.Timeline.Len())) + 1
	label = max(label, len("time")+1)

	var b strings.Builder
	b.WriteString(pad("time", label))
	for _, p := range res.Processes {
		b.WriteString(pad(p.ID, width))
	}
	tw.println(strings.TrimRight(b.String(), " "))

	for _, s := range res.Timeline {
		b.Reset()
		b.WriteString(pad(fmt.Sprintf("%d-%d", s.Start, s.End), label))
		for _, p := range res.Processes {
			cell := "--"
			if s.ProcessID == p.ID {
				cell = "##"
			}
			b.WriteString(pad(cell, width))
		}
		tw.println(strings.TrimRight(b.String(), " "))
	}
}

// writeGantt prints a bar of segments followed by their boundary ticks.
func writeGantt(tw *textWriter, segs []Segment) {
	var bar, ticks strings.Builder
	bar.WriteString("|")
	for _, s := range segs {
		id := s.ProcessID
		if s.Idle() {
			id = "idle"
		}
		cell := center(id, 8)
		bar.WriteString(cell)
		bar.WriteString("|")
		ticks.WriteString(pad(fmt.Sprint(s.Start), len(cell)+1))
	}
	if n := len(segs); n > 0 {
		ticks.WriteString(fmt.Sprint(segs[n-1].End))
	}
	tw.println(bar.String())
	tw.println(ticks.String())
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s + " "
	}
	return s + strings.Repeat(" ", width-len(s))
}

func center(s string, width int) string {
	if len(s) >= width {
		return " " + s + " "
	}
	left := (width - len(s)) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-len(s)-left)
}

// textWriter remembers the first write error so rendering code can stay linear.
type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err == nil {
		_, t.err = fmt.Fprintf(t.w, format, args...)
	}
}

func (t *textWriter) println(args ...any) {
	if t.err == nil {
		_, t.err = fmt.Fprintln(t.w, args...)
	}
}
