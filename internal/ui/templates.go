package ui

import (
	"fmt"
	"hash/fnv"
	"html/template"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/me/schedsim/internal/report"
)

var processPalette = []string{
	"bg-blue-400", "bg-green-400", "bg-amber-400", "bg-purple-400",
	"bg-pink-400", "bg-teal-400", "bg-orange-400", "bg-indigo-400",
}

// Template functions available in all templates.
var templateFuncs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("2006-01-02 15:04:05")
	},
	"formatFloat": func(f float64) string {
		return fmt.Sprintf("%.2f", f)
	},
	"processColor": func(id string) string {
		if id == "" {
			return "bg-gray-200"
		}
		h := fnv.New32a()
		h.Write([]byte(id))
		return processPalette[h.Sum32()%uint32(len(processPalette))]
	},
	"segmentWidth": func(s report.Segment, ticks int) string {
		if ticks <= 0 {
			return "0"
		}
		return fmt.Sprintf("%.4f", 100*float64(s.End-s.Start)/float64(ticks))
	},
	"segmentLabel": func(s report.Segment) string {
		if s.Idle() {
			return "idle"
		}
		return s.ProcessID
	},
}

// renderTemplate renders a template inside the layout.
func renderTemplate(w io.Writer, name string, data map[string]any) error {
	content, ok := templates[name]
	if !ok {
		return fmt.Errorf("template not found: %s", name)
	}
	layout, ok := templates["layout"]
	if !ok {
		return fmt.Errorf("layout template not found")
	}

	tmpl, err := template.New("layout").Funcs(templateFuncs).Parse(layout)
	if err != nil {
		return fmt.Errorf("parse layout: %w", err)
	}
	if _, err := tmpl.New("content").Parse(content); err != nil {
		return fmt.Errorf("parse content: %w", err)
	}

	// Add shared components.
	for compName, compContent := range templates {
		if strings.HasPrefix(compName, "components/") {
			if _, err := tmpl.New(filepath.Base(compName)).Parse(compContent); err != nil {
				return fmt.Errorf("parse component %s: %w", compName, err)
			}
		}
	}

	return tmpl.Execute(w, data)
}

var templates = map[string]string{
	"layout": `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <script src="https://cdn.tailwindcss.com"></script>
</head>
<body class="bg-gray-50 text-gray-900">
    <nav class="bg-white shadow mb-6">
        <div class="max-w-6xl mx-auto px-4 py-3 flex items-center justify-between">
            <a href="{{.Prefix}}/" class="font-bold text-lg">schedsim</a>
            <a href="/api/v1/" class="text-sm text-gray-500 hover:text-gray-700">API</a>
        </div>
    </nav>
    <main class="max-w-6xl mx-auto px-4">
        {{template "content" .}}
    </main>
</body>
</html>`,

	"simulations": `<h1 class="text-2xl font-semibold mb-4">Simulations</h1>
{{if .Simulations}}
<table class="min-w-full bg-white shadow rounded">
    <thead class="bg-gray-100 text-left text-sm">
        <tr><th class="px-3 py-2">ID</th><th class="px-3 py-2">Name</th><th class="px-3 py-2">Quantum</th><th class="px-3 py-2">Aging</th><th class="px-3 py-2">Processes</th><th class="px-3 py-2">Created</th></tr>
    </thead>
    <tbody class="text-sm">
    {{range .Simulations}}
        <tr class="border-t">
            <td class="px-3 py-2 font-mono"><a class="text-blue-600 hover:underline" href="{{$.Prefix}}/simulations/{{.ID}}/">{{.ID}}</a></td>
            <td class="px-3 py-2">{{.Name}}</td>
            <td class="px-3 py-2">{{.Quantum}}</td>
            <td class="px-3 py-2">{{.Aging}}</td>
            <td class="px-3 py-2">{{len .Processes}}</td>
            <td class="px-3 py-2">{{formatTime .CreatedAt}}</td>
        </tr>
    {{end}}
    </tbody>
</table>
{{template "pagination" .}}
{{else}}
<p class="text-gray-500">No simulations found.</p>
{{end}}`,

	"simulation": `{{with .Simulation}}
<h1 class="text-2xl font-semibold mb-1 font-mono">{{.ID}}</h1>
{{if .Name}}<p class="text-gray-600 mb-2">{{.Name}}</p>{{end}}
<p class="text-sm text-gray-500 mb-4">quantum {{.Quantum}} &middot; aging {{.Aging}} &middot; seed {{.Seed}} &middot; {{formatTime .CreatedAt}}</p>
<table class="bg-white shadow rounded mb-6 text-sm">
    <thead class="bg-gray-100 text-left"><tr><th class="px-3 py-2">Process</th><th class="px-3 py-2">Arrival</th><th class="px-3 py-2">Burst</th><th class="px-3 py-2">Priority</th></tr></thead>
    <tbody>
    {{range .Processes}}
        <tr class="border-t"><td class="px-3 py-2">{{.ID}}</td><td class="px-3 py-2">{{.Arrival}}</td><td class="px-3 py-2">{{.Burst}}</td><td class="px-3 py-2">{{.Priority}}</td></tr>
    {{end}}
    </tbody>
</table>
{{end}}
{{range .Runs}}
<section class="bg-white shadow rounded p-4 mb-4">
    <h2 class="font-semibold">{{.Name}} <span class="text-gray-400 font-mono text-sm">{{.Run.Policy}}</span></h2>
    {{if .Run.Failed}}
    <p class="text-red-600 text-sm mt-2">run failed: {{.Run.Error}}</p>
    {{else}}
    <p class="text-sm text-gray-600 mt-1">avg turnaround {{formatFloat .Run.AvgTurnaround}} &middot; avg waiting {{formatFloat .Run.AvgWaiting}} &middot; avg response {{formatFloat .Run.AvgResponse}} &middot; {{.Run.ContextSwitches}} context switches</p>
    {{template "gantt" .}}
    {{end}}
</section>
{{end}}
<form method="post" action="{{.Prefix}}/simulations/{{.Simulation.ID}}/delete" class="mb-8">
    <button type="submit" class="text-sm text-red-600 hover:underline">Delete simulation</button>
</form>`,

	"error": `<h1 class="text-2xl font-semibold mb-2">Something went wrong</h1>
<p class="text-gray-600">{{.Message}}</p>
<p class="mt-4"><a class="text-blue-600 hover:underline" href="{{.Prefix}}/">Back to simulations</a></p>`,

	"components/gantt": `{{$ticks := .Ticks}}
<div class="flex w-full h-8 mt-3 rounded overflow-hidden border">
{{range .Segments}}<div class="{{processColor .ProcessID}} text-xs flex items-center justify-center border-r" style="width: {{segmentWidth . $ticks}}%" title="{{segmentLabel .}} [{{.Start}}, {{.End}})">{{segmentLabel .}}</div>{{end}}
</div>
<div class="flex justify-between text-xs text-gray-400 mt-1"><span>0</span><span>{{$ticks}}</span></div>`,

	"components/pagination": `{{with .Pagination}}
<div class="flex justify-between items-center text-sm mt-4">
    <span class="text-gray-500">{{.Total}} total</span>
    <span>
    {{if .HasPrev}}<a class="text-blue-600 hover:underline mr-4" href="?offset={{.PrevOffset}}&limit={{.Limit}}">Previous</a>{{end}}
    {{if .HasMore}}<a class="text-blue-600 hover:underline" href="?offset={{.NextOffset}}&limit={{.Limit}}">Next</a>{{end}}
    </span>
</div>
{{end}}`,
}
