// Package ui serves a small HTML view over the simulation history.
package ui

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/me/schedsim/internal/report"
	"github.com/me/schedsim/internal/store"
	"github.com/me/schedsim/pkg/model"
)

// UI handles the web user interface.
type UI struct {
	store  store.Store
	logger *slog.Logger
	prefix string
}

// New creates a UI handler. prefix is the path the routes are mounted under.
func New(st store.Store, logger *slog.Logger, prefix string) *UI {
	return &UI{
		store:  st,
		logger: logger.With("component", "ui"),
		prefix: prefix,
	}
}

// runView is one policy run prepared for the detail page.
type runView struct {
	Run      *model.PolicyRun
	Name     string
	Segments []report.Segment
	Ticks    int
}

// HandleSimulationList renders the paginated history.
func (ui *UI) HandleSimulationList(w http.ResponseWriter, r *http.Request) {
	opts := ui.parseListOptions(r)
	sims, total, err := ui.store.ListSimulations(r.Context(), opts)
	if err != nil {
		ui.renderError(w, "Failed to list simulations", err)
		return
	}

	ui.render(w, http.StatusOK, "simulations", map[string]any{
		"Title":       "Simulations - schedsim",
		"Prefix":      ui.prefix,
		"Simulations": sims,
		"Pagination":  ui.buildPagination(opts, total),
	})
}

// HandleSimulationDetail renders one simulation with a Gantt bar per policy.
func (ui *UI) HandleSimulationDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sim, err := ui.store.GetSimulation(r.Context(), id)
	if err != nil {
		ui.renderError(w, "Failed to load simulation", err)
		return
	}
	if sim == nil {
		ui.renderNotFound(w, "Simulation "+id+" not found")
		return
	}

	runs := make([]runView, 0, len(sim.Runs))
	for _, run := range sim.Runs {
		runs = append(runs, runView{
			Run:      run,
			Name:     run.Policy.Name(),
			Segments: report.Segments(run.Timeline),
			Ticks:    run.Timeline.Len(),
		})
	}

	ui.render(w, http.StatusOK, "simulation", map[string]any{
		"Title":      sim.ID + " - schedsim",
		"Prefix":     ui.prefix,
		"Simulation": sim,
		"Runs":       runs,
	})
}

// HandleSimulationDelete removes a simulation and returns to the list.
func (ui *UI) HandleSimulationDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := ui.store.DeleteSimulation(r.Context(), id); err != nil {
		ui.renderError(w, "Failed to delete simulation", err)
		return
	}
	ui.logger.Info("simulation deleted", "simulation_id", id)
	http.Redirect(w, r, ui.prefix+"/", http.StatusSeeOther)
}

func (ui *UI) parseListOptions(r *http.Request) model.ListOptions {
	opts := model.DefaultListOptions()

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			opts.Limit = n
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil {
			opts.Offset = n
		}
	}

	opts.Clamp()
	return opts
}

func (ui *UI) buildPagination(opts model.ListOptions, total int) map[string]any {
	return map[string]any{
		"Total":      total,
		"Limit":      opts.Limit,
		"Offset":     opts.Offset,
		"HasMore":    opts.Offset+opts.Limit < total,
		"HasPrev":    opts.Offset > 0,
		"NextOffset": opts.Offset + opts.Limit,
		"PrevOffset": max(0, opts.Offset-opts.Limit),
	}
}

func (ui *UI) render(w http.ResponseWriter, status int, template string, data map[string]any) {
	var buf bytes.Buffer
	if err := renderTemplate(&buf, template, data); err != nil {
		ui.logger.Error("template render failed", "template", template, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (ui *UI) renderError(w http.ResponseWriter, message string, err error) {
	ui.logger.Error(message, "error", err)
	ui.render(w, http.StatusInternalServerError, "error", map[string]any{
		"Title":   "Error - schedsim",
		"Prefix":  ui.prefix,
		"Message": message,
	})
}

func (ui *UI) renderNotFound(w http.ResponseWriter, message string) {
	ui.render(w, http.StatusNotFound, "error", map[string]any{
		"Title":   "Not Found - schedsim",
		"Prefix":  ui.prefix,
		"Message": message,
	})
}
