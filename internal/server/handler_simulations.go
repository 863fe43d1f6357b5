package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/me/schedsim/internal/report"
	"github.com/me/schedsim/internal/runner"
	"github.com/me/schedsim/internal/scheduler"
	"github.com/me/schedsim/pkg/model"
)

// simulationResponse is returned by POST /simulations.
type simulationResponse struct {
	ID        string                `json:"id"`
	Name      string                `json:"name,omitempty"`
	Quantum   int                   `json:"quantum"`
	Aging     int                   `json:"aging"`
	Seed      int64                 `json:"seed"`
	Persisted bool                  `json:"persisted"`
	Processes []model.Descriptor    `json:"processes"`
	Results   []report.PolicyReport `json:"results"`
}

func (s *Server) handleCreateSimulation(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req model.SimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("invalid JSON: "+err.Error()))
		return
	}
	if len(req.Processes) == 0 {
		respondErr(w, reqID, model.ErrEmptyInput)
		return
	}
	for i := range req.Processes {
		if req.Processes[i].ID == "" {
			req.Processes[i].ID = fmt.Sprintf("P%d", i+1)
		}
	}

	policies, err := model.ParsePolicies(req.Policies)
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("invalid policies",
			model.FieldError{Field: "policies", Message: err.Error()}))
		return
	}

	persist := s.store != nil
	if v := r.URL.Query().Get("persist"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("invalid persist: "+v))
			return
		}
		persist = persist && b
	}

	run := s.newRunner(req)
	outcomes, err := run.RunAll(r.Context(), policies, req.Processes)
	if err != nil {
		respondErr(w, reqID, err)
		return
	}
	reports := runner.Reports(outcomes)
	sim := run.Record(req.Name, req.Processes, reports)

	if persist {
		if err := s.store.CreateSimulation(r.Context(), sim); err != nil {
			respondErr(w, reqID, err)
			return
		}
	}

	s.logger.Info("simulation complete",
		"simulation_id", sim.ID,
		"processes", len(sim.Processes),
		"policies", len(policies),
		"persisted", persist,
	)
	respondCreated(w, reqID, simulationResponse{
		ID:        sim.ID,
		Name:      sim.Name,
		Quantum:   sim.Quantum,
		Aging:     sim.Aging,
		Seed:      sim.Seed,
		Persisted: persist,
		Processes: sim.Processes,
		Results:   reports,
	})
}

// newRunner resolves the request parameters against the server defaults.
func (s *Server) newRunner(req model.SimulationRequest) *runner.Runner {
	cfg := scheduler.Config{Quantum: s.defaults.Quantum, Aging: s.defaults.Aging}
	if req.Quantum != nil {
		cfg.Quantum = *req.Quantum
	}
	if req.Aging != nil {
		cfg.Aging = *req.Aging
	}

	opts := []runner.Option{runner.WithParallel(s.parallel)}
	switch {
	case req.Seed != nil:
		opts = append(opts, runner.WithSeed(*req.Seed))
	case s.defaults.SeedSet:
		opts = append(opts, runner.WithSeed(s.defaults.Seed))
	}
	return runner.New(cfg, s.logger, opts...)
}

func (s *Server) handleListSimulations(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if !s.requireStore(w, reqID) {
		return
	}

	opts := model.DefaultListOptions()
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Offset = n
		}
	}
	opts.Clamp()

	sims, total, err := s.store.ListSimulations(r.Context(), opts)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, &model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}
	if sims == nil {
		sims = []*model.Simulation{}
	}

	respondList(w, reqID, sims, &model.Pagination{
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		HasMore: opts.Offset+opts.Limit < total,
	})
}

func (s *Server) handleGetSimulation(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if !s.requireStore(w, reqID) {
		return
	}
	id := chi.URLParam(r, "id")

	sim, err := s.store.GetSimulation(r.Context(), id)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, &model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}
	if sim == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("simulation", id))
		return
	}
	respondOK(w, reqID, sim)
}

func (s *Server) handleDeleteSimulation(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if !s.requireStore(w, reqID) {
		return
	}
	id := chi.URLParam(r, "id")

	sim, err := s.store.GetSimulation(r.Context(), id)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, &model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}
	if sim == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("simulation", id))
		return
	}
	if err := s.store.DeleteSimulation(r.Context(), id); err != nil {
		respondError(w, reqID, http.StatusInternalServerError, &model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}

	s.logger.Info("simulation deleted", "simulation_id", id)
	respondOK(w, reqID, map[string]string{"id": id, "status": "deleted"})
}

// requireStore answers 503 when history is disabled.
func (s *Server) requireStore(w http.ResponseWriter, reqID string) bool {
	if s.store != nil {
		return true
	}
	respondError(w, reqID, http.StatusServiceUnavailable, &model.APIError{
		Code:    model.ErrInternal,
		Message: "simulation history is disabled",
	})
	return false
}
