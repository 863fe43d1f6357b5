package ui

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all UI routes on the given router.
func (ui *UI) RegisterRoutes(r chi.Router) {
	r.Get("/", ui.HandleSimulationList)
	r.Route("/simulations/{id}", func(r chi.Router) {
		r.Get("/", ui.HandleSimulationDetail)
		r.Post("/delete", ui.HandleSimulationDelete)
	})
}
