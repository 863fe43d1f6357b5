package store

import (
	"context"

	"github.com/me/schedsim/pkg/model"
)

// Store persists simulation history.
type Store interface {
	// CreateSimulation stores sim and all of its policy runs atomically.
	CreateSimulation(ctx context.Context, sim *model.Simulation) error
	// GetSimulation returns the simulation with its runs, or nil if absent.
	GetSimulation(ctx context.Context, id string) (*model.Simulation, error)
	// ListSimulations returns a page of simulations, newest first, without
	// their runs, plus the total count.
	ListSimulations(ctx context.Context, opts model.ListOptions) ([]*model.Simulation, int, error)
	// DeleteSimulation removes a simulation and its runs. Deleting an
	// unknown id is not an error.
	DeleteSimulation(ctx context.Context, id string) error

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
