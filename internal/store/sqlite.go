package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/schedsim/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// Every connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// --- Simulations ---

func (s *SQLiteStore) CreateSimulation(ctx context.Context, sim *model.Simulation) error {
	s.logger.Debug("sql", "op", "insert", "table", "simulations", "id", sim.ID, "runs", len(sim.Runs))

	procsJSON, err := json.Marshal(sim.Processes)
	if err != nil {
		return fmt.Errorf("marshal processes: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO simulations (id, name, quantum, aging, seed, processes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sim.ID, sim.Name, sim.Quantum, sim.Aging, sim.Seed, string(procsJSON),
		sim.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert simulation: %w", err)
	}

	for i, run := range sim.Runs {
		timeline := run.Timeline
		if timeline == nil {
			timeline = model.Timeline{}
		}
		tlJSON, err := json.Marshal(timeline)
		if err != nil {
			return fmt.Errorf("marshal timeline: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO policy_runs (simulation_id, ordinal, policy, timeline, context_switches,
			 avg_turnaround, avg_waiting, avg_response, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sim.ID, i, string(run.Policy), string(tlJSON), run.ContextSwitches,
			run.AvgTurnaround, run.AvgWaiting, run.AvgResponse, run.Error,
		)
		if err != nil {
			return fmt.Errorf("insert run %s: %w", run.Policy, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetSimulation(ctx context.Context, id string) (*model.Simulation, error) {
	s.logger.Debug("sql", "op", "select", "table", "simulations", "id", id)

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, quantum, aging, seed, processes, created_at
		 FROM simulations WHERE id = ?`, id)
	sim, err := scanSimulation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	runs, err := s.listRuns(ctx, id)
	if err != nil {
		return nil, err
	}
	sim.Runs = runs
	return sim, nil
}

func (s *SQLiteStore) listRuns(ctx context.Context, simulationID string) ([]*model.PolicyRun, error) {
	s.logger.Debug("sql", "op", "select", "table", "policy_runs", "simulation_id", simulationID)

	rows, err := s.db.QueryContext(ctx,
		`SELECT simulation_id, policy, timeline, context_switches, avg_turnaround, avg_waiting, avg_response, error
		 FROM policy_runs WHERE simulation_id = ? ORDER BY ordinal`, simulationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*model.PolicyRun
	for rows.Next() {
		var run model.PolicyRun
		var policy, tlJSON string
		if err := rows.Scan(&run.SimulationID, &policy, &tlJSON, &run.ContextSwitches,
			&run.AvgTurnaround, &run.AvgWaiting, &run.AvgResponse, &run.Error); err != nil {
			return nil, err
		}
		run.Policy = model.Policy(policy)
		if err := json.Unmarshal([]byte(tlJSON), &run.Timeline); err != nil {
			return nil, fmt.Errorf("unmarshal timeline: %w", err)
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) ListSimulations(ctx context.Context, opts model.ListOptions) ([]*model.Simulation, int, error) {
	s.logger.Debug("sql", "op", "list", "table", "simulations", "limit", opts.Limit, "offset", opts.Offset)
	opts.Clamp()

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM simulations`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, quantum, aging, seed, processes, created_at
		 FROM simulations ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var sims []*model.Simulation
	for rows.Next() {
		sim, err := scanSimulation(rows)
		if err != nil {
			return nil, 0, err
		}
		sims = append(sims, sim)
	}
	return sims, total, rows.Err()
}

func (s *SQLiteStore) DeleteSimulation(ctx context.Context, id string) error {
	s.logger.Debug("sql", "op", "delete", "table", "simulations", "id", id)
	_, err := s.db.ExecContext(ctx, `DELETE FROM simulations WHERE id = ?`, id)
	return err
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSimulation(sc scanner) (*model.Simulation, error) {
	var sim model.Simulation
	var procsJSON, createdAt string
	if err := sc.Scan(&sim.ID, &sim.Name, &sim.Quantum, &sim.Aging, &sim.Seed, &procsJSON, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(procsJSON), &sim.Processes); err != nil {
		return nil, fmt.Errorf("unmarshal processes: %w", err)
	}
	sim.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &sim, nil
}
