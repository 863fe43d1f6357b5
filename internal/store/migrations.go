package store

import (
	"context"
	"database/sql"
	"strings"
)

// schema contains the DDL for all schedsim tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS simulations (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL DEFAULT '',
		quantum    INTEGER NOT NULL,
		aging      INTEGER NOT NULL,
		seed       INTEGER NOT NULL,
		processes  TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS policy_runs (
		simulation_id    TEXT NOT NULL REFERENCES simulations(id) ON DELETE CASCADE,
		ordinal          INTEGER NOT NULL,
		policy           TEXT NOT NULL,
		timeline         TEXT NOT NULL DEFAULT '[]',
		context_switches INTEGER NOT NULL DEFAULT 0,
		avg_turnaround   REAL NOT NULL DEFAULT 0,
		avg_waiting      REAL NOT NULL DEFAULT 0,
		error            TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (simulation_id, policy)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_simulations_created_at ON simulations(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_policy_runs_policy ON policy_runs(policy)`,
}

// alterStatements are column additions that need special handling since
// SQLite doesn't support IF NOT EXISTS for ALTER TABLE ADD COLUMN.
var alterStatements = []struct {
	table    string
	column   string
	alterSQL string
	indexSQL string // Optional index to create after column is added
}{
	{
		table:    "policy_runs",
		column:   "avg_response",
		alterSQL: "ALTER TABLE policy_runs ADD COLUMN avg_response REAL NOT NULL DEFAULT 0",
	},
}

// migrate executes all schema DDL statements and alter migrations.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	for _, alter := range alterStatements {
		if err := addColumnIfNotExists(ctx, db, alter.table, alter.column, alter.alterSQL); err != nil {
			return err
		}
		if alter.indexSQL != "" {
			if _, err := db.ExecContext(ctx, alter.indexSQL); err != nil {
				return err
			}
		}
	}
	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(ctx context.Context, db *sql.DB, table, column, alterSQL string) error {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+table+")")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue *string
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return err
		}
		if strings.EqualFold(name, column) {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	_, err = db.ExecContext(ctx, alterSQL)
	return err
}
