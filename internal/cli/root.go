// Package cli implements the schedsim command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/me/schedsim/internal/logging"
	"github.com/me/schedsim/internal/store"
)

var (
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string
	flagConfig    string
	flagDB        string

	logger *slog.Logger
)

// defaultConfigPath returns the simulation config file, checking SCHEDSIM_CONFIG first.
func defaultConfigPath() string {
	if p := os.Getenv("SCHEDSIM_CONFIG"); p != "" {
		return p
	}
	return "./config"
}

// NewRootCmd creates the root cobra command for the schedsim CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "schedsim",
		Short: "schedsim: CPU scheduling simulator",
		Long: `schedsim replays a set of processes under classic CPU scheduling policies
(FCFS, SJF, SRTF, priority, round robin, round robin with aging) and reports
per-tick timelines, waiting and turnaround times, and context switches.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewLoggerWithWriter(logging.ResolveLevel(flagLogLevel, flagDebug), flagLogFormat, cmd.ErrOrStderr())
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging (per-tick decisions)")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")
	root.PersistentFlags().StringVar(&flagConfig, "config", defaultConfigPath(), "Simulation config file with quantum/aging/seed (or SCHEDSIM_CONFIG env)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "History database path (default ~/.schedsim/schedsim.db)")

	root.AddCommand(
		newRunCmd(),
		newPoliciesCmd(),
		newServeCmd(),
		newHistoryCmd(),
	)

	return root
}

// resolveDBPath returns --db, or ~/.schedsim/schedsim.db creating the directory.
func resolveDBPath() (string, error) {
	if flagDB != "" {
		return flagDB, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".schedsim")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create %s: %w", dir, err)
	}
	return filepath.Join(dir, "schedsim.db"), nil
}

// openStore opens and migrates the history database.
func openStore(ctx context.Context) (*store.SQLiteStore, error) {
	path, err := resolveDBPath()
	if err != nil {
		return nil, err
	}
	st, err := store.NewSQLiteStore(path, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	logger.Debug("database ready", "path", path)
	return st, nil
}
