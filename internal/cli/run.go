package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/schedsim/internal/config"
	"github.com/me/schedsim/internal/parser"
	"github.com/me/schedsim/internal/report"
	"github.com/me/schedsim/internal/runner"
	"github.com/me/schedsim/internal/scheduler"
	"github.com/me/schedsim/internal/server"
	"github.com/me/schedsim/internal/tracing"
	"github.com/me/schedsim/pkg/model"
)

type runOptions struct {
	input    string
	name     string
	policies []string
	quantum  int
	aging    int
	seed     int64
	parallel int
	format   string
	save     bool
	trace    string
	server   string
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate a process set under one or more policies",
		Long: `Reads process descriptors and runs them under each selected policy.

Plain input has one process per line, "arrival burst priority"; lines that do
not parse are skipped and the accepted ones are named P1, P2, ... in order.
Files ending in .yaml or .yml hold a list of {id, arrival, burst, priority}.`,
		Example: `  printf '0 5 1\n1 3 2\n2 1 3\n' | schedsim run
  schedsim run --input procs.yaml --policy srtf --policy rr --quantum 3
  schedsim run --input procs.txt --format json --save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadSimConfig(flagConfig, logger)
			flags := cmd.Flags()
			if flags.Changed("quantum") {
				cfg.Quantum = opts.quantum
			}
			if flags.Changed("aging") {
				cfg.Aging = opts.aging
			}
			if flags.Changed("seed") {
				cfg.Seed, cfg.SeedSet = opts.seed, true
			}
			if opts.format != "text" && opts.format != "json" {
				return fmt.Errorf("unknown format %q (want text or json)", opts.format)
			}

			policies, err := model.ParsePolicies(opts.policies)
			if err != nil {
				return err
			}

			descriptors, err := readDescriptors(cmd, opts.input)
			if errors.Is(err, model.ErrEmptyInput) {
				fmt.Fprintln(cmd.ErrOrStderr(), "No valid processes in input; nothing to simulate.")
				return err
			}
			if err != nil {
				return err
			}

			logger.Info("configuration", "quantum", cfg.Quantum, "aging", cfg.Aging, "policies", len(policies))
			for _, d := range descriptors {
				logger.Info("process", "id", d.ID, "arrival", d.Arrival, "burst", d.Burst, "priority", d.Priority)
			}

			var reports []report.PolicyReport
			if opts.server != "" {
				reports, err = runRemote(cmd.Context(), opts, cfg, policies, descriptors)
			} else {
				reports, err = runLocal(cmd, opts, cfg, policies, descriptors)
			}
			if err != nil {
				return err
			}

			if err := render(cmd.OutOrStdout(), opts.format, reports); err != nil {
				return err
			}
			return failures(reports)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "Process file (default stdin, - for stdin)")
	f.StringVar(&opts.name, "name", "", "Name recorded with a saved simulation")
	f.StringArrayVarP(&opts.policies, "policy", "p", nil, "Policy to run (repeatable; default all)")
	f.IntVarP(&opts.quantum, "quantum", "q", 2, "Round-robin quantum (overrides config)")
	f.IntVar(&opts.aging, "aging", 0, "Aging step for rr-priority-aging (overrides config)")
	f.Int64Var(&opts.seed, "seed", 0, "Tie-break seed (overrides config; default from the clock)")
	f.IntVar(&opts.parallel, "parallel", 1, "Number of policies to run concurrently")
	f.StringVarP(&opts.format, "format", "o", "text", "Output format (text, json)")
	f.BoolVar(&opts.save, "save", false, "Store the simulation in the history database")
	f.StringVar(&opts.trace, "trace", "", "Write OpenTelemetry spans as JSON to this file")
	f.StringVar(&opts.server, "server", "", "Run on a remote schedsim server instead of locally")

	return cmd
}

// readDescriptors parses --input, or stdin when it is empty or "-".
func readDescriptors(cmd *cobra.Command, input string) ([]model.Descriptor, error) {
	p := parser.New(logger)
	if input == "" || input == "-" {
		return p.Parse(cmd.InOrStdin())
	}
	f, err := os.Open(input)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return p.ParseFile(input, f)
}

func runLocal(cmd *cobra.Command, opts runOptions, cfg config.SimConfig, policies []model.Policy, descriptors []model.Descriptor) ([]report.PolicyReport, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.trace != "" {
		f, err := os.Create(opts.trace)
		if err != nil {
			return nil, fmt.Errorf("create trace file: %w", err)
		}
		defer f.Close()
		tp, err := tracing.Init("schedsim", server.Version, f)
		if err != nil {
			return nil, fmt.Errorf("init tracing: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Warn("trace shutdown", "error", err)
			}
		}()
	}

	runOpts := []runner.Option{runner.WithParallel(opts.parallel)}
	if cfg.SeedSet {
		runOpts = append(runOpts, runner.WithSeed(cfg.Seed))
	}
	r := runner.New(scheduler.Config{Quantum: cfg.Quantum, Aging: cfg.Aging}, logger, runOpts...)
	logger.Debug("tie-break seed", "seed", r.Seed())

	outcomes, err := r.RunAll(ctx, policies, descriptors)
	if err != nil {
		return nil, err
	}
	reports := runner.Reports(outcomes)

	if opts.save {
		st, err := openStore(ctx)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		sim := r.Record(opts.name, descriptors, reports)
		if err := st.CreateSimulation(ctx, sim); err != nil {
			return nil, fmt.Errorf("save simulation: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved simulation %s (seed %d)\n", sim.ID, sim.Seed)
	}
	return reports, nil
}

// runRemote posts the simulation to a schedsim server. Remote reports carry
// metrics and Gantt segments but not the per-tick grid.
func runRemote(ctx context.Context, opts runOptions, cfg config.SimConfig, policies []model.Policy, descriptors []model.Descriptor) ([]report.PolicyReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req := model.SimulationRequest{
		Name:      opts.name,
		Processes: descriptors,
		Quantum:   &cfg.Quantum,
		Aging:     &cfg.Aging,
	}
	if cfg.SeedSet {
		req.Seed = &cfg.Seed
	}
	for _, p := range policies {
		req.Policies = append(req.Policies, string(p))
	}

	path := "/api/v1/simulations"
	if !opts.save {
		path += "?persist=false"
	}
	resp, err := NewClient(opts.server, logger).Post(ctx, path, req)
	if err != nil {
		return nil, fmt.Errorf("remote simulation: %w", err)
	}

	var data struct {
		ID        string                `json:"id"`
		Seed      int64                 `json:"seed"`
		Persisted bool                  `json:"persisted"`
		Results   []report.PolicyReport `json:"results"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	logger.Info("remote simulation complete", "id", data.ID, "seed", data.Seed, "persisted", data.Persisted)
	return data.Results, nil
}

func render(w io.Writer, format string, reports []report.PolicyReport) error {
	if format == "json" {
		return report.RenderJSON(w, reports)
	}
	for _, r := range reports {
		if err := report.RenderText(w, r); err != nil {
			return err
		}
	}
	if len(reports) > 1 {
		fmt.Fprintln(w, "Comparison:")
		report.RenderComparison(w, reports)
	}
	return nil
}

// failures returns an error naming every policy whose run aborted.
func failures(reports []report.PolicyReport) error {
	var failed []string
	for _, r := range reports {
		if r.Failed() {
			failed = append(failed, string(r.Policy))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d policies failed: %v", len(failed), len(reports), failed)
}
