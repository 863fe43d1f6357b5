package cli

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/me/schedsim/internal/report"
	"github.com/me/schedsim/pkg/model"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect saved simulations",
	}
	cmd.AddCommand(newHistoryListCmd(), newHistoryShowCmd(), newHistoryDeleteCmd())
	return cmd
}

func newHistoryListCmd() *cobra.Command {
	opts := model.DefaultListOptions()

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved simulations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			opts.Clamp()
			sims, total, err := st.ListSimulations(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("list simulations: %w", err)
			}

			w := cmd.OutOrStdout()
			if len(sims) == 0 {
				fmt.Fprintln(w, "No simulations found.")
				return nil
			}

			fmt.Fprintf(w, "%-40s  %-20s  %-7s  %-5s  %-9s  %s\n", "ID", "NAME", "QUANTUM", "AGING", "PROCESSES", "CREATED")
			fmt.Fprintf(w, "%-40s  %-20s  %-7s  %-5s  %-9s  %s\n", "--", "----", "-------", "-----", "---------", "-------")
			for _, s := range sims {
				fmt.Fprintf(w, "%-40s  %-20s  %-7d  %-5d  %-9d  %s\n",
					s.ID, s.Name, s.Quantum, s.Aging, len(s.Processes), s.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			if opts.Offset+len(sims) < total {
				fmt.Fprintf(w, "\n(%d of %d shown)\n", len(sims), total)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", opts.Limit, "Maximum simulations to show")
	cmd.Flags().IntVar(&opts.Offset, "offset", opts.Offset, "Simulations to skip")
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <simulation_id>",
		Short: "Show a saved simulation and its policy runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			id := args[0]
			sim, err := st.GetSimulation(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get simulation: %w", err)
			}
			if sim == nil {
				return model.NewNotFoundError("simulation", id)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Simulation: %s\n", sim.ID)
			if sim.Name != "" {
				fmt.Fprintf(w, "  Name:     %s\n", sim.Name)
			}
			fmt.Fprintf(w, "  Quantum:  %d\n", sim.Quantum)
			fmt.Fprintf(w, "  Aging:    %d\n", sim.Aging)
			fmt.Fprintf(w, "  Seed:     %d\n", sim.Seed)
			fmt.Fprintf(w, "  Created:  %s\n", sim.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintln(w, "  Processes:")
			for _, d := range sim.Processes {
				fmt.Fprintf(w, "    - %s: arrival=%d burst=%d priority=%d\n", d.ID, d.Arrival, d.Burst, d.Priority)
			}
			fmt.Fprintln(w)

			table := tablewriter.NewWriter(w)
			table.SetHeader([]string{"Policy", "Avg Turnaround", "Avg Waiting", "Avg Response", "Switches", "Gantt"})
			for _, run := range sim.Runs {
				if run.Failed() {
					table.Append([]string{string(run.Policy), "-", "-", "-", "-", "failed: " + run.Error})
					continue
				}
				table.Append([]string{
					string(run.Policy),
					fmt.Sprintf("%.2f", run.AvgTurnaround),
					fmt.Sprintf("%.2f", run.AvgWaiting),
					fmt.Sprintf("%.2f", run.AvgResponse),
					fmt.Sprint(run.ContextSwitches),
					gantt(run.Timeline),
				})
			}
			table.Render()
			return nil
		},
	}
}

// gantt renders a stored timeline as "P1[0-5] P2[5-8]".
func gantt(tl model.Timeline) string {
	var parts []string
	for _, s := range report.Segments(tl) {
		id := s.ProcessID
		if s.Idle() {
			id = "idle"
		}
		parts = append(parts, fmt.Sprintf("%s[%d-%d]", id, s.Start, s.End))
	}
	return strings.Join(parts, " ")
}

func newHistoryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <simulation_id>",
		Short: "Delete a saved simulation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			id := args[0]
			sim, err := st.GetSimulation(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get simulation: %w", err)
			}
			if sim == nil {
				return model.NewNotFoundError("simulation", id)
			}
			if err := st.DeleteSimulation(cmd.Context(), id); err != nil {
				return fmt.Errorf("delete simulation: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			return nil
		},
	}
}
