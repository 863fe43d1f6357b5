package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/me/schedsim/pkg/model"
)

func newPoliciesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policies",
		Short: "List the scheduling policies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-20s  %-10s  %s\n", "ID", "PREEMPTIVE", "NAME")
			fmt.Fprintf(w, "%-20s  %-10s  %s\n", "--", "----------", "----")
			for _, p := range model.AllPolicies {
				preemptive := "no"
				if p.Preemptive() {
					preemptive = "yes"
				}
				fmt.Fprintf(w, "%-20s  %-10s  %s\n", p, preemptive, p.Name())
			}
			return nil
		},
	}
}
