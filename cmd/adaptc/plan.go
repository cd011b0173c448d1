package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan [manifest|dir]...",
		Short: "Find the preferred conversion chain between two types",
		Long: `Find the chain of offers the resolver would try first when adapting a
value of type --from to protocol --to, assuming every converter accepts
its input. Guards and declining converters can make the real chain longer.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			paths, err := manifestArgs(args, cfg)
			if err != nil {
				return err
			}
			fromName, _ := cmd.Flags().GetString("from")
			toName, _ := cmd.Flags().GetString("to")

			ws, err := loadWorkspace(paths, cfg.MaxExplored)
			if err != nil {
				return err
			}
			return runPlan(cmd, ws, fromName, toName)
		},
	}

	cmd.Flags().String("from", "", "Type of the value to adapt")
	cmd.Flags().String("to", "", "Protocol to adapt to")
	cmd.Flags().Int("max-explored", 0, "Bound the search; 0 means unbounded")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func runPlan(cmd *cobra.Command, ws *workspace, fromName, toName string) error {
	from, err := ws.lookup(fromName)
	if err != nil {
		return err
	}
	to, err := ws.lookup(toName)
	if err != nil {
		return err
	}

	chain, found, err := ws.manager.Resolver().Plan(from, to)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no adaptation chain from %s to %s", fromName, toName)
	}

	out := cmd.OutOrStdout()
	if len(chain) == 0 {
		fmt.Fprintf(out, "%s already satisfies %s\n", fromName, toName)
		return nil
	}
	for i, f := range chain {
		fmt.Fprintf(out, "%d. %s -> %s via %s\n", i+1, f.FromName(), f.ToName(), f.ConverterName())
	}
	return nil
}
