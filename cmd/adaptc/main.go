// Command adaptc checks adaptation manifests, renders the adaptation graph
// they declare and plans conversion chains between protocols.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "adaptc",
		Short: "Inspect adaptation manifests",
		Long: `Inspect adaptation manifests without running any converter.

Manifests declare protocols, the offers converting between them and the
types that provide other protocols directly. adaptc validates them, draws
the resulting graph and finds the chain the resolver would prefer.

Examples:
  # Validate every manifest in a plugin directory
  adaptc check ./plugins

  # Render the graph for documentation
  adaptc graph ./plugins --format mermaid

  # Show how a UK plug reaches the Iraq standard
  adaptc plan ./plugins --from plugs.UKPlug --to plugs.IraqStandard`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			return setupLogging(cmd, cfg.LogLevel)
		},
	}

	root.PersistentFlags().String("config", "", "Config file (default adaptc.yaml when present)")
	root.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn or error")

	root.AddCommand(newCheckCmd())
	root.AddCommand(newGraphCmd())
	root.AddCommand(newPlanCmd())
	return root
}

func setupLogging(cmd *cobra.Command, level string) error {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "", "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return fmt.Errorf("unknown log level %q", level)
	}

	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler).With("component", "adaptc"))
	return nil
}
