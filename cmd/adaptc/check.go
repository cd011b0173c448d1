package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [manifest|dir]...",
		Short: "Validate manifests",
		Long: `Validate manifests: YAML structure, guard expressions, version
requirements, type declarations and every protocol an offer names.

Converter names cannot be checked here since converters are registered by
the program embedding the manifests; they are listed instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			paths, err := manifestArgs(args, cfg)
			if err != nil {
				return err
			}

			ws, err := loadWorkspace(paths, cfg.MaxExplored)
			if err != nil {
				return err
			}
			return runCheck(cmd, ws)
		},
	}
}

func runCheck(cmd *cobra.Command, ws *workspace) error {
	out := cmd.OutOrStdout()

	var errs []error
	converters := make(map[string]bool)
	for _, f := range ws.factories {
		if _, err := f.From(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f, err))
		}
		if _, err := f.To(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f, err))
		}
		if name := f.ConverterName(); name != "identity" {
			converters[name] = true
		}
	}

	for _, err := range errs {
		fmt.Fprintf(out, "error: %v\n", err)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	fmt.Fprintf(out, "ok: %d manifests, %d types, %d factories, %d converters to bind\n",
		len(ws.manifests), len(ws.manager.Catalog().Types())-1, len(ws.factories), len(converters))
	return nil
}
