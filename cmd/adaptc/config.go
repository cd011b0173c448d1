package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "adaptc.yaml"

type cliConfig struct {
	Manifests   []string    `yaml:"manifests"`
	LogLevel    string      `yaml:"log_level"`
	MaxExplored int         `yaml:"max_explored"`
	Graph       graphConfig `yaml:"graph"`
}

type graphConfig struct {
	Format string `yaml:"format"`
}

func loadCLIConfig(path string) (*cliConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &cliConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config yaml: %w", err)
	}
	return cfg, nil
}

// resolveConfig loads the config file and lets explicitly set flags win
func resolveConfig(cmd *cobra.Command) (*cliConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	cfg, err := loadCLIConfig(path)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		cfg = &cliConfig{}
	}

	if level, _ := cmd.Flags().GetString("log-level"); cmd.Flags().Changed("log-level") || cfg.LogLevel == "" {
		cfg.LogLevel = level
	}
	if f := cmd.Flags().Lookup("max-explored"); f != nil && (f.Changed || cfg.MaxExplored == 0) {
		cfg.MaxExplored, _ = cmd.Flags().GetInt("max-explored")
	}
	if f := cmd.Flags().Lookup("format"); f != nil && (f.Changed || cfg.Graph.Format == "") {
		cfg.Graph.Format, _ = cmd.Flags().GetString("format")
	}
	return cfg, nil
}

// manifestArgs returns the positional manifest paths, falling back to the
// configured ones
func manifestArgs(args []string, cfg *cliConfig) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if len(cfg.Manifests) > 0 {
		return cfg.Manifests, nil
	}
	return nil, fmt.Errorf("no manifests given; pass files or directories or set manifests in %s", defaultConfigFile)
}
