// Package cliutil holds the start-up steps shared by every command.
package cliutil

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quotagate/quotagate/internal/infrastructure/config"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

// Flags are the persistent flags every command accepts.
type Flags struct {
	Env        string
	ConfigPath string
}

// Bind registers --env and --config on cmd.
func (f *Flags) Bind(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&f.Env, "env", "e", "development", "Environment (development, test, production)")
	cmd.PersistentFlags().StringVarP(&f.ConfigPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
}

// Environment returns the effective environment. ENV overrides the flag.
func (f *Flags) Environment() string {
	if envVar := os.Getenv("ENV"); envVar != "" {
		return envVar
	}
	return f.Env
}

// Init loads the configuration and the process-wide logger.
func (f *Flags) Init() (*config.Config, logger.Interface, error) {
	cfg, err := config.Load(f.Environment(), f.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, logger.NewLogger(), nil
}
