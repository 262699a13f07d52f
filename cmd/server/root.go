package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"authgate/internal/config"
	"authgate/internal/logging"
)

var configFile string

// NewRootCmd creates the CLI. Without a subcommand it serves HTTP.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "authgate",
		Short:        "Credential issuance and session authentication service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (overrides CONFIG_FILE)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewSeedAdminCmd())

	return cmd
}

// loadConfig resolves configuration and the process logger for any subcommand.
func loadConfig() (*config.Config, *slog.Logger, error) {
	if configFile != "" {
		if err := os.Setenv("CONFIG_FILE", configFile); err != nil {
			return nil, nil, fmt.Errorf("set CONFIG_FILE failed: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config failed: %w", err)
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel(), Format: cfg.Log.Format}, os.Stdout).
		With("app", cfg.App.Name, "env", cfg.App.Env)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
