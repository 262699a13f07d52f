package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"authgate/internal/bootstrap"
)

const defaultSeedTimeout = 30 * time.Second

type seedConfig struct {
	timeout time.Duration
}

// NewSeedAdminCmd creates the seed-admin subcommand. It is idempotent.
func NewSeedAdminCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the configured administrator account if it does not exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeedAdmin(cmd, cfg)
		},
	}

	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func runSeedAdmin(cmd *cobra.Command, seedCfg *seedConfig) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), seedCfg.timeout)
	defer cancel()

	app, err := bootstrap.NewCore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	created, err := app.SeedAdmin(ctx)
	if err != nil {
		return err
	}
	if created {
		cmd.Printf("admin user %q created\n", cfg.Admin.Username)
	} else {
		cmd.Printf("admin user %q already exists\n", cfg.Admin.Username)
	}
	return nil
}
