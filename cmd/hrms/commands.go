package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"hrms/internal/app/server"
	"hrms/internal/platform/db"
)

func serveCommand(cmd *cobra.Command, _ []string) error {
	cfg, closer, err := loadConfig()
	if err != nil {
		return err
	}
	defer closer.Close()

	app, err := server.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.Run(cmd.Context())
}

func migrateCommand(cmd *cobra.Command, _ []string) error {
	cfg, closer, err := loadConfig()
	if err != nil {
		return err
	}
	defer closer.Close()
	if err := cfg.Validate(); err != nil {
		return err
	}

	pool, err := db.Connect(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := db.Migrate(cmd.Context(), pool, cfg.MigrationsDir); err != nil {
		return err
	}
	slog.Info("migrations applied", "dir", cfg.MigrationsDir)
	return nil
}

func seedCommand(cmd *cobra.Command, _ []string) error {
	cfg, closer, err := loadConfig()
	if err != nil {
		return err
	}
	defer closer.Close()
	if err := cfg.Validate(); err != nil {
		return err
	}

	pool, err := db.Connect(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := db.Seed(cmd.Context(), pool, cfg); err != nil {
		return err
	}
	slog.Info("seed complete", "tenant", cfg.SeedTenantName)
	return nil
}
