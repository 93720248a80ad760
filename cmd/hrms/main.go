package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"hrms/internal/platform/config"
	"hrms/internal/platform/logging"
)

const (
	envFileFlag    = "env-file"
	migrationsFlag = "migrations"
)

var commonFlags = map[string]cobraflags.Flag{
	envFileFlag: &cobraflags.StringFlag{
		Name:  envFileFlag,
		Value: ".env",
		Usage: "Dotenv file to load before reading the environment",
	},
	migrationsFlag: &cobraflags.StringFlag{
		Name:  migrationsFlag,
		Value: "",
		Usage: "Directory with SQL migrations (overrides MIGRATIONS_DIR)",
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "hrms",
		Short:         "HR and payroll backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCommand,
	}
	cobraflags.RegisterMap(root, commonFlags)

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background jobs",
		RunE:  serveCommand,
	}
	cobraflags.RegisterMap(serve, commonFlags)

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations and exit",
		RunE:  migrateCommand,
	}
	cobraflags.RegisterMap(migrate, commonFlags)

	seed := &cobra.Command{
		Use:   "seed",
		Short: "Create the default tenant, roles, permissions and admin user",
		RunE:  seedCommand,
	}
	cobraflags.RegisterMap(seed, commonFlags)

	root.AddCommand(serve, migrate, seed)
	return root
}

// loadConfig reads configuration and installs the process logger.
func loadConfig() (config.Config, io.Closer, error) {
	var envFiles []string
	if path := commonFlags[envFileFlag].GetString(); path != "" {
		if _, err := os.Stat(path); err == nil {
			envFiles = append(envFiles, path)
		}
	}
	cfg := config.Load(envFiles...)
	if dir := commonFlags[migrationsFlag].GetString(); dir != "" {
		cfg.MigrationsDir = dir
	}
	closer, err := logging.Setup(cfg)
	if err != nil {
		return cfg, nil, fmt.Errorf("logging: %w", err)
	}
	return cfg, closer, nil
}
