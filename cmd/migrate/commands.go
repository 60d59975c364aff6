package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/sweetdelights-backend/pkg/config"
	"github.com/angelmondragon/sweetdelights-backend/pkg/db"
	"github.com/angelmondragon/sweetdelights-backend/pkg/logger"
	"github.com/angelmondragon/sweetdelights-backend/pkg/migrate"
)

// dbAction runs against an open migration connection.
type dbAction func(ctx context.Context, sqlDB *sql.DB, dialect string) error

func newRootCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the Sweet Delights database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", migrate.DefaultDir, "migrations directory for create|validate")

	for _, goose := range []struct{ use, short string }{
		{"up", "Apply every pending migration"},
		{"down", "Roll back the latest migration"},
		{"status", "Print applied and pending migrations"},
	} {
		command := goose.use
		cmd.AddCommand(newDBCommand(command, goose.short, cobra.NoArgs, func(_ []string) dbAction {
			return func(ctx context.Context, sqlDB *sql.DB, dialect string) error {
				return migrate.Run(ctx, sqlDB, dialect, command)
			}
		}))
	}
	cmd.AddCommand(newDBCommand("version <YYYYMMDDHHMMSS>", "Migrate up or down to an exact version", cobra.ExactArgs(1), func(args []string) dbAction {
		return func(ctx context.Context, sqlDB *sql.DB, dialect string) error {
			return migrate.MigrateToVersion(ctx, sqlDB, dialect, args[0])
		}
	}))

	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Write a new timestamped SQL migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := migrate.CreateSQLMigration(dir, args[0])
			if err != nil {
				return fmt.Errorf("creating migration: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "created migration:", path)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check migration names and goose annotations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := migrate.ValidateDir(dir); err != nil {
				return fmt.Errorf("migration validation failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migration validation passed")
			return nil
		},
	})
	return cmd
}

// newDBCommand loads config and opens the database only when the command runs,
// so create and validate work without any environment.
func newDBCommand(use, short string, args cobra.PositionalArgs, build func(args []string) dbAction) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.DB.ResolveDSN(); err != nil {
				return err
			}
			logg := logger.New(logger.Options{
				ServiceName: "migrate",
				Level:       logger.ParseLevel(cfg.App.LogLevel),
				WarnStack:   cfg.App.LogWarnStack,
			})
			dialect := migrate.DialectFor(cfg.DB)
			ctx := logg.WithFields(cmd.Context(), map[string]any{
				"env":     cfg.App.Env,
				"cmd":     cmd.Name(),
				"dialect": dialect,
			})

			client, err := db.New(ctx, cfg.DB, logg)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer client.Close()
			sqlDB, err := client.SQL()
			if err != nil {
				return err
			}

			if err := build(args)(ctx, sqlDB, dialect); err != nil {
				logg.Error(ctx, "migration failed", err)
				return fmt.Errorf("%s: %w", cmd.Name(), err)
			}
			logg.Info(ctx, "migration finished")
			return nil
		},
	}
}
