package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tuanvumaihuynh/product-inventory/internal/config"
	"github.com/tuanvumaihuynh/product-inventory/internal/log"
	"github.com/tuanvumaihuynh/product-inventory/internal/storage/db"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running migrate application: %v\n", err)
		os.Exit(1)
	}
}

type Config struct {
	Log      config.Log
	Postgres config.Postgres
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pi-migrate",
		Short:         "Manage the product inventory database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(ctx context.Context, logger *slog.Logger, m *db.Migrator) error {
				results, err := m.Up(ctx)
				for _, r := range results {
					logger.InfoContext(ctx, "migration applied",
						slog.Int64("version", r.Source.Version),
						slog.String("path", r.Source.Path),
						slog.Duration("duration", r.Duration),
					)
				}
				if err != nil {
					return err
				}

				logger.InfoContext(ctx, "database migration completed successfully", slog.Int("applied", len(results)))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(ctx context.Context, logger *slog.Logger, m *db.Migrator) error {
				result, err := m.Down(ctx)
				if err != nil {
					return err
				}

				logger.InfoContext(ctx, "migration rolled back",
					slog.Int64("version", result.Source.Version),
					slog.String("path", result.Source.Path),
				)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the state of every migration",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(ctx context.Context, logger *slog.Logger, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return err
				}

				for _, s := range statuses {
					logger.InfoContext(ctx, "migration status",
						slog.Int64("version", s.Source.Version),
						slog.String("path", s.Source.Path),
						slog.String("state", string(s.State)),
						slog.Time("applied_at", s.AppliedAt),
					)
				}
				return nil
			}),
		},
	)

	return root
}

type migrateFunc func(ctx context.Context, logger *slog.Logger, m *db.Migrator) error

// withMigrator loads the configuration and opens the database around fn.
func withMigrator(fn migrateFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cfg, err := config.New[Config]()
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}

		logger := log.NewSlogLogger(cfg.Log)

		pgxPool, err := db.NewPgxPool(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("error creating pgx pool: %w", err)
		}
		defer pgxPool.Close()

		migrator, err := db.NewMigrator(pgxPool)
		if err != nil {
			return fmt.Errorf("error creating migrator: %w", err)
		}
		defer func() {
			if err := migrator.Close(); err != nil {
				logger.ErrorContext(ctx, "error closing migrator", slog.Any("error", err))
			}
		}()

		return fn(ctx, logger, migrator)
	}
}
