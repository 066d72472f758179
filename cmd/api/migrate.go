package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/pkordes/nightspot/internal/config"
	"github.com/pkordes/nightspot/migrations"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			RunE: withProvider(func(ctx context.Context, cmd *cobra.Command, p *goose.Provider, log *slog.Logger) error {
				results, err := p.Up(ctx)
				if err != nil {
					return fmt.Errorf("migrate up: %w", err)
				}
				for _, r := range results {
					log.Info("migration applied", "version", r.Source.Version, "path", r.Source.Path, "duration", r.Duration)
				}
				if len(results) == 0 {
					log.Info("schema already up to date")
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: withProvider(func(ctx context.Context, cmd *cobra.Command, p *goose.Provider, log *slog.Logger) error {
				r, err := p.Down(ctx)
				if err != nil {
					return fmt.Errorf("migrate down: %w", err)
				}
				log.Info("migration rolled back", "version", r.Source.Version, "path", r.Source.Path, "duration", r.Duration)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and whether they are applied",
			RunE: withProvider(func(ctx context.Context, cmd *cobra.Command, p *goose.Provider, _ *slog.Logger) error {
				statuses, err := p.Status(ctx)
				if err != nil {
					return fmt.Errorf("migrate status: %w", err)
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "VERSION\tSTATE\tAPPLIED AT\tFILE")
				for _, s := range statuses {
					applied := "-"
					if !s.AppliedAt.IsZero() {
						applied = s.AppliedAt.UTC().Format(time.RFC3339)
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, s.Source.Path)
				}
				return w.Flush()
			}),
		},
	)
	return cmd
}

type providerFunc func(ctx context.Context, cmd *cobra.Command, p *goose.Provider, log *slog.Logger) error

// withProvider opens DATABASE_URL with the pgx database/sql driver, since
// goose needs a *sql.DB rather than a pgx pool, and hands fn a provider over
// the embedded migrations.
func withProvider(fn providerFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		if cfg.StoreDriver != config.StorePostgres {
			return fmt.Errorf("migrate requires STORE_DRIVER=%s, got %q", config.StorePostgres, cfg.StoreDriver)
		}

		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
		if err != nil {
			return fmt.Errorf("create goose provider: %w", err)
		}
		return fn(cmd.Context(), cmd, provider, logger)
	}
}
