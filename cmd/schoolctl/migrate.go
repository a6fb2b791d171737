package main

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/spf13/cobra"

	"github.com/pkordes/school-directory/migrations"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate up|down|status",
		Short:     "Apply, roll back or list schema migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			db, err := sql.Open("pgx", a.cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			provider, err := migrations.NewProvider(db)
			if err != nil {
				return err
			}

			switch args[0] {
			case "up":
				results, err := provider.Up(ctx)
				if err != nil {
					return fmt.Errorf("migrate up: %w", err)
				}
				for _, r := range results {
					fmt.Fprintf(out, "applied %s (%s)\n", r.Source.Path, r.Duration)
				}
				if len(results) == 0 {
					fmt.Fprintln(out, "no pending migrations")
				}
			case "down":
				r, err := provider.Down(ctx)
				if err != nil {
					return fmt.Errorf("migrate down: %w", err)
				}
				fmt.Fprintf(out, "rolled back %s\n", r.Source.Path)
			case "status":
				statuses, err := provider.Status(ctx)
				if err != nil {
					return fmt.Errorf("migrate status: %w", err)
				}
				for _, s := range statuses {
					fmt.Fprintf(out, "%-10s %s\n", s.State, s.Source.Path)
				}
			}
			return nil
		},
	}
}
