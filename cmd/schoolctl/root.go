package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/pkordes/school-directory/internal/config"
	"github.com/pkordes/school-directory/internal/events"
	"github.com/pkordes/school-directory/internal/repo"
)

// backend is everything a command needs from the outside world.
type backend struct {
	schools repo.SchoolRepo
	tags    repo.ClientTagRepo
	pub     events.Publisher
	close   func()
}

// app carries state shared by every command. open is swapped out in tests.
type app struct {
	cfg    config.Config
	log    *slog.Logger
	errOut io.Writer
	open   func(ctx context.Context, cfg config.Config, log *slog.Logger) (*backend, error)
}

func newApp() *app {
	return &app{errOut: os.Stderr, open: openPostgres}
}

// newRootCmd builds the command tree. Configuration is loaded once, before
// any subcommand runs.
func newRootCmd(a *app) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "schoolctl",
		Short:         "Operate the school directory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			if logLevel == "" {
				logLevel = cfg.LogLevel
			}

			var level slog.Level
			if err := level.UnmarshalText([]byte(logLevel)); err != nil {
				return fmt.Errorf("invalid --log-level %q", logLevel)
			}
			a.log = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default $LOG_LEVEL)")

	root.AddCommand(
		newIngestCmd(a),
		newMigrateCmd(a),
		newClientsCmd(a),
		newDeleteCmd(a),
	)

	root.SetErr(a.errOut)
	return root
}

// openPostgres connects to the configured database and, when REDIS_URL is
// set, to Redis for stale-view events.
func openPostgres(ctx context.Context, cfg config.Config, log *slog.Logger) (*backend, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	b := &backend{
		schools: repo.NewSchoolRepo(pool),
		tags:    repo.NewClientTagRepo(pool),
		pub:     events.NewLogPublisher(log),
		close:   pool.Close,
	}
	if cfg.RedisURL != "" {
		rdb, err := events.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			pool.Close()
			return nil, err
		}
		b.pub = events.NewRedisPublisher(rdb, cfg.StaleChannel)
		b.close = func() {
			_ = rdb.Close()
			pool.Close()
		}
	}
	return b, nil
}
