package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/freeeve/polite-betrayal/adjudicator/internal/config"
	"github.com/freeeve/polite-betrayal/adjudicator/internal/metrics"
	"github.com/freeeve/polite-betrayal/adjudicator/internal/repository"
	"github.com/freeeve/polite-betrayal/adjudicator/internal/repository/postgres"
	redisrepo "github.com/freeeve/polite-betrayal/adjudicator/internal/repository/redis"
	"github.com/freeeve/polite-betrayal/adjudicator/internal/repository/sqlite"
	"github.com/freeeve/polite-betrayal/adjudicator/internal/repository/sqlstore"
	"github.com/freeeve/polite-betrayal/adjudicator/internal/scenario"
	"github.com/freeeve/polite-betrayal/adjudicator/internal/service"
	"github.com/freeeve/polite-betrayal/adjudicator/pkg/diplomacy"
)

type runFlags struct {
	store       string
	redisURL    string
	metricsFile string
	gameID      string
	check       bool
}

var errExpectations = errors.New("scenario expectations not met")

func newRunCmd(a *app) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Adjudicate a scenario and print the result log and next board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.run(ctx, cmd, args[0], f)
		},
	}
	cmd.Flags().StringVar(&f.store, "store", "", "persist the turn: none, sqlite or postgres (overrides STORE)")
	cmd.Flags().StringVar(&f.redisURL, "redis", "", "cache the next board in Redis at this URL (overrides REDIS_URL)")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this file (overrides METRICS_FILE)")
	cmd.Flags().StringVar(&f.gameID, "game", "", "game ID to record the turn under (default: random)")
	cmd.Flags().BoolVar(&f.check, "check", false, "exit non-zero if the scenario's expectations are not met")
	return cmd
}

func (a *app) run(ctx context.Context, cmd *cobra.Command, path string, f *runFlags) error {
	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}
	setup, err := sc.Build(diplomacy.StandardMap(), a.cfg.Rules(), a.cfg.Validation())
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	store := a.cfg.Store
	if f.store != "" {
		store = f.store
	}
	repo, closeRepo, err := openStore(ctx, a.cfg, store)
	if err != nil {
		return err
	}
	defer closeRepo()

	var cache repository.TurnCache
	redisURL := a.cfg.RedisURL
	if f.redisURL != "" {
		redisURL = f.redisURL
	}
	if redisURL != "" {
		rc, err := redisrepo.NewClient(ctx, redisURL, a.cfg.CacheTTL)
		if err != nil {
			return err
		}
		defer rc.Close()
		cache = rc
	}

	svc := service.NewTurnService(repo, cache)
	svc.SetRules(setup.Rules, setup.Validation)
	metricsFile := a.cfg.MetricsFile
	if f.metricsFile != "" {
		metricsFile = f.metricsFile
	}
	var m *metrics.Metrics
	if metricsFile != "" {
		m = metrics.New()
		svc.SetMetrics(m)
	}

	gameID := f.gameID
	if gameID == "" {
		gameID = uuid.NewString()
	}
	outcome, err := svc.Adjudicate(ctx, gameID, setup.State, setup.Orders)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if sc.Name != "" {
		fmt.Fprintf(w, "# %s\n", sc.Name)
	}
	for _, r := range outcome.Results {
		if r.Kind == diplomacy.ResultTimestamp {
			continue
		}
		fmt.Fprintln(w, r.String())
	}
	fmt.Fprintf(w, "next: %s\n", outcome.Next.PhaseName())
	fmt.Fprintf(w, "dfen: %s\n", diplomacy.EncodeDFEN(outcome.Next))
	if outcome.TurnID != "" {
		fmt.Fprintf(w, "turn: %s (game %s)\n", outcome.TurnID, gameID)
	}

	if m != nil {
		if err := m.WriteTextfile(metricsFile); err != nil {
			return err
		}
	}

	if f.check {
		problems := sc.Check(outcome.Results, outcome.Next)
		for _, p := range problems {
			fmt.Fprintln(cmd.ErrOrStderr(), "mismatch:", p)
		}
		if len(problems) > 0 {
			return fmt.Errorf("%s: %w (%d)", path, errExpectations, len(problems))
		}
		fmt.Fprintln(w, "ok")
	}
	return nil
}

// openStore opens the configured turn repository. The returned repository
// is nil for the "none" store.
func openStore(ctx context.Context, cfg *config.Config, store string) (repository.TurnRepository, func(), error) {
	var (
		db      *sql.DB
		dialect sqlstore.Dialect
		err     error
	)
	switch store {
	case config.StoreNone, "":
		return nil, func() {}, nil
	case config.StoreSQLite:
		db, err = sqlite.Open(cfg.SQLitePath)
		dialect = sqlstore.SQLite
	case config.StorePostgres:
		db, err = postgres.Connect(ctx, cfg.DatabaseURL, postgres.Pool{MaxConns: cfg.DBMaxConns, ConnectTimeout: cfg.DBConnectTimeout})
		dialect = sqlstore.Postgres
	default:
		return nil, nil, fmt.Errorf("unknown store %q", store)
	}
	if err != nil {
		return nil, nil, err
	}
	repo := sqlstore.NewTurnRepo(db, dialect)
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	log.Debug().Str("store", store).Msg("Turn store ready")
	return repo, func() { _ = db.Close() }, nil
}
