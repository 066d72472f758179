package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/pkordes/nightspot/internal/config"
	"github.com/pkordes/nightspot/internal/handler"
	"github.com/pkordes/nightspot/internal/metrics"
	"github.com/pkordes/nightspot/internal/middleware"
	"github.com/pkordes/nightspot/internal/notify"
	"github.com/pkordes/nightspot/internal/repo"
	"github.com/pkordes/nightspot/internal/scoring/gemini"
	"github.com/pkordes/nightspot/internal/service"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

// serve runs the HTTP server until ctx is cancelled, then gives in-flight
// requests up to 15 seconds to complete.
func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	h, cleanup, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	// WriteTimeout leaves room for the notify timeout inside a /join request.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10*time.Second + cfg.NotifyTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// stores bundles the persistence layer chosen by STORE_DRIVER.
type stores struct {
	waiting repo.WaitingRepo
	events  repo.EventRepo
	venues  repo.VenueRepo
	tx      repo.Transactor
	close   func()
}

func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, error) {
	if cfg.StoreDriver == config.StoreMemory {
		mem := repo.NewMemoryStore(cfg.MaxPoolPerSlot)
		logger.Warn("using in-memory store, nothing survives a restart")
		return stores{waiting: mem, events: mem, venues: mem, tx: mem, close: func() {}}, nil
	}

	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return stores{}, fmt.Errorf("create database pool: %w", err)
	}
	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return stores{}, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("database connection established")

	return stores{
		waiting: repo.NewWaitingRepo(pool, cfg.MaxPoolPerSlot),
		events:  repo.NewEventRepo(pool),
		venues:  repo.NewVenueRepo(pool),
		tx:      repo.NewTransactor(pool, cfg.MaxPoolPerSlot),
		close:   pool.Close,
	}, nil
}

func newScorer(ctx context.Context, cfg config.Config, logger *slog.Logger) (service.Scorer, error) {
	if cfg.GeminiAPIKey == "" {
		logger.Info("GEMINI_API_KEY not set, questionnaire answers score as zero")
		return service.NeutralScorer{}, nil
	}
	gen, err := gemini.NewGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	logger.Info("personality scoring enabled", "model", gen.Model())
	return gemini.NewScorer(gen, logger), nil
}

func newNotifier(cfg config.Config, logger *slog.Logger) service.Notifier {
	if cfg.SMTPHost == "" {
		logger.Info("SMTP_HOST not set, group notifications are only logged")
		return notify.NewLogNotifier(logger)
	}
	return notify.NewEmailNotifier(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, cfg.Location(), cfg.MeetingDuration)
}

// newApp wires every dependency and returns the root HTTP handler together
// with a function releasing the store.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (http.Handler, func(), error) {
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	scorer, err := newScorer(ctx, cfg, logger)
	if err != nil {
		st.close()
		return nil, nil, err
	}

	m := metrics.NewMatching()
	scoring := service.NewScoringService(scorer, logger, m)
	matches := service.NewMatchService(service.MatchDeps{
		Waiting:  st.waiting,
		Events:   st.events,
		Tx:       st.tx,
		Venues:   service.NewCatalogPicker(st.venues, logger, m),
		Notifier: newNotifier(cfg, logger),
		Scoring:  scoring,
		Logger:   logger,
		Metrics:  m,
	}, service.MatchConfig{
		GroupSize:     cfg.GroupSize,
		Threshold:     cfg.SimilarityThreshold,
		NotifyTimeout: cfg.NotifyTimeout,
	})

	// Middleware is applied in order: RequestID -> RealIP -> Logger -> Recoverer
	// -> CORS -> body limit.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	srv := handler.NewServer(matches, scoring, m.Handler(), logger)
	return handler.HandlerFromMux(srv, r), st.close, nil
}
