package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/okian/witarcade/internal/adapters/http/api"
	"github.com/okian/witarcade/internal/adapters/http/swagger"
	"github.com/okian/witarcade/internal/adapters/repository"
	app "github.com/okian/witarcade/internal/app"
	"github.com/okian/witarcade/internal/config"
	"github.com/okian/witarcade/internal/domain/catalog"
	"github.com/okian/witarcade/internal/domain/suggest"
	"github.com/okian/witarcade/internal/play"
	"github.com/okian/witarcade/pkg/logger"
	"github.com/okian/witarcade/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// server bundles the running components of the HTTP process.
type server struct {
	svc      *app.Service
	sessions *play.Manager
	handler  http.Handler
}

func (s *server) close() {
	s.sessions.Shutdown()
	s.svc.Stop()
}

// openStore connects the configured leaderboard store.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return repository.NewTreapStore(ctx), nil
	default:
		store, err := repository.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection,
			repository.WithTimeout(cfg.StoreTimeout()),
			repository.WithMongoLogger(log.Named("mongo")),
		)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

// buildServer wires store, service, catalog, sessions and routes.
func buildServer(ctx context.Context, cfg *config.Config, log logger.Logger) (*server, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	index := suggest.NewIndex(cat.Names())

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	svc := app.New(
		app.WithStore(store),
		app.WithLogger(log.Named("leaderboard")),
		app.WithLimits(cfg.DefaultLeaderboardLimit, cfg.MaxLeaderboardLimit),
		app.WithIdempotencySize(cfg.IdempotencySize),
	)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close(ctx)
		return nil, fmt.Errorf("failed to start service: %w", err)
	}

	sessions := play.NewManager(ctx, cat,
		play.WithIdleTimeout(cfg.SessionIdleTimeout()),
		play.WithManagerLogger(log.Named("play")),
		play.WithSessionOptions(
			play.WithLeaderboard(svc),
			play.WithSuggester(index),
			play.WithTickInterval(cfg.TickInterval()),
		),
	)

	router := httprouter.New()
	api.NewServer(svc,
		api.WithCatalog(cat, index),
		api.WithSessions(sessions),
		api.WithPublicURL(cfg.PublicURL),
		api.WithStats("leaderboard", svc),
		api.WithStats("play", sessions),
		api.WithLogger(log.Named("api")),
	).Register(router)
	swagger.Register(ctx, router)

	log.Info(ctx, "server components ready",
		logger.String("store", cfg.StoreDriver),
		logger.Int("catalog", cat.Len()))
	return &server{svc: svc, sessions: sessions, handler: api.SecurityHeaders(router)}, nil
}

// runServe serves HTTP until ctx is cancelled, then shuts down gracefully.
func runServe(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()
	defer func() { _ = logger.Sync() }()

	metrics.Configure(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithMetricsEnabled(cfg.MetricsEnabled),
		metrics.WithRefreshInterval(cfg.MetricsRefreshInterval()),
	)

	srvCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s, err := buildServer(srvCtx, cfg, log)
	if err != nil {
		return err
	}
	defer s.close()

	go startSystemMetricsUpdater(srvCtx, metrics.RefreshInterval())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}
