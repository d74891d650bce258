// Package app assembles the Monedero server from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/prn-tf/monedero/internal/auth"
	"github.com/prn-tf/monedero/internal/cache/memory"
	"github.com/prn-tf/monedero/internal/cache/redis"
	"github.com/prn-tf/monedero/internal/config"
	"github.com/prn-tf/monedero/internal/handler"
	"github.com/prn-tf/monedero/internal/lock"
	"github.com/prn-tf/monedero/internal/metrics"
	"github.com/prn-tf/monedero/internal/pkg/crypto"
	"github.com/prn-tf/monedero/internal/repository"
	"github.com/prn-tf/monedero/internal/repository/postgres"
	"github.com/prn-tf/monedero/internal/repository/sqlite"
	"github.com/prn-tf/monedero/internal/service"
	"github.com/prn-tf/monedero/internal/storage"
)

// redisPrefix namespaces every key Monedero writes to Redis.
const redisPrefix = "monedero:"

// defaultShutdownTimeout applies when the configuration leaves it unset.
const defaultShutdownTimeout = 20 * time.Second

// App is a fully wired Monedero server.
type App struct {
	cfg    *config.Config
	logger zerolog.Logger

	store     *repository.Store
	services  *service.Services
	tokens    *auth.TokenManager
	processor *service.RecurringProcessor

	server        *http.Server
	metricsServer *http.Server

	closers []func() error
}

// New connects to every backing service, applies pending migrations and
// builds the HTTP servers. Nothing listens until Run is called.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (_ *App, err error) {
	a := &App{cfg: cfg, logger: logger.With().Str("component", "app").Logger()}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.store, err = OpenStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.store.Database.Close)

	if err := a.store.Migrator.Up(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	cache, locker, err := a.coordination(ctx)
	if err != nil {
		return nil, err
	}

	var receipts storage.ReceiptStore
	if cfg.Receipts.Enabled {
		s3, err := storage.NewS3ReceiptStore(ctx, cfg.Receipts)
		if err != nil {
			return nil, fmt.Errorf("failed to configure receipt storage: %w", err)
		}
		receipts = s3
		a.logger.Info().Str("bucket", cfg.Receipts.Bucket).Msg("receipt storage enabled")
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, m.Handler())
		a.metricsServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	hasher, err := crypto.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}
	a.tokens, err = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, auth.WithIssuer(cfg.Auth.Issuer))
	if err != nil {
		return nil, err
	}

	repos := a.store.Repos
	a.services = service.NewServices(service.Deps{
		Repos:    repos,
		Hasher:   hasher,
		Issuer:   a.tokens,
		Limiter:  service.NewLoginLimiter(cache, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginAttemptWindow, logger),
		Receipts: receipts,
		Metrics:  m,
		Logger:   logger,
	})

	a.processor = service.NewRecurringProcessor(repos.Recurring, repos.Records, repos.Tx, locker, m, logger, service.RecurringConfig{
		Interval:  cfg.Recurring.Interval,
		BatchSize: cfg.Recurring.BatchSize,
	})

	router := handler.NewRouter(handler.RouterConfig{
		Services:           a.services,
		Verifier:           a.tokens,
		Database:           a.store.Database,
		Metrics:            m,
		MaxBodySize:        cfg.Server.MaxBodySize,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		Logger:             logger,
	})
	a.server = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	return a, nil
}

// OpenStore connects to the configured database driver without migrating it.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*repository.Store, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.Open(ctx, cfg, logger)
	case "sqlite":
		return sqlite.Open(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// coordination returns the login attempt cache and the lock used by the
// recurring processor: Redis backed when enabled, process-local otherwise.
func (a *App) coordination(ctx context.Context) (repository.Cache, lock.Locker, error) {
	if !a.cfg.Redis.Enabled {
		cache := memory.NewCache()
		a.closers = append(a.closers, func() error { cache.Stop(); return nil })
		return cache, lock.NewMemoryLocker(), nil
	}

	client, err := redis.NewClient(ctx, a.cfg.Redis, a.logger)
	if err != nil {
		return nil, nil, err
	}
	a.closers = append(a.closers, client.Close)
	return redis.NewCache(client, redisPrefix), redis.NewLock(client, redisPrefix), nil
}

// Handler returns the HTTP API handler.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Services returns the wired services.
func (a *App) Services() *service.Services {
	return a.services
}

// Tokens returns the session token manager.
func (a *App) Tokens() *auth.TokenManager {
	return a.tokens
}

// Processor returns the recurring payment processor.
func (a *App) Processor() *service.RecurringProcessor {
	return a.processor
}

// Run serves HTTP until ctx is cancelled or a server fails, then shuts down
// gracefully. The recurring processor runs alongside when enabled.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.Recurring.Enabled {
		a.processor.Start()
		defer a.processor.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Str("addr", a.server.Addr).Msg("HTTP server listening")
		return serve(a.server)
	})
	if a.metricsServer != nil {
		g.Go(func() error {
			a.logger.Info().Str("addr", a.metricsServer.Addr).Str("path", a.cfg.Metrics.Path).Msg("metrics server listening")
			return serve(a.metricsServer)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info().Msg("shutting down HTTP servers")

		timeout := a.cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = defaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		err := a.server.Shutdown(shutdownCtx)
		if a.metricsServer != nil {
			err = errors.Join(err, a.metricsServer.Shutdown(shutdownCtx))
		}
		return err
	})

	return g.Wait()
}

func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server on %s failed: %w", srv.Addr, err)
	}
	return nil
}

// Close releases every connection opened by New, in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
