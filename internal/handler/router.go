// Package handler provides the HTTP API of Monedero.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/prn-tf/monedero/internal/auth"
	"github.com/prn-tf/monedero/internal/domain"
	"github.com/prn-tf/monedero/internal/metrics"
	"github.com/prn-tf/monedero/internal/service"
)

// healthTimeout bounds the database ping of GET /health.
const healthTimeout = 2 * time.Second

// DatabaseChecker reports whether the database is reachable.
type DatabaseChecker interface {
	Health(ctx context.Context) error
}

// Router assembles the HTTP API.
type Router struct {
	config RouterConfig
	logger zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	Services *service.Services
	Verifier auth.Verifier
	Database DatabaseChecker
	Metrics  *metrics.Metrics

	// MaxBodySize caps request bodies in bytes. Zero means no limit.
	MaxBodySize int64

	// CORSAllowedOrigins enables CORS for the listed origins. Empty disables it.
	CORSAllowedOrigins []string

	Logger zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(config RouterConfig) *Router {
	return &Router{
		config: config,
		logger: config.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	cfg := rt.config
	svcs := cfg.Services

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(cfg.Logger, cfg.Metrics))
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{TotalCountHeader},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	r.Use(limitBody(cfg.MaxBodySize))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, domain.ErrNotFound.Error())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Public routes
	r.Get("/health", rt.handleHealth)
	NewIdentityHandler(svcs.Identity, cfg.Logger).RegisterRoutes(r)

	// Protected routes
	reports := NewReportHandler(ReportConfig{
		Records:  svcs.Records,
		Budgets:  svcs.Budgets,
		Accounts: svcs.Accounts,
		Logger:   cfg.Logger,
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Verifier, cfg.Metrics, cfg.Logger))

		NewUserHandler(svcs.Users, cfg.Logger).RegisterRoutes(r)

		r.Route("/accounts", func(r chi.Router) {
			NewResourceHandler[*domain.Account, *domain.AccountPatch](svcs.Accounts, newPatch[domain.AccountPatch], cfg.Logger).RegisterRoutes(r)
			reports.RegisterAccountRoutes(r)
		})
		r.Route("/categories", func(r chi.Router) {
			NewResourceHandler[*domain.Category, *domain.CategoryPatch](svcs.Categories, newPatch[domain.CategoryPatch], cfg.Logger).RegisterRoutes(r)
		})
		r.Route("/records", func(r chi.Router) {
			NewResourceHandler[*domain.Record, *domain.RecordPatch](svcs.Records, newPatch[domain.RecordPatch], cfg.Logger).RegisterRoutes(r)
			reports.RegisterRecordRoutes(r)
		})
		r.Route("/budgets", func(r chi.Router) {
			NewResourceHandler[*domain.Budget, *domain.BudgetPatch](svcs.Budgets, newPatch[domain.BudgetPatch], cfg.Logger).RegisterRoutes(r)
			reports.RegisterBudgetRoutes(r)
		})
		r.Route("/recurring-payments", func(r chi.Router) {
			NewResourceHandler[*domain.RecurringPayment, *domain.RecurringPaymentPatch](svcs.Recurring, newPatch[domain.RecurringPaymentPatch], cfg.Logger).RegisterRoutes(r)
		})
		r.Route("/debts", func(r chi.Router) {
			NewResourceHandler[*domain.Debt, *domain.DebtPatch](svcs.Debts, newPatch[domain.DebtPatch], cfg.Logger).RegisterRoutes(r)
		})
		r.Route("/goals", func(r chi.Router) {
			NewResourceHandler[*domain.Goal, *domain.GoalPatch](svcs.Goals, newPatch[domain.GoalPatch], cfg.Logger).RegisterRoutes(r)
		})
	})

	return r
}

// newPatch returns an empty patch of type T.
func newPatch[T any]() *T {
	return new(T)
}

// handleHealth reports whether the database answers a ping.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	if rt.config.Database != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := rt.config.Database.Health(ctx); err != nil {
			rt.logger.Warn().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
