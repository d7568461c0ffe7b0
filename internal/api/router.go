package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/baharkarakas/payments-core/internal/api/handlers"
	"github.com/baharkarakas/payments-core/internal/auth"
	"github.com/baharkarakas/payments-core/internal/config"
	"github.com/baharkarakas/payments-core/internal/metrics"
	"github.com/baharkarakas/payments-core/internal/middleware"
	"github.com/baharkarakas/payments-core/internal/services"
)

func NewRouter(cfg config.Config, tm *auth.TokenManager, ts *services.TransactionService) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", handlers.HeaderIdempotencyKey, middleware.HeaderCorrelationID},
		ExposedHeaders: []string{middleware.HeaderRequestID, middleware.HeaderCorrelationID, handlers.HeaderIdempotencyKey},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	authH := handlers.NewAuthHandler(tm, cfg.Env)
	txH := handlers.NewTransactionHandler(ts)
	riskH := handlers.NewRiskHandler(ts)
	balH := handlers.NewBalanceHandler(ts)
	am := middleware.NewAuthMiddleware(tm, cfg.Env)

	r.Route("/api/v1", func(r chi.Router) {
		// ---------- auth ----------
		r.Post("/auth/token", authH.Token)
		r.Post("/auth/refresh", authH.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(am.Auth)

			// ---------- transactions ----------
			r.Post("/transactions", txH.Create)
			r.Get("/transactions", txH.List)
			r.Get("/transactions/{id}", txH.Get)
			r.Post("/transactions/{id}/confirm", txH.Confirm)
			r.Post("/transactions/{id}/cancel", txH.Cancel)
			r.With(middleware.RequireRole(auth.RoleOperator)).Post("/transactions/{id}/promote", txH.Promote)

			// ---------- risk ----------
			r.Post("/risk/evaluate", riskH.Evaluate)

			// ---------- balances ----------
			r.Get("/balances/current", balH.Current)
		})
	})

	return r
}
