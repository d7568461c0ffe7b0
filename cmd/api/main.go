package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baharkarakas/payments-core/internal/api"
	"github.com/baharkarakas/payments-core/internal/audit"
	"github.com/baharkarakas/payments-core/internal/auth"
	"github.com/baharkarakas/payments-core/internal/config"
	"github.com/baharkarakas/payments-core/internal/db"
	"github.com/baharkarakas/payments-core/internal/logger"
	"github.com/baharkarakas/payments-core/internal/metrics"
	repo "github.com/baharkarakas/payments-core/internal/repository"
	"github.com/baharkarakas/payments-core/internal/repository/memory"
	"github.com/baharkarakas/payments-core/internal/repository/postgres"
	"github.com/baharkarakas/payments-core/internal/risk"
	"github.com/baharkarakas/payments-core/internal/scheduler"
	"github.com/baharkarakas/payments-core/internal/services"
	"github.com/baharkarakas/payments-core/internal/traces"
	"github.com/baharkarakas/payments-core/internal/worker"
)

type stores struct {
	transactions repo.Transactions
	balances     repo.Balances
	auditLogs    repo.AuditLogs
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := traces.Init(ctx, cfg.OTLPEndpoint, log)
	if err != nil {
		log.Error("tracing", "err", err)
		os.Exit(1)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	var st stores
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		mem := memory.NewRepositories()
		st = stores{mem.Transactions, mem.Balances, mem.AuditLogs}
	} else {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("db connect", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		if cfg.Migrate {
			if err := db.RunMigrations(ctx, pool); err != nil {
				log.Error("migrations", "err", err)
				os.Exit(1)
			}
		}
		pg := postgres.NewRepositories(pool)
		st = stores{pg.Transactions, pg.Balances, pg.AuditLogs}
	}

	wp := worker.NewPool(cfg.AuditWorkers, 1024)
	defer wp.Stop()

	engine := risk.NewEngine(risk.Rules(cfg.RiskHighValueThreshold, cfg.RiskMaxAttempts)...)
	txnSvc := services.NewTransactionService(
		st.transactions,
		st.balances,
		audit.NewAsyncSink(st.auditLogs, wp),
		engine,
		services.WithLocation(cfg.Location()),
	)
	tm := auth.NewTokenManager(cfg.JWTIssuer, cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	metrics.Init()
	r := api.NewRouter(cfg, tm, txnSvc)

	go scheduler.NewPromoter(txnSvc, cfg.SchedulerInterval, log).Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "env", cfg.Env, "risk_timezone", cfg.RiskTimezone)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
