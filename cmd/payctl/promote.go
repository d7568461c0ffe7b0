package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/baharkarakas/payments-core/internal/audit"
	"github.com/baharkarakas/payments-core/internal/config"
	"github.com/baharkarakas/payments-core/internal/db"
	"github.com/baharkarakas/payments-core/internal/logger"
	"github.com/baharkarakas/payments-core/internal/repository/postgres"
	"github.com/baharkarakas/payments-core/internal/risk"
	"github.com/baharkarakas/payments-core/internal/services"
	"github.com/baharkarakas/payments-core/internal/worker"
)

func promoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "promote <transaction-id>",
		Short: "Promote a SCHEDULED transaction now and run it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required")
			}
			slog.SetDefault(logger.New(cfg.Env, cfg.LogLevel))

			pool, err := db.NewPool(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			repos := postgres.NewRepositories(pool)
			wp := worker.NewPool(1, 16)
			defer wp.Stop()

			svc := services.NewTransactionService(
				repos.Transactions,
				repos.Balances,
				audit.NewAsyncSink(repos.AuditLogs, wp),
				risk.NewEngine(risk.Rules(cfg.RiskHighValueThreshold, cfg.RiskMaxAttempts)...),
				services.WithLocation(cfg.Location()),
			)

			tx, found, err := svc.Promote(cmd.Context(), args[0])
			if !found && err == nil {
				return fmt.Errorf("transaction %s not found", args[0])
			}
			if found {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(tx); encErr != nil {
					return encErr
				}
			}
			return err
		},
	}
	return cmd
}
