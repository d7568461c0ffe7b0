package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/baharkarakas/payments-core/internal/config"
	"github.com/baharkarakas/payments-core/internal/db"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate [up|down|status|version|redo]",
		Short: "Run database migrations against DATABASE_URL",
		Long: `Apply the embedded goose migrations.

Examples:
  payctl migrate up
  payctl migrate status
  payctl migrate down`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down", "status", "version", "redo"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required")
			}
			pool, err := db.NewPool(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			return db.Migrate(cmd.Context(), pool, args[0])
		},
	}
	return cmd
}
