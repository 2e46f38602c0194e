package main

import (
	"github.com/spf13/cobra"
	"github.com/yakoovad/perftest-admin/internal/db"
	"go.uber.org/zap"
)

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := db.Migrate(cmd.Context(), pool, a.logger)
			if err != nil {
				return err
			}
			a.logger.Info("migrations complete", zap.Strings("applied", applied))
			return nil
		},
	}
}
