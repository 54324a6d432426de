package main

import (
	"github.com/spf13/cobra"

	pkgdb "github.com/Skotchmaster/marketplace_admin/pkg/db"

	"github.com/Skotchmaster/marketplace_admin/services/order/internal/repo"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the order, vendor, product, payout and outbox tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, logger, db, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = pkgdb.Close(db) }()

		if err := migrate(cmd.Context(), repo.New(db)); err != nil {
			return err
		}
		logger.Info("migrations_applied")
		return nil
	},
}
