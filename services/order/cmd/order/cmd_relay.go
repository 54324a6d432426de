package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	pkgdb "github.com/Skotchmaster/marketplace_admin/pkg/db"
	"github.com/Skotchmaster/marketplace_admin/pkg/outbox"
)

var (
	relayOnce      bool
	relayRetention time.Duration
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Publish pending outbox events to Kafka",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, logger, db, err := boot(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = pkgdb.Close(db) }()

		relay, producer, err := newRelay(cfg, db, logger, nil)
		if err != nil {
			return err
		}
		defer func() { _ = producer.Close() }()

		if relayRetention > 0 {
			purged, err := outbox.Purge(ctx, db, time.Now().UTC().Add(-relayRetention))
			if err != nil {
				return err
			}
			logger.Info("outbox_purged", "rows", purged, "retention", relayRetention.String())
		}

		if relayOnce {
			n, err := relay.Flush(ctx)
			if err != nil {
				return err
			}
			pending, err := outbox.CountPending(ctx, db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %d events, %d pending\n", n, pending)
			return nil
		}
		return relay.Run(ctx)
	},
}

func init() {
	relayCmd.Flags().BoolVar(&relayOnce, "once", false, "flush one batch and exit")
	relayCmd.Flags().DurationVar(&relayRetention, "purge-sent-after", 0, "delete sent events older than this before relaying (0 keeps them)")
}
