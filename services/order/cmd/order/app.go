package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	pkgdb "github.com/Skotchmaster/marketplace_admin/pkg/db"
	"github.com/Skotchmaster/marketplace_admin/pkg/logging"
	"github.com/Skotchmaster/marketplace_admin/pkg/metrics"
	"github.com/Skotchmaster/marketplace_admin/pkg/mykafka"
	"github.com/Skotchmaster/marketplace_admin/pkg/outbox"

	ordercfg "github.com/Skotchmaster/marketplace_admin/services/order/internal/config"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/repo"
)

// boot reads configuration, sets the default logger and opens the database.
func boot(ctx context.Context) (ordercfg.ServiceConfig, *slog.Logger, *gorm.DB, error) {
	cfg, err := ordercfg.FromEnv()
	if err != nil {
		return cfg, nil, nil, err
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	db, err := pkgdb.Open(openCtx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return cfg, logger, nil, fmt.Errorf("db open: %w", err)
	}
	return cfg, logger, db, nil
}

func migrate(ctx context.Context, r *repo.GormRepo) error {
	mctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	return r.Migrate(mctx)
}

// newRelay wires the outbox to Kafka. The caller owns the returned producer.
func newRelay(cfg ordercfg.ServiceConfig, db *gorm.DB, logger *slog.Logger, m *metrics.Metrics) (*outbox.Relay, *mykafka.Producer, error) {
	producer, err := mykafka.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		return nil, nil, err
	}
	relay := &outbox.Relay{
		DB:        db,
		Publisher: producer,
		Logger:    logger,
		BatchSize: cfg.OutboxBatchSize,
		Interval:  cfg.OutboxPollInterval,
	}
	if m != nil {
		relay.OnPublish = m.ObservePublish
	}
	return relay, producer, nil
}

// background runs the relay loop until Stop. Stop is safe on a nil value and
// may be called more than once.
type background struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func startBackground(ctx context.Context, logger *slog.Logger, run func(context.Context) error) *background {
	ctx, cancel := context.WithCancel(ctx)
	b := &background{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(b.done)
		if err := run(ctx); err != nil {
			logger.Error("outbox_relay_stopped", "error", err)
		}
	}()
	return b
}

func (b *background) Stop() {
	if b == nil {
		return
	}
	b.cancel()
	<-b.done
}
