package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/marketplace_admin/pkg/config"
)

type ServiceConfig struct {
	config.Config

	AutoMigrate bool

	TransitionTimeout time.Duration
	CommissionRate    decimal.Decimal
	IdempotencyTTL    time.Duration

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
}

// FromEnv reads the order service settings without exiting on bad input.
func FromEnv() (ServiceConfig, error) {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "order"
	}

	rate, err := decimal.NewFromString(config.EnvDefault("COMMISSION_RATE", "0.10"))
	if err != nil {
		return ServiceConfig{}, fmt.Errorf("COMMISSION_RATE: %w", err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return ServiceConfig{}, fmt.Errorf("COMMISSION_RATE must be within [0, 1], got %s", rate)
	}

	sc := ServiceConfig{
		Config:             cfg,
		AutoMigrate:        config.EnvDefault("AUTO_MIGRATE", "false") == "true",
		TransitionTimeout:  config.EnvDurationDefault("TRANSITION_TIMEOUT", 5*time.Second),
		CommissionRate:     rate,
		IdempotencyTTL:     config.EnvDurationDefault("IDEMPOTENCY_TTL", 24*time.Hour),
		OutboxPollInterval: config.EnvDurationDefault("OUTBOX_POLL_INTERVAL", time.Second),
		OutboxBatchSize:    config.EnvIntDefault("OUTBOX_BATCH_SIZE", 100),
	}
	if sc.OutboxBatchSize < 1 {
		sc.OutboxBatchSize = 100
	}

	if err := config.RequireNonEmpty(sc.DatabaseURL, "DATABASE_URL"); err != nil {
		return ServiceConfig{}, err
	}
	return sc, nil
}
