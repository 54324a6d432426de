package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"SERVICE_NAME", "DATABASE_URL", "JWT_SECRET", "AUTO_MIGRATE", "COMMISSION_RATE",
		"TRANSITION_TIMEOUT", "IDEMPOTENCY_TTL", "OUTBOX_POLL_INTERVAL", "OUTBOX_BATCH_SIZE",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/orders")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "order", cfg.ServiceName)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, 5*time.Second, cfg.TransitionTimeout)
	assert.True(t, cfg.CommissionRate.Equal(decimal.RequireFromString("0.10")))
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, time.Second, cfg.OutboxPollInterval)
	assert.Equal(t, 100, cfg.OutboxBatchSize)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/orders")
	t.Setenv("AUTO_MIGRATE", "true")
	t.Setenv("COMMISSION_RATE", "0.15")
	t.Setenv("TRANSITION_TIMEOUT", "2s")
	t.Setenv("OUTBOX_POLL_INTERVAL", "250ms")
	t.Setenv("OUTBOX_BATCH_SIZE", "0")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.AutoMigrate)
	assert.True(t, cfg.CommissionRate.Equal(decimal.RequireFromString("0.15")))
	assert.Equal(t, 2*time.Second, cfg.TransitionTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.OutboxPollInterval)
	assert.Equal(t, 100, cfg.OutboxBatchSize)
}

func TestFromEnv_Errors(t *testing.T) {
	clearEnv(t)
	_, err := FromEnv()
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://localhost/orders")
	for _, rate := range []string{"abc", "-0.1", "1.5"} {
		t.Setenv("COMMISSION_RATE", rate)
		_, err = FromEnv()
		assert.ErrorContains(t, err, "COMMISSION_RATE", rate)
	}
}
