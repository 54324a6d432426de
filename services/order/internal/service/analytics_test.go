package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace_admin/services/order/internal/models"
)

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedProduct(t, "P1", "V1", 10, models.ProductStatusActive)
	env.seedOrder(t, "O1", "V1", models.OrderStatusShipped)
	env.seedOrder(t, "O2", "V1", models.OrderStatusPending)
	env.seedOrder(t, "O3", "V2", models.OrderStatusShipped)
	env.seedOrder(t, "O4", "", models.OrderStatusPending)

	_, err := env.Orders.Transition(ctx, vendor1, transition("O1", "delivered"))
	require.NoError(t, err)
	_, err = env.Orders.Transition(ctx, vendor2, transition("O3", "delivered"))
	require.NoError(t, err)

	all, err := env.Orders.Stats(ctx, admin, "")
	require.NoError(t, err)
	assert.Nil(t, all.VendorID)
	assert.Equal(t, int64(4), all.TotalOrders)
	assert.Equal(t, int64(2), all.ByStatus["delivered"])
	assert.Equal(t, int64(2), all.ByStatus["pending"])
	assert.Zero(t, all.ByStatus["cancelled"])
	assert.Len(t, all.ByStatus, len(models.OrderStatuses))
	assert.True(t, all.DeliveredRevenue.Equal(dec("50")), all.DeliveredRevenue.String())
	assert.True(t, all.PayoutTotal.Equal(dec("45")), all.PayoutTotal.String())

	own, err := env.Orders.Stats(ctx, vendor1, "V2")
	require.NoError(t, err)
	require.NotNil(t, own.VendorID)
	assert.Equal(t, "V1", *own.VendorID)
	assert.Equal(t, int64(2), own.TotalOrders)
	assert.True(t, own.PayoutTotal.Equal(dec("22.5")), own.PayoutTotal.String())

	_, err = env.Orders.Stats(ctx, customer, "")
	assert.ErrorIs(t, err, ErrForbidden)
}
