package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace_admin/pkg/actor"
	"github.com/Skotchmaster/marketplace_admin/pkg/outbox"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/models"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/transport"
)

func TestOrderTransition_VendorAdminWalkthrough(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedProduct(t, "P1", "V1", 10, models.ProductStatusActive)
	env.seedOrder(t, "O1", "V1", models.OrderStatusPending)

	o, err := env.Orders.Transition(ctx, vendor1, transition("O1", "processing"))
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, o.Status)

	_, err = env.Orders.Transition(ctx, vendor2, transition("O1", "shipped"))
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, models.OrderStatusProcessing, env.reload(t, "O1").Status)

	req := transition("O1", "shipped")
	req.TrackingID = strptr("TRK123")
	o, err = env.Orders.Transition(ctx, admin, req)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, o.Status)
	require.NotNil(t, o.TrackingID)
	assert.Equal(t, "TRK123", *o.TrackingID)

	o, err = env.Orders.Transition(ctx, vendor1, transition("O1", "delivered"))
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, o.Status)

	_, err = env.Orders.Transition(ctx, admin, transition("O1", "cancelled"))
	assert.ErrorIs(t, err, ErrInvalidTransition)

	final := env.reload(t, "O1")
	assert.Equal(t, models.OrderStatusDelivered, final.Status)
	require.NotNil(t, final.TrackingID)
	assert.Equal(t, "TRK123", *final.TrackingID)
	assert.Equal(t, 4, final.Version)

	history, err := env.Orders.History(ctx, admin, "O1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, models.OrderStatusPending, history[0].From)
	assert.Equal(t, models.OrderStatusProcessing, history[0].To)
	assert.Equal(t, "admin", history[1].ActorRole)
	assert.Equal(t, models.OrderStatusDelivered, history[2].To)
}

func TestOrderTransition_UnlistedPairLeavesOrderUnchanged(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrder(t, "O1", "V1", models.OrderStatusPending)

	_, err := env.Orders.Transition(context.Background(), admin, transition("O1", "delivered"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, CodeInvalidTransition, Code(err))

	o := env.reload(t, "O1")
	assert.Equal(t, models.OrderStatusPending, o.Status)
	assert.Equal(t, 1, o.Version)

	pending, err := outbox.CountPending(context.Background(), env.Deps.Repo.DB)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestOrderTransition_TerminalStatesRejectEverything(t *testing.T) {
	env := newTestEnv(t)

	for _, terminal := range []models.OrderStatus{models.OrderStatusDelivered, models.OrderStatusCancelled} {
		id := "T-" + string(terminal)
		env.seedOrder(t, id, "V1", terminal)
		for _, target := range models.OrderStatuses {
			for _, who := range []actor.Actor{admin, vendor1} {
				_, err := env.Orders.Transition(context.Background(), who, transition(id, string(target)))
				assert.ErrorIs(t, err, ErrInvalidTransition, "%s %s -> %s", who.Role, terminal, target)
			}
		}
		assert.Equal(t, terminal, env.reload(t, id).Status)
	}
}

func TestOrderTransition_Authorization(t *testing.T) {
	env := newTestEnv(t)
	env.seedVendor(t, "V3", models.VendorStatusSuspended)
	suspended := actor.Actor{ID: "V3", Role: actor.RoleVendor}
	unregistered := actor.Actor{ID: "V9", Role: actor.RoleVendor}

	tests := []struct {
		name   string
		who    actor.Actor
		from   models.OrderStatus
		vendor string
		to     string
	}{
		{"foreign vendor on valid edge", vendor2, models.OrderStatusPending, "V1", "processing"},
		{"foreign vendor on invalid edge", vendor2, models.OrderStatusPending, "V1", "delivered"},
		{"customer", customer, models.OrderStatusPending, "V1", "cancelled"},
		{"owner cancels processing", vendor1, models.OrderStatusProcessing, "V1", "cancelled"},
		{"owner cancels shipped", vendor1, models.OrderStatusShipped, "V1", "cancelled"},
		{"vendor on platform order", vendor1, models.OrderStatusPending, "", "processing"},
		{"suspended owner", suspended, models.OrderStatusPending, "V3", "processing"},
		{"unregistered vendor", unregistered, models.OrderStatusPending, "V9", "processing"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := fmt.Sprintf("AZ-%d", i)
			env.seedOrder(t, id, tt.vendor, tt.from)

			_, err := env.Orders.Transition(context.Background(), tt.who, transition(id, tt.to))
			assert.ErrorIs(t, err, ErrForbidden)
			assert.Equal(t, CodeForbidden, Code(err))
			assert.Equal(t, tt.from, env.reload(t, id).Status)
		})
	}

	env.seedOrder(t, "AZ-admin", "V3", models.OrderStatusPending)
	_, err := env.Orders.Transition(context.Background(), admin, transition("AZ-admin", "processing"))
	assert.NoError(t, err, "admins may still move a suspended vendor's orders")
}

func TestOrderTransition_TrackingIDOnlyWhenShipping(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		from models.OrderStatus
		to   string
	}{
		{models.OrderStatusPending, "processing"},
		{models.OrderStatusPending, "cancelled"},
		{models.OrderStatusShipped, "delivered"},
	}
	for i, tt := range tests {
		id := "TRK-" + string(rune('a'+i))
		env.seedOrder(t, id, "V1", tt.from)
		req := transition(id, tt.to)
		req.TrackingID = strptr("TRK999")

		_, err := env.Orders.Transition(context.Background(), admin, req)
		assert.ErrorIs(t, err, ErrValidation, "%s -> %s", tt.from, tt.to)
		o := env.reload(t, id)
		assert.Equal(t, tt.from, o.Status)
		assert.Nil(t, o.TrackingID)
	}

	env.seedOrder(t, "TRK-ok", "V1", models.OrderStatusProcessing)
	o, err := env.Orders.Transition(context.Background(), vendor1, transition("TRK-ok", "shipped"))
	require.NoError(t, err)
	assert.Nil(t, o.TrackingID, "trackingId stays optional")
}

func TestOrderTransition_Validation(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrder(t, "O1", "V1", models.OrderStatusPending)

	_, err := env.Orders.Transition(context.Background(), admin, transition("O1", "refunded"))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.Orders.Transition(context.Background(), admin, transition("", "processing"))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.Orders.Transition(context.Background(), admin, transition("missing", "processing"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderTransition_CancelReleasesStock(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "P1", "V1", 10, models.ProductStatusActive)

	o, _, err := env.Orders.CreateOrder(context.Background(), customer, createReq("V1", 3), "")
	require.NoError(t, err)
	assert.Equal(t, 7, env.stock(t, "P1"))

	_, err = env.Orders.Transition(context.Background(), vendor1, transition(o.ID, "processing"))
	require.NoError(t, err)
	_, err = env.Orders.Transition(context.Background(), admin, transition(o.ID, "cancelled"))
	require.NoError(t, err)
	assert.Equal(t, 10, env.stock(t, "P1"))
}

func TestOrderTransition_FailedEffectRollsBack(t *testing.T) {
	env := newTestEnv(t)
	// order refers to P1, which does not exist, so releasing stock fails
	env.seedOrder(t, "O1", "V1", models.OrderStatusPending)

	_, err := env.Orders.Transition(context.Background(), admin, transition("O1", "cancelled"))
	require.Error(t, err)
	assert.Equal(t, CodeInternal, Code(err))

	o := env.reload(t, "O1")
	assert.Equal(t, models.OrderStatusPending, o.Status)
	history, err := env.Deps.Repo.ListOrderStatusChanges(context.Background(), "O1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestOrderTransition_DeliveryCreatesPayout(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrder(t, "O1", "V1", models.OrderStatusShipped)
	env.seedOrder(t, "O2", "", models.OrderStatusShipped)

	_, err := env.Orders.Transition(context.Background(), vendor1, transition("O1", "delivered"))
	require.NoError(t, err)

	p, err := env.Deps.Repo.GetPayoutByOrder(context.Background(), "O1")
	require.NoError(t, err)
	assert.Equal(t, "V1", p.VendorID)
	assert.True(t, p.GrossAmount.Equal(dec("25")), p.GrossAmount.String())
	assert.True(t, p.Commission.Equal(dec("2.5")), p.Commission.String())
	assert.True(t, p.NetAmount.Equal(dec("22.5")), p.NetAmount.String())

	_, err = env.Orders.Transition(context.Background(), admin, transition("O2", "delivered"))
	require.NoError(t, err)
	_, err = env.Deps.Repo.GetPayoutByOrder(context.Background(), "O2")
	assert.Error(t, err, "platform orders have no vendor payout")
}

func TestOrderTransition_ZeroCommission(t *testing.T) {
	env := newTestEnv(t)
	env.Deps.Options.CommissionRate = dec("0")
	env.seedOrder(t, "O1", "V1", models.OrderStatusShipped)

	_, err := env.Orders.Transition(context.Background(), admin, transition("O1", "delivered"))
	require.NoError(t, err)

	p, err := env.Deps.Repo.GetPayoutByOrder(context.Background(), "O1")
	require.NoError(t, err)
	assert.True(t, p.Commission.IsZero(), p.Commission.String())
	assert.True(t, p.NetAmount.Equal(dec("25")), p.NetAmount.String())
}

func TestOrderTransition_DeadlineIsRetryableTimeout(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrder(t, "O1", "V1", models.OrderStatusPending)
	env.Deps.Options.TransitionTimeout = time.Nanosecond

	_, err := env.Orders.Transition(context.Background(), admin, transition("O1", "processing"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, CodeTimeout, Code(err))
	assert.True(t, Retryable(err))

	o := env.reload(t, "O1")
	assert.Equal(t, models.OrderStatusPending, o.Status)
	assert.Equal(t, 1, o.Version)
	calls := env.Observer.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0], "->processing:TIMEOUT")
}

func TestOrderTransition_WritesOutboxEvent(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrder(t, "O1", "V1", models.OrderStatusPending)

	_, err := env.Orders.Transition(context.Background(), vendor1, transition("O1", "processing"))
	require.NoError(t, err)

	recs, err := outbox.FetchPending(context.Background(), env.Deps.Repo.DB, 10, false)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, TopicOrderEvents, recs[0].Topic)
	assert.Equal(t, "O1", recs[0].Key)
	assert.Contains(t, string(recs[0].Payload), `"type":"order.status_changed"`)
	assert.Contains(t, string(recs[0].Payload), `"to":"processing"`)

	assert.Contains(t, env.Observer.Calls(), "order:pending->processing:ok")
}

func TestOrderTransition_ConcurrentRequestsSerialize(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrder(t, "O1", "V1", models.OrderStatusPending)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.Orders.Transition(context.Background(), admin, transport.TransitionOrderRequest{OrderID: "O1", Status: "processing"})
		}(i)
	}
	wg.Wait()

	var ok, invalid int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case Code(err) == CodeInvalidTransition || Code(err) == CodeConflict:
			invalid++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, invalid)

	history, err := env.Deps.Repo.ListOrderStatusChanges(context.Background(), "O1")
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Equal(t, 2, env.reload(t, "O1").Version)
}

func TestOrderTransition_CompetingEdgesOneWins(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "P1", "V1", 10, models.ProductStatusActive)
	env.seedOrder(t, "O1", "V1", models.OrderStatusPending)

	targets := []string{"processing", "cancelled"}
	errs := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, to := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = env.Orders.Transition(context.Background(), vendor1, transition("O1", to))
		}()
	}
	wg.Wait()

	final := env.reload(t, "O1").Status
	won := 0
	for i, err := range errs {
		if err == nil {
			won++
			assert.Equal(t, models.OrderStatus(targets[i]), final)
			continue
		}
		// the loser sees the winner's state: processing->cancelled is admin-only,
		// cancelled->processing does not exist
		assert.Contains(t, []string{CodeForbidden, CodeInvalidTransition}, Code(err))
	}
	assert.Equal(t, 1, won)

	wantStock := 10
	if final == models.OrderStatusCancelled {
		wantStock = 12
	}
	assert.Equal(t, wantStock, env.stock(t, "P1"))
}
