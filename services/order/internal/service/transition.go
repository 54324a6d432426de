package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/marketplace_admin/pkg/actor"
	"github.com/Skotchmaster/marketplace_admin/pkg/logging"
	"github.com/Skotchmaster/marketplace_admin/pkg/outbox"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/models"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/repo"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/transport"
)

type orderStatusChangedPayload struct {
	OrderID    string  `json:"orderId"`
	CustomerID string  `json:"customerId"`
	VendorID   *string `json:"vendorId,omitempty"`
	From       string  `json:"from"`
	To         string  `json:"to"`
	TrackingID *string `json:"trackingId,omitempty"`
	ActorID    string  `json:"actorId"`
	ActorRole  string  `json:"actorRole"`
}

// Transition moves one order along the lifecycle table. The order row is
// locked for the whole read-modify-write, every side effect shares the
// transaction, and the final write is a compare-and-swap on Version.
//
// Failure order is NotFound, Forbidden, InvalidTransition (or Forbidden when
// the edge exists but not for this role), then ValidationError for a
// trackingId sent with any target other than shipped.
func (s *OrderService) Transition(ctx context.Context, a actor.Actor, req transport.TransitionOrderRequest) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.transition", "order_id", req.OrderID, "actor_id", a.ID, "role", a.Role.String())

	if err := s.validate(&req); err != nil {
		return nil, err
	}
	to := models.OrderStatus(req.Status)
	if !to.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, req.Status)
	}
	var tracking *string
	if req.TrackingID != nil {
		if t := strings.TrimSpace(*req.TrackingID); t != "" {
			tracking = &t
		}
	}

	tctx, cancel := context.WithTimeout(ctx, s.opts().TransitionTimeout)
	defer cancel()

	var (
		updated *models.Order
		from    models.OrderStatus
	)
	err := s.Repo.Transaction(tctx, func(tx *repo.GormRepo) error {
		order, err := tx.LockOrder(tctx, req.OrderID)
		if err != nil {
			return notFound(err, "order", req.OrderID)
		}
		from = order.Status

		if err := requireActiveVendor(tctx, tx, a); err != nil {
			return err
		}
		edge, err := Authorize(a, order, to)
		if err != nil {
			return err
		}
		if tracking != nil && edge.Effect != EffectAcceptTracking {
			return fmt.Errorf("%w: trackingId is only accepted when moving an order to shipped", ErrValidation)
		}

		now := s.now()
		switch edge.Effect {
		case EffectReleaseStock:
			for _, it := range order.Items {
				if err := tx.ReleaseStock(tctx, it.ProductID, it.Quantity); err != nil {
					return err
				}
			}
		case EffectAcceptTracking:
			if tracking != nil {
				order.TrackingID = tracking
			}
		case EffectFinalizePayout:
			if order.VendorID != nil {
				p := models.NewPayout(order.ID, *order.VendorID, order.TotalAmount, s.opts().CommissionRate)
				p.CreatedAt = now
				if err := tx.CreatePayout(tctx, &p); err != nil {
					return err
				}
			}
		}

		readVersion := order.Version
		order.Status = to
		order.UpdatedAt = now
		order.Version = readVersion + 1
		if err := tx.UpdateOrderStatus(tctx, order, readVersion); err != nil {
			if errors.Is(err, repo.ErrStaleVersion) {
				return fmt.Errorf("%w: order %s was changed by another request", ErrConflict, order.ID)
			}
			return err
		}

		if err := tx.AddOrderStatusChange(tctx, &models.OrderStatusChange{
			OrderID:    order.ID,
			From:       from,
			To:         to,
			ActorID:    a.ID,
			ActorRole:  a.Role.String(),
			TrackingID: tracking,
			CreatedAt:  now,
		}); err != nil {
			return err
		}

		if err := tx.Enqueue(tctx, TopicOrderEvents, outbox.NewEvent(EventOrderStatusChanged, order.ID, now, orderStatusChangedPayload{
			OrderID:    order.ID,
			CustomerID: order.CustomerID,
			VendorID:   order.VendorID,
			From:       string(from),
			To:         string(to),
			TrackingID: order.TrackingID,
			ActorID:    a.ID,
			ActorRole:  a.Role.String(),
		})); err != nil {
			return err
		}

		updated = order
		return nil
	})
	s.observe("order", string(from), string(to), deadline(tctx, err))
	if err != nil {
		err = deadline(tctx, err)
		if Code(err) == CodeInternal || Code(err) == CodeTimeout {
			l.Error("order_transition_error", "from", string(from), "to", string(to), "error", err)
		} else {
			l.Warn("order_transition_rejected", "from", string(from), "to", string(to), "code", Code(err), "error", err)
		}
		return nil, err
	}

	l.Info("order_transition_success", "from", string(from), "to", string(to))
	return updated, nil
}
