package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/marketplace_admin/pkg/actor"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/models"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/transport"
)

// Stats aggregates orders per status. Vendors always get their own scope;
// admins get the platform unless vendorID narrows it.
func (s *OrderService) Stats(ctx context.Context, a actor.Actor, vendorID string) (*transport.OrderStats, error) {
	switch a.Role {
	case actor.RoleAdmin:
	case actor.RoleVendor:
		vendorID = a.ID
	default:
		return nil, fmt.Errorf("%w: role %q may not read analytics", ErrForbidden, a.Role)
	}

	rows, err := s.Repo.OrderStatusTotals(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	out := &transport.OrderStats{
		ByStatus:         make(map[string]int64, len(models.OrderStatuses)),
		DeliveredRevenue: decimal.Zero,
	}
	if vendorID != "" {
		out.VendorID = &vendorID
	}
	for _, st := range models.OrderStatuses {
		out.ByStatus[string(st)] = 0
	}
	for _, r := range rows {
		out.ByStatus[r.Status] = r.Count
		out.TotalOrders += r.Count
		if r.Status == string(models.OrderStatusDelivered) {
			out.DeliveredRevenue = r.Amount
		}
	}

	out.PayoutTotal, err = s.Repo.PayoutTotal(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	return out, nil
}
