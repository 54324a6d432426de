package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace_admin/pkg/actor"
	"github.com/Skotchmaster/marketplace_admin/pkg/lifecycle"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/models"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/repo"
)

// AuthorizeOrder decides whether a may change o at all; which edge is allowed
// is the lifecycle table's business.
func AuthorizeOrder(a actor.Actor, o *models.Order) error {
	switch a.Role {
	case actor.RoleAdmin:
		return nil
	case actor.RoleVendor:
		if o.BelongsToVendor(a.ID) {
			return nil
		}
		return fmt.Errorf("%w: order %s does not belong to vendor %s", ErrForbidden, o.ID, a.ID)
	default:
		return fmt.Errorf("%w: role %q may not change order status", ErrForbidden, a.Role)
	}
}

// Authorize is the pure decision for one requested order transition. It
// returns the accepted edge so the caller can apply its effect.
func Authorize(a actor.Actor, o *models.Order, to models.OrderStatus) (lifecycle.Edge[models.OrderStatus], error) {
	if err := AuthorizeOrder(a, o); err != nil {
		return lifecycle.Edge[models.OrderStatus]{}, err
	}
	edge, err := OrderLifecycle.Check(a.Role, o.Status, to)
	if err != nil {
		return lifecycle.Edge[models.OrderStatus]{}, lifecycleErr(err)
	}
	return edge, nil
}

// CanViewOrder is the read-side rule: admins see everything, vendors their own
// orders, customers the orders placed for them.
func CanViewOrder(a actor.Actor, o *models.Order) bool {
	switch a.Role {
	case actor.RoleAdmin:
		return true
	case actor.RoleVendor:
		return o.BelongsToVendor(a.ID)
	case actor.RoleCustomer:
		return o.CustomerID == a.ID
	}
	return false
}

func AuthorizeProduct(a actor.Actor, p *models.Product) error {
	switch a.Role {
	case actor.RoleAdmin:
		return nil
	case actor.RoleVendor:
		if p.BelongsToVendor(a.ID) {
			return nil
		}
		return fmt.Errorf("%w: product %s does not belong to vendor %s", ErrForbidden, p.ID, a.ID)
	default:
		return fmt.Errorf("%w: role %q may not change product status", ErrForbidden, a.Role)
	}
}

// requireActiveVendor blocks vendors that are unknown, pending, suspended or
// rejected from acting on their orders and products. Non-vendors pass.
func requireActiveVendor(ctx context.Context, r *repo.GormRepo, a actor.Actor) error {
	if a.Role != actor.RoleVendor {
		return nil
	}
	v, err := r.GetVendor(ctx, a.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: vendor %s is not registered", ErrForbidden, a.ID)
	}
	if err != nil {
		return err
	}
	if !v.IsActive() {
		return fmt.Errorf("%w: vendor %s is %s", ErrForbidden, a.ID, v.Status)
	}
	return nil
}

func requireRole(a actor.Actor, roles ...actor.Role) error {
	for _, r := range roles {
		if a.Role == r {
			return nil
		}
	}
	return fmt.Errorf("%w: role %q is not allowed", ErrForbidden, a.Role)
}
