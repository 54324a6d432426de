package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace_admin/pkg/actor"
	"github.com/Skotchmaster/marketplace_admin/pkg/idempotency"
	"github.com/Skotchmaster/marketplace_admin/pkg/logging"
	"github.com/Skotchmaster/marketplace_admin/pkg/outbox"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/models"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/repo"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/transport"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/util"
)

type OrderService struct {
	*Deps
}

func NewOrderService(d *Deps) *OrderService {
	return &OrderService{Deps: d}
}

func NewOrderID(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

type orderCreatedPayload struct {
	OrderID     string          `json:"orderId"`
	CustomerID  string          `json:"customerId"`
	VendorID    *string         `json:"vendorId,omitempty"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	ItemCount   int             `json:"itemCount"`
	Status      string          `json:"status"`
}

// CreateOrder places a new pending order and reserves its stock. replayed is
// true when idemKey matched an earlier request by the same actor; the order
// from that request is returned unchanged.
func (s *OrderService) CreateOrder(ctx context.Context, a actor.Actor, req transport.CreateOrderRequest, idemKey string) (order *models.Order, replayed bool, err error) {
	l := logging.FromContext(ctx).With("svc", "order.create", "actor_id", a.ID, "role", a.Role.String())

	switch a.Role {
	case actor.RoleAdmin:
	case actor.RoleCustomer:
		if req.CustomerID == "" {
			req.CustomerID = a.ID
		}
		if req.CustomerID != a.ID {
			return nil, false, fmt.Errorf("%w: customers may only place orders for themselves", ErrForbidden)
		}
	default:
		return nil, false, fmt.Errorf("%w: role %q may not create orders", ErrForbidden, a.Role)
	}

	if err := s.validate(&req); err != nil {
		return nil, false, err
	}
	if strings.TrimSpace(req.CustomerID) == "" {
		return nil, false, fmt.Errorf("%w: customerId is required", ErrValidation)
	}
	items, total, err := buildItems(req)
	if err != nil {
		return nil, false, err
	}

	var key string
	if idemKey != "" && s.Idempotency != nil {
		if err := idempotency.Validate(idemKey); err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		key = idempotency.Scoped("order.create", a.ID, idemKey)
		prevID, claimErr := s.claim(ctx, key)
		if claimErr != nil {
			return nil, false, claimErr
		}
		if prevID != "" {
			prev, getErr := s.Repo.GetOrder(ctx, prevID)
			if getErr != nil {
				return nil, false, notFound(getErr, "order", prevID)
			}
			l.Info("order_create_replayed", "order_id", prev.ID)
			return prev, true, nil
		}
		defer func() {
			if err != nil {
				if relErr := s.Idempotency.Release(context.WithoutCancel(ctx), key); relErr != nil {
					l.Warn("idempotency_release_error", "error", relErr)
				}
			}
		}()
	}

	now := s.now()
	order = &models.Order{
		ID:              NewOrderID(now),
		CustomerID:      req.CustomerID,
		VendorID:        req.VendorID,
		Items:           items,
		TotalAmount:     total,
		Status:          models.OrderStatusPending,
		PaymentMethod:   req.PaymentMethod,
		PaymentID:       req.PaymentID,
		ShippingAddress: address(req.ShippingAddress),
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	tctx, cancel := context.WithTimeout(ctx, s.opts().TransitionTimeout)
	defer cancel()

	err = s.Repo.Transaction(tctx, func(tx *repo.GormRepo) error {
		if order.VendorID != nil {
			v, err := tx.GetVendor(tctx, *order.VendorID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: vendor %s does not exist", ErrValidation, *order.VendorID)
			}
			if err != nil {
				return err
			}
			if !v.IsActive() {
				return fmt.Errorf("%w: vendor %s is %s", ErrValidation, v.ID, v.Status)
			}
		}
		for i, it := range order.Items {
			if err := checkCatalogItem(tctx, tx, order.VendorID, i, it); err != nil {
				return err
			}
			if err := tx.ReserveStock(tctx, it.ProductID, it.Quantity); err != nil {
				if errors.Is(err, repo.ErrStockUnavailable) {
					return fmt.Errorf("%w: product %s is not available in quantity %d", ErrValidation, it.ProductID, it.Quantity)
				}
				return err
			}
		}
		if _, err := tx.CreateOrder(tctx, order); err != nil {
			return err
		}
		if err := tx.AddOrderStatusChange(tctx, &models.OrderStatusChange{
			OrderID:   order.ID,
			To:        models.OrderStatusPending,
			ActorID:   a.ID,
			ActorRole: a.Role.String(),
			CreatedAt: now,
		}); err != nil {
			return err
		}
		return tx.Enqueue(tctx, TopicOrderEvents, outbox.NewEvent(EventOrderCreated, order.ID, now, orderCreatedPayload{
			OrderID:     order.ID,
			CustomerID:  order.CustomerID,
			VendorID:    order.VendorID,
			TotalAmount: order.TotalAmount,
			ItemCount:   len(order.Items),
			Status:      string(order.Status),
		}))
	})
	if err != nil {
		err = deadline(tctx, err)
		l.Warn("order_create_error", "code", Code(err), "error", err)
		return nil, false, err
	}

	if key != "" {
		if err := s.Idempotency.Complete(ctx, key, order.ID, s.opts().IdempotencyTTL); err != nil {
			l.Warn("idempotency_complete_error", "order_id", order.ID, "error", err)
		}
	}

	l.Info("order_create_success", "order_id", order.ID, "total", order.TotalAmount.String())
	return order, false, nil
}

// claim returns the id of an order already created under key, or "" when the
// caller now owns the key and must create the order.
func (s *OrderService) claim(ctx context.Context, key string) (string, error) {
	ttl := s.opts().IdempotencyTTL
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.Idempotency.Claim(ctx, key, ttl)
		if err != nil {
			return "", err
		}
		if ok {
			return "", nil
		}
		id, err := s.Idempotency.Lookup(ctx, key)
		switch {
		case err == nil:
			return id, nil
		case errors.Is(err, idempotency.ErrInFlight):
			return "", fmt.Errorf("%w: a request with this Idempotency-Key is still in progress", ErrConflict)
		case errors.Is(err, idempotency.ErrNotFound):
			// expired between Claim and Lookup
			continue
		default:
			return "", err
		}
	}
	return "", fmt.Errorf("%w: could not claim Idempotency-Key", ErrConflict)
}

func buildItems(req transport.CreateOrderRequest) ([]models.OrderItem, decimal.Decimal, error) {
	if req.TotalAmount == nil {
		return nil, decimal.Zero, fmt.Errorf("%w: totalAmount is required", ErrValidation)
	}
	if err := checkAmount("totalAmount", *req.TotalAmount); err != nil {
		return nil, decimal.Zero, err
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	sum := decimal.Zero
	for i, it := range req.Items {
		if err := checkAmount(fmt.Sprintf("items[%d].unitPrice", i), it.UnitPrice); err != nil {
			return nil, decimal.Zero, err
		}
		sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
		items = append(items, models.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	if !sum.Equal(*req.TotalAmount) {
		return nil, decimal.Zero, fmt.Errorf("%w: totalAmount %s does not match items total %s", ErrValidation, req.TotalAmount.String(), sum.String())
	}
	return items, *req.TotalAmount, nil
}

// checkCatalogItem holds an order line to the catalog: the product must be
// sold by the order's vendor (or the platform, for platform orders) at the
// price the line quotes.
func checkCatalogItem(ctx context.Context, tx *repo.GormRepo, vendorID *string, i int, it models.OrderItem) error {
	p, err := tx.GetProduct(ctx, it.ProductID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: product %s does not exist", ErrValidation, it.ProductID)
	}
	if err != nil {
		return err
	}
	if !p.SameVendor(vendorID) {
		return fmt.Errorf("%w: items[%d]: product %s is not sold by %s", ErrValidation, i, p.ID, sellerName(vendorID))
	}
	if price := p.EffectivePrice(); !it.UnitPrice.Equal(price) {
		return fmt.Errorf("%w: items[%d].unitPrice %s does not match the catalog price %s", ErrValidation, i, it.UnitPrice.String(), price.String())
	}
	return nil
}

func sellerName(vendorID *string) string {
	if vendorID == nil {
		return "the platform"
	}
	return "vendor " + *vendorID
}

func address(a transport.AddressRequest) models.Address {
	return models.Address{
		Name:       a.Name,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
	}
}

// GetOrder hides orders outside the actor's scope behind ErrNotFound.
func (s *OrderService) GetOrder(ctx context.Context, a actor.Actor, id string) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "order", id)
	}
	if !CanViewOrder(a, order) {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, id)
	}
	return order, nil
}

func (s *OrderService) History(ctx context.Context, a actor.Actor, id string) ([]models.OrderStatusChange, error) {
	if _, err := s.GetOrder(ctx, a, id); err != nil {
		return nil, err
	}
	return s.Repo.ListOrderStatusChanges(ctx, id)
}

// AllowedTransitions is the read-side view of Authorize: the targets a would
// be allowed to request for the order as it stands. Actors who may view but
// not change the order get an empty list.
func (s *OrderService) AllowedTransitions(ctx context.Context, a actor.Actor, id string) (*transport.AllowedTransitions, error) {
	order, err := s.GetOrder(ctx, a, id)
	if err != nil {
		return nil, err
	}
	out := &transport.AllowedTransitions{
		OrderID:  order.ID,
		Status:   string(order.Status),
		Terminal: OrderLifecycle.Terminal(order.Status),
		Next:     []string{},
	}
	if AuthorizeOrder(a, order) != nil {
		return out, nil
	}
	if err := requireActiveVendor(ctx, s.Repo, a); err != nil {
		if errors.Is(err, ErrForbidden) {
			return out, nil
		}
		return nil, err
	}
	for _, st := range OrderLifecycle.NextFor(a.Role, order.Status) {
		out.Next = append(out.Next, string(st))
	}
	return out, nil
}

// ListOrders scopes vendors to their own orders and customers to theirs,
// whatever filters they pass.
func (s *OrderService) ListOrders(ctx context.Context, a actor.Actor, q transport.ListOrdersQuery) (*transport.Page[models.Order], error) {
	f := repo.OrderFilter{Status: q.Status, VendorID: q.VendorID, CustomerID: q.CustomerID}
	if f.Status != "" && !models.OrderStatus(f.Status).IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
	}
	switch a.Role {
	case actor.RoleAdmin:
	case actor.RoleVendor:
		f.VendorID = a.ID
	case actor.RoleCustomer:
		f.CustomerID = a.ID
	default:
		return nil, fmt.Errorf("%w: role %q", ErrForbidden, a.Role)
	}

	offset, limit := util.Calculate(q.Page, q.Size)
	total, orders, err := s.Repo.ListOrders(ctx, f, offset, limit)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return &transport.Page[models.Order]{Data: orders, Meta: util.Meta(q.Page, q.Size, total)}, nil
}
