package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace_admin/pkg/actor"
	"github.com/Skotchmaster/marketplace_admin/pkg/logging"
	"github.com/Skotchmaster/marketplace_admin/pkg/outbox"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/models"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/repo"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/transport"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/util"
)

type ProductService struct {
	*Deps
}

func NewProductService(d *Deps) *ProductService {
	return &ProductService{Deps: d}
}

// CreateProduct adds a pending product. Vendors always create for themselves;
// admins may create for a vendor or, with no vendorId, for the platform.
func (s *ProductService) CreateProduct(ctx context.Context, a actor.Actor, req transport.CreateProductRequest) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "product.create", "actor_id", a.ID, "role", a.Role.String())

	if err := requireRole(a, actor.RoleAdmin, actor.RoleVendor); err != nil {
		return nil, err
	}
	if err := s.validate(&req); err != nil {
		return nil, err
	}
	if err := checkAmount("originalPrice", req.OriginalPrice); err != nil {
		return nil, err
	}
	discounted := decimal.NullDecimal{}
	if req.DiscountedPrice != nil {
		if err := checkAmount("discountedPrice", *req.DiscountedPrice); err != nil {
			return nil, err
		}
		if req.DiscountedPrice.GreaterThan(req.OriginalPrice) {
			return nil, fmt.Errorf("%w: discountedPrice must be between 0 and originalPrice", ErrValidation)
		}
		discounted = decimal.NewNullDecimal(*req.DiscountedPrice)
	}

	vendorID := req.VendorID
	if a.IsVendor() {
		if vendorID != nil && *vendorID != a.ID {
			return nil, fmt.Errorf("%w: vendors may only create their own products", ErrForbidden)
		}
		if err := requireActiveVendor(ctx, s.Repo, a); err != nil {
			return nil, err
		}
		id := a.ID
		vendorID = &id
	} else if vendorID != nil {
		if _, err := s.Repo.GetVendor(ctx, *vendorID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: vendor %s does not exist", ErrValidation, *vendorID)
			}
			return nil, err
		}
	}

	now := s.now()
	p := &models.Product{
		VendorID:        vendorID,
		Name:            req.Name,
		Description:     req.Description,
		OriginalPrice:   req.OriginalPrice,
		DiscountedPrice: discounted,
		Quantity:        req.Quantity,
		Status:          models.ProductStatusPending,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	l.Info("product_create_success", "product_id", p.ID)
	return p, nil
}

// ListProducts: admins see every product, vendors their own, customers only
// active ones.
func (s *ProductService) ListProducts(ctx context.Context, a actor.Actor, q transport.ListProductsQuery) (*transport.Page[models.Product], error) {
	f := repo.ProductFilter{Status: q.Status, VendorID: q.VendorID}
	if f.Status != "" && !models.ProductStatus(f.Status).IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
	}
	switch a.Role {
	case actor.RoleAdmin:
	case actor.RoleVendor:
		f.VendorID = a.ID
	case actor.RoleCustomer:
		f.Status = string(models.ProductStatusActive)
	default:
		return nil, fmt.Errorf("%w: role %q", ErrForbidden, a.Role)
	}

	offset, limit := util.Calculate(q.Page, q.Size)
	total, out, err := s.Repo.ListProducts(ctx, f, offset, limit)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Product{}
	}
	return &transport.Page[models.Product]{Data: out, Meta: util.Meta(q.Page, q.Size, total)}, nil
}

func (s *ProductService) Transition(ctx context.Context, a actor.Actor, req transport.TransitionProductRequest) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "product.transition", "product_id", req.ProductID, "actor_id", a.ID, "role", a.Role.String())

	if err := s.validate(&req); err != nil {
		return nil, err
	}
	to := models.ProductStatus(req.Status)
	if !to.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, req.Status)
	}

	tctx, cancel := context.WithTimeout(ctx, s.opts().TransitionTimeout)
	defer cancel()

	var (
		updated *models.Product
		from    models.ProductStatus
	)
	err := s.Repo.Transaction(tctx, func(tx *repo.GormRepo) error {
		p, err := tx.LockProduct(tctx, req.ProductID)
		if err != nil {
			return notFound(err, "product", req.ProductID)
		}
		from = p.Status
		if err := AuthorizeProduct(a, p); err != nil {
			return err
		}
		if err := requireActiveVendor(tctx, tx, a); err != nil {
			return err
		}
		if _, err := ProductLifecycle.Check(a.Role, p.Status, to); err != nil {
			return lifecycleErr(err)
		}

		now := s.now()
		readVersion := p.Version
		p.Status = to
		p.UpdatedAt = now
		p.Version = readVersion + 1
		if err := tx.UpdateProductStatus(tctx, p, readVersion); err != nil {
			if errors.Is(err, repo.ErrStaleVersion) {
				return fmt.Errorf("%w: product %s was changed by another request", ErrConflict, p.ID)
			}
			return err
		}
		if err := tx.Enqueue(tctx, TopicProductEvents, outbox.NewEvent(EventProductStatusChanged, p.ID, now, statusChangedPayload{
			ID: p.ID, From: string(from), To: string(to), ActorID: a.ID, ActorRole: a.Role.String(),
		})); err != nil {
			return err
		}
		updated = p
		return nil
	})
	err = deadline(tctx, err)
	s.observe("product", string(from), string(to), err)
	if err != nil {
		l.Warn("product_transition_error", "from", string(from), "to", string(to), "code", Code(err), "error", err)
		return nil, err
	}

	l.Info("product_transition_success", "from", string(from), "to", string(to))
	return updated, nil
}
