package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace_admin/pkg/actor"
	"github.com/Skotchmaster/marketplace_admin/pkg/logging"
	"github.com/Skotchmaster/marketplace_admin/pkg/outbox"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/models"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/repo"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/transport"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/util"
)

type VendorService struct {
	*Deps
}

func NewVendorService(d *Deps) *VendorService {
	return &VendorService{Deps: d}
}

type statusChangedPayload struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	ActorID   string `json:"actorId"`
	ActorRole string `json:"actorRole"`
}

func (s *VendorService) CreateVendor(ctx context.Context, a actor.Actor, req transport.CreateVendorRequest) (*models.Vendor, error) {
	l := logging.FromContext(ctx).With("svc", "vendor.create", "actor_id", a.ID)

	if err := requireRole(a, actor.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validate(&req); err != nil {
		return nil, err
	}

	now := s.now()
	v := &models.Vendor{
		ID:        strings.TrimSpace(req.VendorID),
		Name:      req.Name,
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Status:    models.VendorStatusPending,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if v.ID != "" {
		if _, err := s.Repo.GetVendor(ctx, v.ID); err == nil {
			return nil, fmt.Errorf("%w: vendor %s already exists", ErrConflict, v.ID)
		}
	}
	taken, err := s.Repo.VendorEmailTaken(ctx, v.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: email %s is already registered", ErrConflict, v.Email)
	}
	if _, err := s.Repo.CreateVendor(ctx, v); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: vendor with this id or email already exists", ErrConflict)
		}
		return nil, err
	}

	l.Info("vendor_create_success", "vendor_id", v.ID)
	return v, nil
}

// GetVendor is open to admins and to the vendor itself.
func (s *VendorService) GetVendor(ctx context.Context, a actor.Actor, id string) (*models.Vendor, error) {
	if !a.IsAdmin() && !(a.IsVendor() && a.ID == id) {
		return nil, fmt.Errorf("%w: vendor %s", ErrForbidden, id)
	}
	v, err := s.Repo.GetVendor(ctx, id)
	if err != nil {
		return nil, notFound(err, "vendor", id)
	}
	return v, nil
}

func (s *VendorService) ListVendors(ctx context.Context, a actor.Actor, q transport.ListVendorsQuery) (*transport.Page[models.Vendor], error) {
	if err := requireRole(a, actor.RoleAdmin); err != nil {
		return nil, err
	}
	if q.Status != "" && !models.VendorStatus(q.Status).IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, q.Status)
	}
	offset, limit := util.Calculate(q.Page, q.Size)
	total, out, err := s.Repo.ListVendors(ctx, q.Status, offset, limit)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Vendor{}
	}
	return &transport.Page[models.Vendor]{Data: out, Meta: util.Meta(q.Page, q.Size, total)}, nil
}

// Transition is admin-only on every edge; vendors cannot change their own status.
func (s *VendorService) Transition(ctx context.Context, a actor.Actor, req transport.TransitionVendorRequest) (*models.Vendor, error) {
	l := logging.FromContext(ctx).With("svc", "vendor.transition", "vendor_id", req.VendorID, "actor_id", a.ID)

	if err := requireRole(a, actor.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validate(&req); err != nil {
		return nil, err
	}
	to := models.VendorStatus(req.Status)
	if !to.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, req.Status)
	}

	tctx, cancel := context.WithTimeout(ctx, s.opts().TransitionTimeout)
	defer cancel()

	var (
		updated *models.Vendor
		from    models.VendorStatus
	)
	err := s.Repo.Transaction(tctx, func(tx *repo.GormRepo) error {
		v, err := tx.LockVendor(tctx, req.VendorID)
		if err != nil {
			return notFound(err, "vendor", req.VendorID)
		}
		from = v.Status
		if _, err := VendorLifecycle.Check(a.Role, v.Status, to); err != nil {
			return lifecycleErr(err)
		}

		now := s.now()
		readVersion := v.Version
		v.Status = to
		v.UpdatedAt = now
		v.Version = readVersion + 1
		if err := tx.UpdateVendorStatus(tctx, v, readVersion); err != nil {
			if errors.Is(err, repo.ErrStaleVersion) {
				return fmt.Errorf("%w: vendor %s was changed by another request", ErrConflict, v.ID)
			}
			return err
		}
		if err := tx.Enqueue(tctx, TopicVendorEvents, outbox.NewEvent(EventVendorStatusChanged, v.ID, now, statusChangedPayload{
			ID: v.ID, From: string(from), To: string(to), ActorID: a.ID, ActorRole: a.Role.String(),
		})); err != nil {
			return err
		}
		updated = v
		return nil
	})
	err = deadline(tctx, err)
	s.observe("vendor", string(from), string(to), err)
	if err != nil {
		l.Warn("vendor_transition_error", "from", string(from), "to", string(to), "code", Code(err), "error", err)
		return nil, err
	}

	l.Info("vendor_transition_success", "from", string(from), "to", string(to))
	return updated, nil
}
