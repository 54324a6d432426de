package repo

import (
	"context"

	"github.com/Skotchmaster/marketplace_admin/services/order/internal/models"
)

func (r *GormRepo) CreateVendor(ctx context.Context, v *models.Vendor) (*models.Vendor, error) {
	if err := r.DB.WithContext(ctx).Create(v).Error; err != nil {
		return nil, err
	}
	return v, nil
}

func (r *GormRepo) GetVendor(ctx context.Context, id string) (*models.Vendor, error) {
	var v models.Vendor
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *GormRepo) VendorEmailTaken(ctx context.Context, email string) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Vendor{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormRepo) LockVendor(ctx context.Context, id string) (*models.Vendor, error) {
	var v models.Vendor
	if err := r.forUpdate(r.DB.WithContext(ctx)).Where("id = ?", id).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *GormRepo) UpdateVendorStatus(ctx context.Context, v *models.Vendor, readVersion int) error {
	fields := map[string]any{
		"status":     string(v.Status),
		"updated_at": v.UpdatedAt,
		"version":    v.Version,
	}
	return r.casUpdate(ctx, v, readVersion, fields)
}

func (r *GormRepo) ListVendors(ctx context.Context, status string, offset, limit int) (int64, []models.Vendor, error) {
	q := r.DB.WithContext(ctx).Model(&models.Vendor{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var out []models.Vendor
	if err := q.Order("created_at DESC").Order("id ASC").Offset(offset).Limit(limit).Find(&out).Error; err != nil {
		return 0, nil, err
	}
	return total, out, nil
}
