package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace_admin/services/order/internal/models"
)

type ProductFilter struct {
	Status   string
	VendorID string
}

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) (*models.Product, error) {
	if err := r.DB.WithContext(ctx).Create(prod).Error; err != nil {
		return nil, err
	}
	return prod, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var prod models.Product
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&prod).Error; err != nil {
		return nil, err
	}
	return &prod, nil
}

func (r *GormRepo) LockProduct(ctx context.Context, id string) (*models.Product, error) {
	var prod models.Product
	if err := r.forUpdate(r.DB.WithContext(ctx)).Where("id = ?", id).First(&prod).Error; err != nil {
		return nil, err
	}
	return &prod, nil
}

func (r *GormRepo) UpdateProductStatus(ctx context.Context, prod *models.Product, readVersion int) error {
	fields := map[string]any{
		"status":     string(prod.Status),
		"updated_at": prod.UpdatedAt,
		"version":    prod.Version,
	}
	return r.casUpdate(ctx, prod, readVersion, fields)
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter, offset, limit int) (int64, []models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.VendorID != "" {
		q = q.Where("vendor_id = ?", f.VendorID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	if err := q.Order("created_at DESC").Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// stockUpdate skips the status hooks; stock changes never touch status.
func (r *GormRepo) stockUpdate(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).Session(&gorm.Session{SkipHooks: true}).Model(&models.Product{})
}

// ReserveStock takes qty units from an active product. The guard lives in the
// UPDATE itself so concurrent reservations cannot oversell.
func (r *GormRepo) ReserveStock(ctx context.Context, productID string, qty int) error {
	res := r.stockUpdate(ctx).
		Where("id = ? AND status = ? AND quantity >= ?", productID, string(models.ProductStatusActive), qty).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity - ?", qty),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: product %s", ErrStockUnavailable, productID)
	}
	return nil
}

// ReleaseStock returns qty units regardless of the product's current status.
func (r *GormRepo) ReleaseStock(ctx context.Context, productID string, qty int) error {
	res := r.stockUpdate(ctx).
		Where("id = ?", productID).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", qty),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("release stock: product %s is missing", productID)
	}
	return nil
}
