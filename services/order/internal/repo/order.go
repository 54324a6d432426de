package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace_admin/services/order/internal/models"
)

type OrderFilter struct {
	Status     string
	VendorID   string
	CustomerID string
}

func itemsByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	for i := range order.Items {
		order.Items[i].Position = i
	}
	if err := r.DB.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("Items", itemsByPosition).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// LockOrder loads the order for a read-modify-write inside a transaction.
func (r *GormRepo) LockOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	q := r.forUpdate(r.DB.WithContext(ctx))
	if err := q.Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	if err := r.DB.WithContext(ctx).Scopes(itemsByPosition).Where("order_id = ?", id).Find(&order.Items).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus persists Status, TrackingID, UpdatedAt and Version from
// order, guarded by the version the caller read.
func (r *GormRepo) UpdateOrderStatus(ctx context.Context, order *models.Order, readVersion int) error {
	fields := map[string]any{
		"status":      string(order.Status),
		"tracking_id": order.TrackingID,
		"updated_at":  order.UpdatedAt,
		"version":     order.Version,
	}
	return r.casUpdate(ctx, order, readVersion, fields)
}

func (r *GormRepo) ListOrders(ctx context.Context, f OrderFilter, offset, limit int) (int64, []models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.VendorID != "" {
		q = q.Where("vendor_id = ?", f.VendorID)
	}
	if f.CustomerID != "" {
		q = q.Where("customer_id = ?", f.CustomerID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var orders []models.Order
	if err := q.Preload("Items", itemsByPosition).Order("created_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

func (r *GormRepo) AddOrderStatusChange(ctx context.Context, change *models.OrderStatusChange) error {
	if change.CreatedAt.IsZero() {
		change.CreatedAt = time.Now().UTC()
	}
	return r.DB.WithContext(ctx).Create(change).Error
}

func (r *GormRepo) ListOrderStatusChanges(ctx context.Context, orderID string) ([]models.OrderStatusChange, error) {
	var out []models.OrderStatusChange
	if err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
