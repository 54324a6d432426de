package repo

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/marketplace_admin/services/order/internal/models"
)

func (r *GormRepo) CreatePayout(ctx context.Context, p *models.Payout) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormRepo) GetPayoutByOrder(ctx context.Context, orderID string) (*models.Payout, error) {
	var p models.Payout
	if err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

type StatusCount struct {
	Status string
	Count  int64
	Amount decimal.Decimal
}

// OrderStatusTotals groups orders by status; vendorID narrows the scope when set.
func (r *GormRepo) OrderStatusTotals(ctx context.Context, vendorID string) ([]StatusCount, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS amount").
		Group("status")
	if vendorID != "" {
		q = q.Where("vendor_id = ?", vendorID)
	}
	var out []StatusCount
	if err := q.Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepo) PayoutTotal(ctx context.Context, vendorID string) (decimal.Decimal, error) {
	var row struct {
		Amount decimal.Decimal
	}
	q := r.DB.WithContext(ctx).Model(&models.Payout{}).Select("COALESCE(SUM(net_amount), 0) AS amount")
	if vendorID != "" {
		q = q.Where("vendor_id = ?", vendorID)
	}
	if err := q.Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Amount, nil
}
