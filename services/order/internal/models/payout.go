package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const PayoutStatusEligible = "eligible"

// Payout records the vendor's share of a delivered order. One per order.
type Payout struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"             json:"id"`
	OrderID     string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"orderId"`
	VendorID    string          `gorm:"type:varchar(64);index;not null"      json:"vendorId"`
	GrossAmount decimal.Decimal `gorm:"type:numeric(12,2);not null"          json:"grossAmount"`
	Commission  decimal.Decimal `gorm:"type:numeric(12,2);not null"          json:"commission"`
	NetAmount   decimal.Decimal `gorm:"type:numeric(12,2);not null"          json:"netAmount"`
	Status      string          `gorm:"type:varchar(16);not null"            json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// NewPayout splits gross into platform commission (rounded to cents) and the
// vendor's net amount.
func NewPayout(orderID, vendorID string, gross, rate decimal.Decimal) Payout {
	commission := gross.Mul(rate).Round(2)
	return Payout{
		OrderID:     orderID,
		VendorID:    vendorID,
		GrossAmount: gross,
		Commission:  commission,
		NetAmount:   gross.Sub(commission),
		Status:      PayoutStatusEligible,
	}
}
