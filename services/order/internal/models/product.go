package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductStatus string

const (
	ProductStatusPending ProductStatus = "pending"
	ProductStatusActive  ProductStatus = "active"
	ProductStatusDeleted ProductStatus = "deleted"
)

var ProductStatuses = []ProductStatus{ProductStatusPending, ProductStatusActive, ProductStatusDeleted}

func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusPending, ProductStatusActive, ProductStatusDeleted:
		return true
	}
	return false
}

// Product rows are never removed; "deleted" is a status.
type Product struct {
	ID              string              `gorm:"primaryKey;type:varchar(64)"     json:"productId"`
	VendorID        *string             `gorm:"type:varchar(64);index"          json:"vendorId,omitempty"`
	Name            string              `gorm:"type:varchar(255);not null"      json:"name"`
	Description     string              `gorm:"type:text"                       json:"description"`
	OriginalPrice   decimal.Decimal     `gorm:"type:numeric(12,2);not null"     json:"originalPrice"`
	DiscountedPrice decimal.NullDecimal `gorm:"type:numeric(12,2)"              json:"discountedPrice"`
	Quantity        int                 `gorm:"not null;default:0;check:quantity>=0" json:"quantity"`
	Status          ProductStatus       `gorm:"type:varchar(16);index;not null" json:"status"`
	Version         int                 `gorm:"not null;default:1"              json:"-"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (p *Product) BeforeSave(tx *gorm.DB) error {
	if !p.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// EffectivePrice is what one unit sells for: the discounted price when set.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.DiscountedPrice.Valid {
		return p.DiscountedPrice.Decimal
	}
	return p.OriginalPrice
}

// SameVendor reports whether the product is sold by vendorID; nil means the platform.
func (p *Product) SameVendor(vendorID *string) bool {
	if p.VendorID == nil || vendorID == nil {
		return p.VendorID == nil && vendorID == nil
	}
	return *p.VendorID == *vendorID
}

func (p *Product) BelongsToVendor(vendorID string) bool {
	return p.VendorID != nil && *p.VendorID == vendorID
}
