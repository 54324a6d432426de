package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrInvalidStatus = errors.New("invalid status")

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type Address struct {
	Name       string `gorm:"type:varchar(255);not null" json:"name"`
	Phone      string `gorm:"type:varchar(64)"           json:"phone"`
	Line1      string `gorm:"type:varchar(255);not null" json:"line1"`
	Line2      string `gorm:"type:varchar(255)"          json:"line2,omitempty"`
	City       string `gorm:"type:varchar(128);not null" json:"city"`
	State      string `gorm:"type:varchar(128)"          json:"state,omitempty"`
	PostalCode string `gorm:"type:varchar(32);not null"  json:"postalCode"`
}

type OrderItem struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"        json:"-"`
	OrderID   string          `gorm:"type:varchar(64);index;not null" json:"-"`
	Position  int             `gorm:"not null"                        json:"-"`
	ProductID string          `gorm:"type:varchar(64);not null"       json:"productId"`
	Name      string          `gorm:"type:varchar(255);not null"      json:"name"`
	Quantity  int             `gorm:"not null;check:quantity>0"       json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"     json:"unitPrice"`
}

// Order is immutable after creation except for Status, TrackingID, UpdatedAt
// and the internal Version.
type Order struct {
	ID              string          `gorm:"primaryKey;type:varchar(64)"               json:"orderId"`
	CustomerID      string          `gorm:"type:varchar(64);index;not null"           json:"customerId"`
	VendorID        *string         `gorm:"type:varchar(64);index"                    json:"vendorId,omitempty"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null"               json:"totalAmount"`
	Status          OrderStatus     `gorm:"type:varchar(16);index;not null"           json:"status"`
	PaymentMethod   string          `gorm:"type:varchar(64);not null"                 json:"paymentMethod"`
	PaymentID       string          `gorm:"type:varchar(128)"                         json:"paymentId"`
	ShippingAddress Address         `gorm:"embedded;embeddedPrefix:ship_"             json:"shippingAddress"`
	TrackingID      *string         `gorm:"type:varchar(128)"                         json:"trackingId,omitempty"`
	Version         int             `gorm:"not null;default:1"                        json:"-"`
	CreatedAt       time.Time       `gorm:"index"                                     json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (o *Order) BeforeSave(tx *gorm.DB) error {
	if !o.Status.IsValid() {
		return fmt.Errorf("order %s: %w %q", o.ID, ErrInvalidStatus, o.Status)
	}
	return nil
}

func (o *Order) BelongsToVendor(vendorID string) bool {
	return o.VendorID != nil && *o.VendorID == vendorID
}

// OrderStatusChange is one audit row per accepted transition; the creation
// row has an empty From.
type OrderStatusChange struct {
	ID         uint        `gorm:"primaryKey;autoIncrement"        json:"id"`
	OrderID    string      `gorm:"type:varchar(64);index;not null" json:"orderId"`
	From       OrderStatus `gorm:"column:from_status;type:varchar(16)"          json:"from,omitempty"`
	To         OrderStatus `gorm:"column:to_status;type:varchar(16);not null"   json:"to"`
	ActorID    string      `gorm:"type:varchar(64);not null"       json:"actorId"`
	ActorRole  string      `gorm:"type:varchar(16);not null"       json:"actorRole"`
	TrackingID *string     `gorm:"type:varchar(128)"               json:"trackingId,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}
