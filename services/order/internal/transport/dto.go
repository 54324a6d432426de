package transport

import (
	"github.com/shopspring/decimal"
)

type AddressRequest struct {
	Name       string `json:"name"       validate:"required,max=255"`
	Phone      string `json:"phone"      validate:"max=64"`
	Line1      string `json:"line1"      validate:"required,max=255"`
	Line2      string `json:"line2"      validate:"max=255"`
	City       string `json:"city"       validate:"required,max=128"`
	State      string `json:"state"      validate:"max=128"`
	PostalCode string `json:"postalCode" validate:"required,max=32"`
}

type CreateOrderItem struct {
	ProductID string          `json:"productId" validate:"required,max=64"`
	Name      string          `json:"name"      validate:"required,max=255"`
	Quantity  int             `json:"quantity"  validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// CreateOrderRequest is the body of POST /orders. CustomerID may be omitted by
// a customer, in which case the caller's own id is used.
type CreateOrderRequest struct {
	CustomerID      string            `json:"customerId"      validate:"max=64"`
	VendorID        *string           `json:"vendorId"        validate:"omitempty,min=1,max=64"`
	Items           []CreateOrderItem `json:"items"           validate:"required,min=1,dive"`
	TotalAmount     *decimal.Decimal  `json:"totalAmount"`
	PaymentMethod   string            `json:"paymentMethod"   validate:"required,max=64"`
	PaymentID       string            `json:"paymentId"       validate:"max=128"`
	ShippingAddress AddressRequest    `json:"shippingAddress" validate:"required"`
}

// TransitionOrderRequest is the body of PUT /orders.
type TransitionOrderRequest struct {
	OrderID    string  `json:"orderId"    validate:"required"`
	Status     string  `json:"status"     validate:"required"`
	TrackingID *string `json:"trackingId" validate:"omitempty,max=128"`
}

type ListOrdersQuery struct {
	Page       int
	Size       int
	Status     string
	VendorID   string
	CustomerID string
}

type CreateVendorRequest struct {
	VendorID string `json:"vendorId" validate:"max=64"`
	Name     string `json:"name"     validate:"required,max=255"`
	Email    string `json:"email"    validate:"required,email,max=255"`
}

type TransitionVendorRequest struct {
	VendorID string `json:"vendorId" validate:"required"`
	Status   string `json:"status"   validate:"required"`
}

type ListVendorsQuery struct {
	Page   int
	Size   int
	Status string
}

type CreateProductRequest struct {
	VendorID        *string          `json:"vendorId"        validate:"omitempty,min=1,max=64"`
	Name            string           `json:"name"            validate:"required,max=255"`
	Description     string           `json:"description"`
	OriginalPrice   decimal.Decimal  `json:"originalPrice"`
	DiscountedPrice *decimal.Decimal `json:"discountedPrice"`
	Quantity        int              `json:"quantity"        validate:"gte=0"`
}

type TransitionProductRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Status    string `json:"status"    validate:"required"`
}

type ListProductsQuery struct {
	Page     int
	Size     int
	Status   string
	VendorID string
}

type PageMeta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

type Page[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"meta"`
}

type OrderStats struct {
	VendorID         *string          `json:"vendorId,omitempty"`
	TotalOrders      int64            `json:"totalOrders"`
	ByStatus         map[string]int64 `json:"byStatus"`
	DeliveredRevenue decimal.Decimal  `json:"deliveredRevenue"`
	PayoutTotal      decimal.Decimal  `json:"payoutTotal"`
}

// AllowedTransitions lists the statuses the caller may move an order to right now.
type AllowedTransitions struct {
	OrderID  string   `json:"orderId"`
	Status   string   `json:"status"`
	Terminal bool     `json:"terminal"`
	Next     []string `json:"next"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
