package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_IsValid(t *testing.T) {
	t.Parallel()

	for _, s := range OrderStatuses {
		assert.True(t, s.IsValid(), s)
	}
	for _, s := range []OrderStatus{"", "PENDING", "refunded", "returned"} {
		assert.False(t, s.IsValid(), s)
	}
}

func TestOrder_BeforeSaveRejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	o := &Order{ID: "ORD-1", Status: "lost"}
	assert.ErrorIs(t, o.BeforeSave(nil), ErrInvalidStatus)

	o.Status = OrderStatusShipped
	assert.NoError(t, o.BeforeSave(nil))
}

func TestOrder_BelongsToVendor(t *testing.T) {
	t.Parallel()

	v := "V1"
	assert.True(t, (&Order{VendorID: &v}).BelongsToVendor("V1"))
	assert.False(t, (&Order{VendorID: &v}).BelongsToVendor("V2"))
	assert.False(t, (&Order{}).BelongsToVendor("V1"))
}

func TestNewPayout(t *testing.T) {
	t.Parallel()

	p := NewPayout("ORD-1", "V1", decimal.RequireFromString("100.05"), decimal.RequireFromString("0.10"))
	assert.True(t, p.Commission.Equal(decimal.RequireFromString("10.01")), p.Commission.String())
	assert.True(t, p.NetAmount.Equal(decimal.RequireFromString("90.04")), p.NetAmount.String())
	assert.True(t, p.GrossAmount.Equal(p.Commission.Add(p.NetAmount)))
	assert.Equal(t, PayoutStatusEligible, p.Status)
}

func TestVendorAndProductStatuses(t *testing.T) {
	t.Parallel()

	assert.True(t, VendorStatusSuspended.IsValid())
	assert.False(t, VendorStatus("deleted").IsValid())
	assert.True(t, ProductStatusDeleted.IsValid())
	assert.False(t, ProductStatus("suspended").IsValid())
	assert.True(t, (&Vendor{Status: VendorStatusActive}).IsActive())
	assert.False(t, (&Vendor{Status: VendorStatusSuspended}).IsActive())
}

func TestProduct_PriceAndSeller(t *testing.T) {
	t.Parallel()

	v1, v2 := "V1", "V2"
	p := Product{VendorID: &v1, OriginalPrice: decimal.RequireFromString("12.50")}
	assert.True(t, p.EffectivePrice().Equal(decimal.RequireFromString("12.50")))

	p.DiscountedPrice = decimal.NewNullDecimal(decimal.RequireFromString("9.99"))
	assert.True(t, p.EffectivePrice().Equal(decimal.RequireFromString("9.99")))

	assert.True(t, p.SameVendor(&v1))
	assert.False(t, p.SameVendor(&v2))
	assert.False(t, p.SameVendor(nil))

	house := Product{}
	assert.True(t, house.SameVendor(nil))
	assert.False(t, house.SameVendor(&v1))
}
