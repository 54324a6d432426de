package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/marketplace_admin/pkg/idempotency"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/repo"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/transport"
)

const (
	TopicOrderEvents   = "order_events"
	TopicVendorEvents  = "vendor_events"
	TopicProductEvents = "product_events"

	EventOrderCreated         = "order.created"
	EventOrderStatusChanged   = "order.status_changed"
	EventVendorStatusChanged  = "vendor.status_changed"
	EventProductStatusChanged = "product.status_changed"
)

const (
	DefaultTransitionTimeout = 5 * time.Second
	DefaultIdempotencyTTL    = 24 * time.Hour
)

var DefaultCommissionRate = decimal.RequireFromString("0.10")

// Observer receives one call per attempted transition; *metrics.Metrics fits.
type Observer interface {
	ObserveTransition(entity, from, to, result string)
}

// Options hold the tunables. A zero CommissionRate means no commission; NewDeps
// starts from DefaultCommissionRate.
type Options struct {
	TransitionTimeout time.Duration
	CommissionRate    decimal.Decimal
	IdempotencyTTL    time.Duration
}

func (o Options) withDefaults() Options {
	if o.TransitionTimeout <= 0 {
		o.TransitionTimeout = DefaultTransitionTimeout
	}
	if o.IdempotencyTTL <= 0 {
		o.IdempotencyTTL = DefaultIdempotencyTTL
	}
	return o
}

// Deps are shared by OrderService, VendorService and ProductService. They all
// live in one process and one database so that stock, payouts and status
// changes commit together.
type Deps struct {
	Repo        *repo.GormRepo
	Idempotency idempotency.Store
	Observer    Observer
	Validator   *transport.Validator
	Options     Options
	Now         func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

func (d *Deps) opts() Options {
	return d.Options.withDefaults()
}

func (d *Deps) observe(entity, from, to string, err error) {
	if d.Observer == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = Code(err)
	}
	d.Observer.ObserveTransition(entity, from, to, result)
}

func (d *Deps) validate(req any) error {
	v := d.Validator
	if v == nil {
		v = transport.NewValidator()
	}
	if err := v.Validate(req); err != nil {
		return validationErr(err)
	}
	return nil
}

// MaxAmount is the first value a numeric(12,2) money column cannot hold.
var MaxAmount = decimal.New(1, 10)

// checkAmount rejects money that the store would round or overflow.
func checkAmount(field string, v decimal.Decimal) error {
	switch {
	case v.IsNegative():
		return fmt.Errorf("%w: %s must be >= 0", ErrValidation, field)
	case !v.Equal(v.Round(2)):
		return fmt.Errorf("%w: %s must have at most 2 decimal places, got %s", ErrValidation, field, v.String())
	case v.GreaterThanOrEqual(MaxAmount):
		return fmt.Errorf("%w: %s must be less than %s", ErrValidation, field, MaxAmount.String())
	}
	return nil
}

func validationErr(err error) error {
	return fmt.Errorf("%w: %s", ErrValidation, err.Error())
}

func NewDeps(r *repo.GormRepo) *Deps {
	return &Deps{
		Repo:      r,
		Validator: transport.NewValidator(),
		Options:   Options{CommissionRate: DefaultCommissionRate},
	}
}
