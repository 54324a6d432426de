package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace_admin/pkg/actor"
	pkgdb "github.com/Skotchmaster/marketplace_admin/pkg/db"
	"github.com/Skotchmaster/marketplace_admin/pkg/idempotency"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/models"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/repo"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/transport"
)

var (
	admin    = actor.Actor{ID: "admin", Role: actor.RoleAdmin}
	vendor1  = actor.Actor{ID: "V1", Role: actor.RoleVendor}
	vendor2  = actor.Actor{ID: "V2", Role: actor.RoleVendor}
	customer = actor.Actor{ID: "C1", Role: actor.RoleCustomer}
)

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (o *recordingObserver) ObserveTransition(entity, from, to, result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, entity+":"+from+"->"+to+":"+result)
}

func (o *recordingObserver) Calls() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.calls...)
}

type testEnv struct {
	Deps     *Deps
	Orders   *OrderService
	Vendors  *VendorService
	Products *ProductService
	Observer *recordingObserver
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	gdb, err := pkgdb.Open(ctx, pkgdb.DriverSQLite, pkgdb.MemoryDSN(uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = pkgdb.Close(gdb) })

	r := repo.New(gdb)
	require.NoError(t, r.Migrate(ctx))

	obs := &recordingObserver{}
	d := NewDeps(r)
	d.Idempotency = idempotency.NewMemoryStore()
	d.Observer = obs
	d.Options = Options{TransitionTimeout: 5 * time.Second, CommissionRate: DefaultCommissionRate}

	env := &testEnv{
		Deps:     d,
		Orders:   NewOrderService(d),
		Vendors:  NewVendorService(d),
		Products: NewProductService(d),
		Observer: obs,
	}

	env.seedVendor(t, "V1", models.VendorStatusActive)
	env.seedVendor(t, "V2", models.VendorStatusActive)
	return env
}

func (e *testEnv) seedVendor(t *testing.T, id string, status models.VendorStatus) *models.Vendor {
	t.Helper()
	v := &models.Vendor{ID: id, Name: "Vendor " + id, Email: strings.ToLower(id) + "@shop.test", Status: status, Version: 1}
	_, err := e.Deps.Repo.CreateVendor(context.Background(), v)
	require.NoError(t, err)
	return v
}

func (e *testEnv) seedProduct(t *testing.T, id, vendorID string, qty int, status models.ProductStatus) *models.Product {
	t.Helper()
	p := &models.Product{
		ID:            id,
		Name:          "Product " + id,
		OriginalPrice: decimal.RequireFromString("12.50"),
		Quantity:      qty,
		Status:        status,
		Version:       1,
	}
	if vendorID != "" {
		p.VendorID = &vendorID
	}
	_, err := e.Deps.Repo.CreateProduct(context.Background(), p)
	require.NoError(t, err)
	return p
}

// seedOrder inserts an order directly in the given status, bypassing creation rules.
func (e *testEnv) seedOrder(t *testing.T, id, vendorID string, status models.OrderStatus) *models.Order {
	t.Helper()
	o := &models.Order{
		ID:            id,
		CustomerID:    "C1",
		Items:         []models.OrderItem{{ProductID: "P1", Name: "Mug", Quantity: 2, UnitPrice: decimal.RequireFromString("12.50")}},
		TotalAmount:   decimal.RequireFromString("25.00"),
		Status:        status,
		PaymentMethod: "card",
		PaymentID:     "pay_1",
		ShippingAddress: models.Address{
			Name: "Ann", Line1: "1 Main St", City: "Springfield", PostalCode: "12345",
		},
		Version: 1,
	}
	if vendorID != "" {
		o.VendorID = &vendorID
	}
	_, err := e.Deps.Repo.CreateOrder(context.Background(), o)
	require.NoError(t, err)
	return o
}

func (e *testEnv) reload(t *testing.T, id string) *models.Order {
	t.Helper()
	o, err := e.Deps.Repo.GetOrder(context.Background(), id)
	require.NoError(t, err)
	return o
}

func (e *testEnv) stock(t *testing.T, productID string) int {
	t.Helper()
	p, err := e.Deps.Repo.GetProduct(context.Background(), productID)
	require.NoError(t, err)
	return p.Quantity
}

func transition(id, status string) transport.TransitionOrderRequest {
	return transport.TransitionOrderRequest{OrderID: id, Status: status}
}

func strptr(s string) *string { return &s }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func createReq(vendorID string, qty int) transport.CreateOrderRequest {
	total := dec("12.50").Mul(decimal.NewFromInt(int64(qty)))
	req := transport.CreateOrderRequest{
		CustomerID:    "C1",
		Items:         []transport.CreateOrderItem{{ProductID: "P1", Name: "Mug", Quantity: qty, UnitPrice: dec("12.50")}},
		TotalAmount:   &total,
		PaymentMethod: "card",
		PaymentID:     "pay_1",
		ShippingAddress: transport.AddressRequest{
			Name: "Ann", Line1: "1 Main St", City: "Springfield", PostalCode: "12345",
		},
	}
	if vendorID != "" {
		req.VendorID = &vendorID
	}
	return req
}
