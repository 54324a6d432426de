package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace_admin/pkg/actor"
	"github.com/Skotchmaster/marketplace_admin/pkg/metrics"
	middleware "github.com/Skotchmaster/marketplace_admin/pkg/middleware/auth"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	OrderHandler   *OrderHTTP
	VendorHandler  *VendorHTTP
	ProductHandler *ProductHTTP
	JWTSecret      []byte
	Metrics        *metrics.Metrics
	Ready          Pinger
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready == nil {
			return c.NoContent(http.StatusOK)
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := d.Ready.Ping(ctx); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", d.Metrics.Handler())
	}

	authMW := middleware.NewBearerMiddleware(d.JWTSecret)
	staff := authMW.RequireRole(actor.RoleAdmin, actor.RoleVendor)

	orders := e.Group("/orders", authMW.RequireAuth)
	orders.GET("", d.OrderHandler.GetOrders)
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.PUT("", d.OrderHandler.TransitionOrder)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.GET("/:id/history", d.OrderHandler.GetOrderHistory)
	orders.GET("/:id/transitions", d.OrderHandler.GetOrderTransitions)

	e.GET("/analytics/orders", d.OrderHandler.GetStats, staff)

	vendors := e.Group("/vendors")
	vendors.GET("/:id", d.VendorHandler.GetVendor, authMW.RequireAuth)

	admin := vendors.Group("", authMW.RequireAdmin)
	admin.GET("", d.VendorHandler.GetVendors)
	admin.POST("", d.VendorHandler.CreateVendor)
	admin.PUT("", d.VendorHandler.TransitionVendor)

	products := e.Group("/products")
	products.GET("", d.ProductHandler.GetProducts, authMW.RequireAuth)
	products.POST("", d.ProductHandler.CreateProduct, staff)
	products.PUT("", d.ProductHandler.TransitionProduct, staff)
}
