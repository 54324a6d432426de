package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace_admin/pkg/actor"
	"github.com/Skotchmaster/marketplace_admin/pkg/idempotency"
	"github.com/Skotchmaster/marketplace_admin/pkg/logging"
	middleware "github.com/Skotchmaster/marketplace_admin/pkg/middleware/auth"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/service"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/transport"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/util"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func currentActor(c echo.Context) (actor.Actor, error) {
	a, ok := middleware.ActorFrom(c)
	if !ok || !a.Valid() {
		return actor.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, transport.ErrorResponse{Error: "unauthorized", Code: service.CodeUnauthorized})
	}
	return a, nil
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	a, err := currentActor(c)
	if err != nil {
		return err
	}

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_order", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(l, "create_order", err.Error(), err)
	}

	order, replayed, err := h.Svc.CreateOrder(ctx, a, req, idempotency.Key(c.Request()))
	if err != nil {
		return serviceError(l, "create_order", err)
	}

	if replayed {
		l.Info("create_order_replayed", "order_id", order.ID)
		return c.JSON(http.StatusOK, order)
	}
	l.Info("create_order_success", "order_id", order.ID)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) TransitionOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.transition_order")

	a, err := currentActor(c)
	if err != nil {
		return err
	}

	var req transport.TransitionOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "transition_order", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(l, "transition_order", err.Error(), err)
	}

	order, err := h.Svc.Transition(ctx, a, req)
	if err != nil {
		return serviceError(l, "transition_order", err)
	}

	l.Info("transition_order_success", "order_id", order.ID, "status", string(order.Status))
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	a, err := currentActor(c)
	if err != nil {
		return err
	}

	order, err := h.Svc.GetOrder(ctx, a, c.Param("id"))
	if err != nil {
		return serviceError(l, "get_order", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) GetOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_orders")

	a, err := currentActor(c)
	if err != nil {
		return err
	}

	page, err := h.Svc.ListOrders(ctx, a, transport.ListOrdersQuery{
		Page:       util.ParseIntDefault(c.QueryParam("page"), 1),
		Size:       util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize),
		Status:     c.QueryParam("status"),
		VendorID:   c.QueryParam("vendorId"),
		CustomerID: c.QueryParam("customerId"),
	})
	if err != nil {
		return serviceError(l, "get_orders", err)
	}

	l.Info("get_orders_success", "total", page.Meta.Total)
	return c.JSON(http.StatusOK, page)
}

func (h *OrderHTTP) GetOrderTransitions(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order_transitions")

	a, err := currentActor(c)
	if err != nil {
		return err
	}

	allowed, err := h.Svc.AllowedTransitions(ctx, a, c.Param("id"))
	if err != nil {
		return serviceError(l, "get_order_transitions", err)
	}
	return c.JSON(http.StatusOK, allowed)
}

func (h *OrderHTTP) GetOrderHistory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order_history")

	a, err := currentActor(c)
	if err != nil {
		return err
	}

	history, err := h.Svc.History(ctx, a, c.Param("id"))
	if err != nil {
		return serviceError(l, "get_order_history", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": history})
}

func (h *OrderHTTP) GetStats(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "analytics.get_stats")

	a, err := currentActor(c)
	if err != nil {
		return err
	}

	stats, err := h.Svc.Stats(ctx, a, c.QueryParam("vendorId"))
	if err != nil {
		return serviceError(l, "get_stats", err)
	}
	return c.JSON(http.StatusOK, stats)
}
