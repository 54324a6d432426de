package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace_admin/pkg/logging"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/service"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/transport"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/util"
)

type ProductHTTP struct {
	Svc *service.ProductService
}

func (h *ProductHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create_product")

	a, err := currentActor(c)
	if err != nil {
		return err
	}

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_product", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(l, "create_product", err.Error(), err)
	}

	p, err := h.Svc.CreateProduct(ctx, a, req)
	if err != nil {
		return serviceError(l, "create_product", err)
	}

	l.Info("create_product_success", "product_id", p.ID)
	return c.JSON(http.StatusCreated, p)
}

func (h *ProductHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	a, err := currentActor(c)
	if err != nil {
		return err
	}

	page, err := h.Svc.ListProducts(ctx, a, transport.ListProductsQuery{
		Page:     util.ParseIntDefault(c.QueryParam("page"), 1),
		Size:     util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize),
		Status:   c.QueryParam("status"),
		VendorID: c.QueryParam("vendorId"),
	})
	if err != nil {
		return serviceError(l, "get_products", err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *ProductHTTP) TransitionProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.transition_product")

	a, err := currentActor(c)
	if err != nil {
		return err
	}

	var req transport.TransitionProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "transition_product", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(l, "transition_product", err.Error(), err)
	}

	p, err := h.Svc.Transition(ctx, a, req)
	if err != nil {
		return serviceError(l, "transition_product", err)
	}

	l.Info("transition_product_success", "product_id", p.ID, "status", string(p.Status))
	return c.JSON(http.StatusOK, p)
}
