package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace_admin/pkg/logging"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/service"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/transport"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/util"
)

type VendorHTTP struct {
	Svc *service.VendorService
}

func (h *VendorHTTP) CreateVendor(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "vendor.create_vendor")

	a, err := currentActor(c)
	if err != nil {
		return err
	}

	var req transport.CreateVendorRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_vendor", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(l, "create_vendor", err.Error(), err)
	}

	v, err := h.Svc.CreateVendor(ctx, a, req)
	if err != nil {
		return serviceError(l, "create_vendor", err)
	}

	l.Info("create_vendor_success", "vendor_id", v.ID)
	return c.JSON(http.StatusCreated, v)
}

func (h *VendorHTTP) GetVendor(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "vendor.get_vendor")

	a, err := currentActor(c)
	if err != nil {
		return err
	}

	v, err := h.Svc.GetVendor(ctx, a, c.Param("id"))
	if err != nil {
		return serviceError(l, "get_vendor", err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *VendorHTTP) GetVendors(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "vendor.get_vendors")

	a, err := currentActor(c)
	if err != nil {
		return err
	}

	page, err := h.Svc.ListVendors(ctx, a, transport.ListVendorsQuery{
		Page:   util.ParseIntDefault(c.QueryParam("page"), 1),
		Size:   util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize),
		Status: c.QueryParam("status"),
	})
	if err != nil {
		return serviceError(l, "get_vendors", err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *VendorHTTP) TransitionVendor(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "vendor.transition_vendor")

	a, err := currentActor(c)
	if err != nil {
		return err
	}

	var req transport.TransitionVendorRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "transition_vendor", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(l, "transition_vendor", err.Error(), err)
	}

	v, err := h.Svc.Transition(ctx, a, req)
	if err != nil {
		return serviceError(l, "transition_vendor", err)
	}

	l.Info("transition_vendor_success", "vendor_id", v.ID, "status", string(v.Status))
	return c.JSON(http.StatusOK, v)
}
