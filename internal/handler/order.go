package handler

import (
	"net/http"

	"digital-storefront/internal/dto"
	"digital-storefront/internal/middleware"
	"digital-storefront/internal/service"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService       service.OrderService
	fulfillmentService service.FulfillmentService
}

func NewOrderHandler(orderService service.OrderService, fulfillmentService service.FulfillmentService) *OrderHandler {
	return &OrderHandler{
		orderService:       orderService,
		fulfillmentService: fulfillmentService,
	}
}

func (h *OrderHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	orders, err := h.orderService.List(ctx, middleware.CallerFrom(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"orders": orders,
	})
}

func (h *OrderHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.orderService.Get(ctx, middleware.CallerFrom(c), c.Param("id"))
	if err != nil {
		return hideForbidden(err)
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.fulfillmentService.Cancel(ctx, middleware.CallerFrom(c), c.Param("id"))
	if err != nil {
		return hideForbidden(err)
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Verify(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.VerifyOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(err)
	}

	order, err := h.fulfillmentService.Verify(ctx, middleware.CallerFrom(c), c.Param("id"), req.Status, req.DeliveredContent)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.orderService.Delete(ctx, middleware.CallerFrom(c), c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
