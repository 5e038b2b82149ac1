package handler

import (
	"net/http"

	"digital-storefront/internal/dto"
	"digital-storefront/internal/middleware"
	"digital-storefront/internal/service"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

func (h *CheckoutHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(err)
	}

	items := make([]service.CartItem, 0, len(req.CartItems))
	for _, item := range req.CartItems {
		if item == nil {
			continue
		}
		items = append(items, service.CartItem{
			ProductID:   item.ProductID,
			VariantName: item.VariantName,
			Quantity:    item.Quantity,
		})
	}

	result, err := h.checkoutService.Checkout(ctx, middleware.CallerFrom(c), &service.CheckoutInput{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		PaymentMethod: req.PaymentMethod,
		Screenshot:    req.Screenshot,
		Items:         items,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, result)
}
