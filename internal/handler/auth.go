package handler

import (
	"net/http"

	"digital-storefront/internal/dto"
	"digital-storefront/internal/service"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(err)
	}

	result, err := h.authService.Login(ctx, req.Identifier, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}
