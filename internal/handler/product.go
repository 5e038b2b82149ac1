package handler

import (
	"net/http"

	"digital-storefront/internal/dto"
	"digital-storefront/internal/middleware"
	"digital-storefront/internal/service"

	"github.com/labstack/echo/v4"
)

type ProductHandler struct {
	productService service.ProductService
}

func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

func (h *ProductHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	product, err := h.productService.Get(ctx, middleware.CallerFrom(c), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(err)
	}

	product, err := h.productService.Create(ctx, middleware.CallerFrom(c), productInput(&req))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(err)
	}

	product, err := h.productService.Update(ctx, middleware.CallerFrom(c), c.Param("id"), productInput(&req))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, product)
}

func productInput(req *dto.ProductRequest) *service.ProductInput {
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	return &service.ProductInput{
		Title:        req.Title,
		Slug:         req.Slug,
		RegularPrice: req.RegularPrice,
		SalePrice:    req.SalePrice,
		Variants:     req.Variants,
		IsAvailable:  available,
		FileType:     req.FileType,
		AccessLink:   req.AccessLink,
		AccessNote:   req.AccessNote,
	}
}
