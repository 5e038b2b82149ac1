package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"digital-storefront/internal/apperr"
	"digital-storefront/internal/auth"
	"digital-storefront/internal/gate"
	"digital-storefront/internal/model"
	"digital-storefront/internal/repository"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductInput struct {
	Title        string
	Slug         string
	RegularPrice decimal.Decimal
	SalePrice    decimal.Decimal
	Variants     []model.ProductVariant
	IsAvailable  bool
	FileType     string
	AccessLink   string
	AccessNote   string
}

type ProductService interface {
	Get(ctx context.Context, caller auth.Caller, productID string) (*gate.ProductView, error)
	Create(ctx context.Context, caller auth.Caller, in *ProductInput) (*gate.ProductView, error)
	Update(ctx context.Context, caller auth.Caller, productID string, in *ProductInput) (*gate.ProductView, error)
}

type productServiceImpl struct {
	productRepo repository.ProductRepository
	log         *log.Helper
}

func NewProductService(productRepo repository.ProductRepository, logger log.Logger) ProductService {
	return &productServiceImpl{
		productRepo: productRepo,
		log:         log.NewHelper(log.With(logger, "module", "service/product")),
	}
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and collapses every run of other characters to a
// single hyphen.
func Slugify(s string) string {
	return strings.Trim(slugInvalid.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func (s *productServiceImpl) Get(ctx context.Context, caller auth.Caller, productID string) (*gate.ProductView, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("product %s not found", productID)
	}
	if err != nil {
		s.log.Errorf("get product %s: %v", productID, err)
		return nil, apperr.Persistence(err)
	}
	return gate.Product(product, caller), nil
}

func (s *productServiceImpl) Create(ctx context.Context, caller auth.Caller, in *ProductInput) (*gate.ProductView, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Forbidden("only admins can author products")
	}

	product := &model.Product{ID: uuid.NewString()}
	if err := applyProductInput(product, in); err != nil {
		return nil, err
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, s.writeError("create", product, err)
	}

	s.log.Infof("product %s (%s) created", product.ID, product.Slug)
	return gate.Product(product, caller), nil
}

func (s *productServiceImpl) Update(ctx context.Context, caller auth.Caller, productID string, in *ProductInput) (*gate.ProductView, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Forbidden("only admins can author products")
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("product %s not found", productID)
	}
	if err != nil {
		s.log.Errorf("load product %s: %v", productID, err)
		return nil, apperr.Persistence(err)
	}

	if err := applyProductInput(product, in); err != nil {
		return nil, err
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, s.writeError("update", product, err)
	}

	s.log.Infof("product %s updated", product.ID)
	return gate.Product(product, caller), nil
}

func (s *productServiceImpl) writeError(op string, product *model.Product, err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Validation("slug %q is already taken", product.Slug)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound("product %s not found", product.ID)
	}
	s.log.Errorf("%s product %s: %v", op, product.ID, err)
	return apperr.Persistence(err)
}

func applyProductInput(p *model.Product, in *ProductInput) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return apperr.Validation("title is required")
	}
	if in.RegularPrice.IsNegative() || in.SalePrice.IsNegative() {
		return apperr.Validation("prices cannot be negative")
	}
	if !in.RegularPrice.IsPositive() && !in.SalePrice.IsPositive() && len(in.Variants) == 0 {
		return apperr.Validation("a price or at least one variant is required")
	}

	seen := make(map[string]struct{}, len(in.Variants))
	for i, v := range in.Variants {
		name := strings.TrimSpace(v.Name)
		if name == "" {
			return apperr.Validation("variant %d: name is required", i)
		}
		if !v.Price.IsPositive() {
			return apperr.Validation("variant %q: price must be positive", name)
		}
		if _, dup := seen[name]; dup {
			return apperr.Validation("variant %q is listed twice", name)
		}
		seen[name] = struct{}{}
		in.Variants[i].Name = name
	}

	slug := Slugify(in.Slug)
	if slug == "" {
		slug = Slugify(title)
	}
	if slug == "" {
		return apperr.Validation("title %q does not produce a usable slug", title)
	}

	fileType := strings.TrimSpace(in.FileType)
	if fileType == "" {
		fileType = "Credentials"
	}

	p.Title = title
	p.Slug = slug
	p.RegularPrice = in.RegularPrice
	p.SalePrice = in.SalePrice
	p.Variants = in.Variants
	p.IsAvailable = in.IsAvailable
	p.FileType = fileType
	p.AccessLink = strings.TrimSpace(in.AccessLink)
	p.AccessNote = in.AccessNote
	return nil
}
