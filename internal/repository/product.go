package repository

import (
	"context"

	"digital-storefront/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Seed(ctx context.Context) error
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, productID string) (*model.Product, error)
	FindMany(ctx context.Context, productIDs []string) ([]*model.Product, error)
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) Seed(ctx context.Context) error {
	products := []model.Product{
		{
			ID:           "0b7f3c1e-5d0a-4c55-9f1e-3d2a1c9b0001",
			Title:        "Design Masterclass Access",
			Slug:         "design-masterclass-access",
			RegularPrice: decimal.NewFromInt(1500),
			SalePrice:    decimal.NewFromInt(990),
			IsAvailable:  true,
			FileType:     "Credentials",
			AccessNote:   "Shared seat, do not change the password",
		},
		{
			ID:           "0b7f3c1e-5d0a-4c55-9f1e-3d2a1c9b0002",
			Title:        "Pro Editor License",
			Slug:         "pro-editor-license",
			RegularPrice: decimal.NewFromInt(800),
			SalePrice:    decimal.NewFromInt(650),
			Variants: datatypes.NewJSONSlice([]model.ProductVariant{
				{Name: "Silver", Validity: "30 Days", Price: decimal.NewFromInt(300)},
				{Name: "Gold", Validity: "1 Year", Price: decimal.NewFromInt(2400)},
			}),
			IsAvailable: true,
			FileType:    "License Key",
		},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error
}

func (r *productRepoImpl) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepoImpl) Update(ctx context.Context, product *model.Product) error {
	result := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", product.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(product)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) FindMany(ctx context.Context, productIDs []string) ([]*model.Product, error) {
	var products []*model.Product
	if len(productIDs) == 0 {
		return products, nil
	}

	err := r.db.WithContext(ctx).
		Where("id IN ?", productIDs).
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}
