package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type ProductVariant struct {
	Name     string          `json:"name"`
	Validity string          `json:"validity"` // 30 Days, 1 Year, Lifetime
	Price    decimal.Decimal `json:"price"`
}

type Product struct {
	ID           string                              `gorm:"primaryKey;size:36;not null" json:"id"`
	Title        string                              `gorm:"size:255;not null" json:"title"`
	Slug         string                              `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	RegularPrice decimal.Decimal                     `gorm:"type:decimal(12,2);not null" json:"regularPrice"`
	SalePrice    decimal.Decimal                     `gorm:"type:decimal(12,2);not null" json:"salePrice"`
	Variants     datatypes.JSONSlice[ProductVariant] `json:"variants"`
	IsAvailable  bool                                `gorm:"not null" json:"isAvailable"`
	FileType     string                              `gorm:"size:32;not null;default:Credentials" json:"fileType"`

	// admin-authored; projected away for everyone else
	AccessLink string `gorm:"size:1024" json:"accessLink"`
	AccessNote string `gorm:"type:text" json:"accessNote"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EffectivePrice returns the unit price for a purchase of the product. A named
// variant prices the line on its own; otherwise the sale price applies, falling
// back to the regular price when no sale price is set. ok is false when the
// resolved price is not positive, e.g. a variant-only product bought without
// naming a variant.
func (p *Product) EffectivePrice(variantName string) (price decimal.Decimal, ok bool) {
	if variantName != "" {
		for _, v := range p.Variants {
			if v.Name == variantName {
				return v.Price, v.Price.IsPositive()
			}
		}
		return decimal.Zero, false
	}

	price = p.RegularPrice
	if p.SalePrice.IsPositive() {
		price = p.SalePrice
	}
	return price, price.IsPositive()
}
