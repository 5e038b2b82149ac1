// Package gate projects stored entities into the shape a given caller may see.
// Every read boundary goes through it; storage never hides fields by itself.
package gate

import (
	"time"

	"digital-storefront/internal/apperr"
	"digital-storefront/internal/auth"
	"digital-storefront/internal/fulfillment"
	"digital-storefront/internal/model"

	"github.com/shopspring/decimal"
)

type ProductView struct {
	ID           string                 `json:"id"`
	Title        string                 `json:"title"`
	Slug         string                 `json:"slug"`
	RegularPrice decimal.Decimal        `json:"regularPrice"`
	SalePrice    decimal.Decimal        `json:"salePrice"`
	Variants     []model.ProductVariant `json:"variants"`
	IsAvailable  bool                   `json:"isAvailable"`
	FileType     string                 `json:"fileType"`
	AccessLink   string                 `json:"accessLink,omitempty"`
	AccessNote   string                 `json:"accessNote,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

type ProductSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

type CustomerSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type OrderView struct {
	ID               string                  `json:"id"`
	AccountID        string                  `json:"accountId"`
	ProductID        string                  `json:"productId"`
	TransactionID    string                  `json:"transactionId"`
	PaymentMethod    string                  `json:"paymentMethod"`
	VariantName      string                  `json:"variantName,omitempty"`
	Quantity         int                     `json:"quantity"`
	Amount           decimal.Decimal         `json:"amount"`
	PaymentStatus    model.PaymentStatus     `json:"paymentStatus"`
	Status           model.OrderStatus       `json:"status"`
	Screenshot       string                  `json:"screenshot,omitempty"`
	DeliveredContent *model.DeliveredContent `json:"deliveredContent,omitempty"`
	Product          *ProductSummary         `json:"product,omitempty"`
	Customer         *CustomerSummary        `json:"customer,omitempty"`
	CreatedAt        time.Time               `json:"createdAt"`
	UpdatedAt        time.Time               `json:"updatedAt"`
}

// Product drops the access fields unless the caller is an admin. These are
// authoring fields and stay hidden from customers whatever they have bought.
func Product(p *model.Product, caller auth.Caller) *ProductView {
	view := &ProductView{
		ID:           p.ID,
		Title:        p.Title,
		Slug:         p.Slug,
		RegularPrice: p.RegularPrice,
		SalePrice:    p.SalePrice,
		Variants:     append([]model.ProductVariant(nil), p.Variants...),
		IsAvailable:  p.IsAvailable,
		FileType:     p.FileType,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if view.Variants == nil {
		view.Variants = []model.ProductVariant{}
	}

	if caller.IsAdmin() {
		view.AccessLink = p.AccessLink
		view.AccessNote = p.AccessNote
	}
	return view
}

func CanReadOrder(o *model.Order, caller auth.Caller) bool {
	return caller.IsAdmin() || caller.Owns(o.AccountID)
}

// Order projects a single order. Callers that neither own the order nor are
// admins get an error and nothing else; delivered content only appears once the
// order is completed.
func Order(o *model.Order, caller auth.Caller) (*OrderView, error) {
	if !CanReadOrder(o, caller) {
		return nil, apperr.Forbidden("order %s is not visible to this caller", o.ID)
	}

	view := &OrderView{
		ID:            o.ID,
		AccountID:     o.AccountID,
		ProductID:     o.ProductID,
		TransactionID: o.TransactionID,
		PaymentMethod: o.PaymentMethod,
		VariantName:   o.VariantName,
		Quantity:      o.Quantity,
		Amount:        o.Amount,
		PaymentStatus: o.PaymentStatus,
		Status:        o.Status,
		Screenshot:    o.Screenshot,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}

	if fulfillment.AllowsDelivery(fulfillment.StateOf(o)) && !o.Delivered.IsEmpty() {
		content := o.Delivered
		view.DeliveredContent = &content
	}
	return view, nil
}

// Orders projects a listing, silently dropping orders the caller may not see.
func Orders(orders []*model.Order, caller auth.Caller) []*OrderView {
	views := make([]*OrderView, 0, len(orders))
	for _, o := range orders {
		view, err := Order(o, caller)
		if err != nil {
			continue
		}
		views = append(views, view)
	}
	return views
}
