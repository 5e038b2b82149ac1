package dto

import (
	"digital-storefront/internal/model"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	ProductID   string `json:"productId"`
	Quantity    int    `json:"quantity"`
	VariantName string `json:"variantName,omitempty"`
}

type CheckoutRequest struct {
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	Phone         string      `json:"phone"`
	PaymentMethod string      `json:"paymentMethod"`
	Screenshot    string      `json:"screenshot,omitempty"`
	CartItems     []*CartItem `json:"cartItems"`
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type VerifyOrderRequest struct {
	Status           model.OrderStatus       `json:"status"`
	DeliveredContent *model.DeliveredContent `json:"deliveredContent,omitempty"`
}

type InitiatePaymentRequest struct {
	OrderID string `json:"orderId"`
}

type InitiatePaymentResponse struct {
	RedirectURL string `json:"redirectUrl"`
}

type WebhookResponse struct {
	TransactionID string `json:"transactionId,omitempty"`
	Duplicate     bool   `json:"duplicate"`
	Updated       int    `json:"updated"`
}

type ProductRequest struct {
	Title        string                 `json:"title"`
	Slug         string                 `json:"slug"`
	RegularPrice decimal.Decimal        `json:"regularPrice"`
	SalePrice    decimal.Decimal        `json:"salePrice"`
	Variants     []model.ProductVariant `json:"variants"`
	IsAvailable  *bool                  `json:"isAvailable"`
	FileType     string                 `json:"fileType"`
	AccessLink   string                 `json:"accessLink"`
	AccessNote   string                 `json:"accessNote"`
}

type ErrorResponse struct {
	Code    int32  `json:"code"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}
