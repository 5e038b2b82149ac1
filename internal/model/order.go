package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusDeclined   OrderStatus = "declined"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
	PaymentStatusFailed PaymentStatus = "failed"
)

const DefaultPaymentMethod = "Manual"

// DeliveredContent is what the customer pays for. Stored inline on the order.
type DeliveredContent struct {
	AccountEmail    string `gorm:"size:255" json:"accountEmail,omitempty"`
	AccountPassword string `gorm:"size:255" json:"accountPassword,omitempty"`
	AccessNotes     string `gorm:"type:text" json:"accessNotes,omitempty"`
	DownloadLink    string `gorm:"size:1024" json:"downloadLink,omitempty"`
}

func (d DeliveredContent) IsEmpty() bool {
	return d.AccountEmail == "" && d.AccountPassword == "" && d.AccessNotes == "" && d.DownloadLink == ""
}

type Order struct {
	ID            string           `gorm:"primaryKey;size:36;not null"`
	AccountID     string           `gorm:"size:36;index;not null"`
	ProductID     string           `gorm:"size:36;index;not null"`
	TransactionID string           `gorm:"size:64;index;not null"` // groups sibling orders of one checkout
	PaymentMethod string           `gorm:"size:32;not null"`
	VariantName   string           `gorm:"size:128"`
	Quantity      int              `gorm:"not null"`
	Amount        decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	PaymentStatus PaymentStatus    `gorm:"size:16;index;not null"`
	Status        OrderStatus      `gorm:"size:16;index;not null"`
	Screenshot    string           `gorm:"size:1024"` // optional payment proof
	Delivered     DeliveredContent `gorm:"embedded;embeddedPrefix:delivered_"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}
