// Package notify tells the outside world that an order moved. Notifications
// never carry delivered content.
package notify

import (
	"context"
	"errors"
	"time"

	"digital-storefront/internal/model"

	"github.com/shopspring/decimal"
)

type OrderEvent struct {
	Type          string          `json:"type"`
	OrderID       string          `json:"orderId"`
	TransactionID string          `json:"transactionId"`
	AccountID     string          `json:"accountId"`
	ProductID     string          `json:"productId"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"paymentStatus"`
	Amount        decimal.Decimal `json:"amount"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

const (
	EventOrderCreated   = "order.created"
	EventOrderPaid      = "order.paid"
	EventPaymentFailed  = "order.payment_failed"
	EventOrderCompleted = "order.completed"
	EventOrderDeclined  = "order.declined"
	EventOrderCancelled = "order.cancelled"
)

func NewOrderEvent(eventType string, o *model.Order) *OrderEvent {
	return &OrderEvent{
		Type:          eventType,
		OrderID:       o.ID,
		TransactionID: o.TransactionID,
		AccountID:     o.AccountID,
		ProductID:     o.ProductID,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		Amount:        o.Amount,
		OccurredAt:    time.Now().UTC(),
	}
}

// Recipient is who a customer-facing notification is addressed to.
type Recipient struct {
	Name  string
	Email string
}

type Notifier interface {
	OrderChanged(ctx context.Context, event *OrderEvent, to *Recipient) error
}

type nopNotifier struct{}

func Nop() Notifier { return nopNotifier{} }

func (nopNotifier) OrderChanged(context.Context, *OrderEvent, *Recipient) error { return nil }

type multiNotifier []Notifier

// Multi fans an event out to every notifier and joins their errors.
func Multi(notifiers ...Notifier) Notifier {
	return multiNotifier(notifiers)
}

func (m multiNotifier) OrderChanged(ctx context.Context, event *OrderEvent, to *Recipient) error {
	var errs []error
	for _, n := range m {
		if err := n.OrderChanged(ctx, event, to); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
