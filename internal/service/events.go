package service

import (
	"context"

	"digital-storefront/internal/model"
	"digital-storefront/internal/notify"
	"digital-storefront/internal/repository"

	"github.com/go-kratos/kratos/v2/log"
)

// OrderEvents fans order changes out to the notifier. Failures are logged and
// never undo the change that triggered them.
type OrderEvents struct {
	notifier    notify.Notifier
	accountRepo repository.AccountRepository
	log         *log.Helper
}

func NewOrderEvents(notifier notify.Notifier, accountRepo repository.AccountRepository, logger log.Logger) *OrderEvents {
	if notifier == nil {
		notifier = notify.Nop()
	}
	return &OrderEvents{
		notifier:    notifier,
		accountRepo: accountRepo,
		log:         log.NewHelper(log.With(logger, "module", "service/events")),
	}
}

func (e *OrderEvents) publish(ctx context.Context, eventType string, orders ...*model.Order) {
	recipients := make(map[string]*notify.Recipient)
	for _, o := range orders {
		to, ok := recipients[o.AccountID]
		if !ok {
			if account, err := e.accountRepo.FindByID(ctx, o.AccountID); err == nil {
				to = &notify.Recipient{Name: account.Name, Email: account.Email}
			} else {
				e.log.Warnf("load recipient %s for %s: %v", o.AccountID, eventType, err)
			}
			recipients[o.AccountID] = to
		}

		if err := e.notifier.OrderChanged(ctx, notify.NewOrderEvent(eventType, o), to); err != nil {
			e.log.Warnf("notify %s for order %s: %v", eventType, o.ID, err)
		}
	}
}

func eventForStatus(s model.OrderStatus, p model.PaymentStatus) string {
	switch s {
	case model.OrderStatusCompleted:
		return notify.EventOrderCompleted
	case model.OrderStatusDeclined:
		return notify.EventOrderDeclined
	case model.OrderStatusCancelled:
		return notify.EventOrderCancelled
	case model.OrderStatusProcessing:
		return notify.EventOrderPaid
	}
	if p == model.PaymentStatusFailed {
		return notify.EventPaymentFailed
	}
	return notify.EventOrderCreated
}
