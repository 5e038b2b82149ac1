package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"digital-storefront/internal/apperr"
	"digital-storefront/internal/auth"
	"digital-storefront/internal/fulfillment"
	"digital-storefront/internal/gate"
	"digital-storefront/internal/model"
	"digital-storefront/internal/repository"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// PaymentResult reports what a gateway confirmation did.
type PaymentResult struct {
	TransactionID string
	Duplicate     bool
	Updated       []*model.Order
}

type FulfillmentService interface {
	ConfirmPayment(ctx context.Context, eventID, eventType, transactionID string, succeeded bool) (*PaymentResult, error)
	Verify(ctx context.Context, caller auth.Caller, orderID string, status model.OrderStatus, content *model.DeliveredContent) (*gate.OrderView, error)
	Cancel(ctx context.Context, caller auth.Caller, orderID string) (*gate.OrderView, error)
}

type fulfillmentServiceImpl struct {
	db               *gorm.DB
	orderRepo        repository.OrderRepository
	webhookEventRepo repository.WebhookEventRepository
	events           *OrderEvents
	log              *log.Helper
}

func NewFulfillmentService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	webhookEventRepo repository.WebhookEventRepository,
	events *OrderEvents,
	logger log.Logger,
) FulfillmentService {
	return &fulfillmentServiceImpl{
		db:               db,
		orderRepo:        orderRepo,
		webhookEventRepo: webhookEventRepo,
		events:           events,
		log:              log.NewHelper(log.With(logger, "module", "service/fulfillment")),
	}
}

// ConfirmPayment applies a gateway outcome to every pending order of the
// transaction. An event id already recorded makes the call a no-op.
func (s *fulfillmentServiceImpl) ConfirmPayment(
	ctx context.Context,
	eventID, eventType, transactionID string,
	succeeded bool,
) (*PaymentResult, error) {
	if transactionID == "" {
		return nil, apperr.Validation("transactionId is required")
	}

	ev := fulfillment.EventPaymentFailed
	if succeeded {
		ev = fulfillment.EventPaymentConfirmed
	}

	result := &PaymentResult{TransactionID: transactionID}
	errNoOrders := errors.New("no orders")

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if eventID != "" {
			seen, err := s.webhookEventRepo.Exists(ctx, tx, eventID)
			if err != nil {
				return fmt.Errorf("check webhook event: %w", err)
			}
			if seen {
				result.Duplicate = true
				return nil
			}
		}

		orders, err := s.orderRepo.FindByTransactionID(ctx, tx, transactionID)
		if err != nil {
			return fmt.Errorf("find orders by transaction: %w", err)
		}
		if len(orders) == 0 {
			return errNoOrders
		}

		for _, o := range orders {
			if o.Status != model.OrderStatusPending {
				continue
			}
			from := fulfillment.StateOf(o)
			to, err := fulfillment.Next(from, ev)
			if err != nil {
				s.log.Warnf("skip order %s on %s: %v", o.ID, ev, err)
				continue
			}

			err = s.orderRepo.Transition(ctx, tx, o.ID, from, to, nil)
			if errors.Is(err, repository.ErrStateChanged) {
				s.log.Warnf("order %s moved concurrently, skipping %s", o.ID, ev)
				continue
			}
			if err != nil {
				return fmt.Errorf("transition order %s: %w", o.ID, err)
			}

			o.Status, o.PaymentStatus = to.Status, to.Payment
			result.Updated = append(result.Updated, o)
		}

		if eventID != "" {
			if err := s.webhookEventRepo.MarkProcessed(ctx, tx, eventID, eventType); err != nil {
				return fmt.Errorf("mark webhook event processed: %w", err)
			}
		}
		return nil
	})

	switch {
	case errors.Is(err, errNoOrders):
		return nil, apperr.NotFound("no orders for transaction %s", transactionID)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		// the same event was applied by a concurrent delivery
		return &PaymentResult{TransactionID: transactionID, Duplicate: true}, nil
	case err != nil:
		s.log.Errorf("confirm payment %s: %v", transactionID, err)
		return nil, apperr.Persistence(err)
	}

	if len(result.Updated) > 0 {
		s.log.Infof("%s applied to %d orders of %s", ev, len(result.Updated), transactionID)
		s.events.publish(ctx, eventForStatus(result.Updated[0].Status, result.Updated[0].PaymentStatus), result.Updated...)
	}
	return result, nil
}

// Verify is the admin decision on an order. Completing a pending unpaid order
// means the admin has accepted the payment proof, so the payment is confirmed
// in the same transaction before delivery.
func (s *fulfillmentServiceImpl) Verify(
	ctx context.Context,
	caller auth.Caller,
	orderID string,
	status model.OrderStatus,
	content *model.DeliveredContent,
) (*gate.OrderView, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Forbidden("only admins can verify orders")
	}

	var delivered *model.DeliveredContent
	if content != nil {
		delivered = trimContent(content)
	}

	var steps []fulfillment.Event
	switch status {
	case model.OrderStatusCompleted:
		if delivered == nil || delivered.IsEmpty() {
			return nil, apperr.Validation("delivered content is required to complete an order")
		}
		steps = []fulfillment.Event{fulfillment.EventComplete}
	case model.OrderStatusDeclined:
		if delivered != nil && !delivered.IsEmpty() {
			return nil, apperr.Validation("delivered content is only accepted when completing an order")
		}
		steps = []fulfillment.Event{fulfillment.EventDecline}
	default:
		return nil, apperr.Validation("status must be completed or declined, got %q", status)
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// a gateway-reported failure is never overridden; the buyer has to pay again
	if status == model.OrderStatusCompleted && order.Status == model.OrderStatusPending &&
		order.PaymentStatus == model.PaymentStatusUnpaid {
		steps = append([]fulfillment.Event{fulfillment.EventPaymentConfirmed}, steps...)
	}

	if err := s.apply(ctx, order, steps, delivered); err != nil {
		return nil, err
	}

	s.events.publish(ctx, eventForStatus(order.Status, order.PaymentStatus), order)
	return gate.Order(order, caller)
}

// Cancel is open to the owner and to admins while the order is not terminal.
func (s *fulfillmentServiceImpl) Cancel(ctx context.Context, caller auth.Caller, orderID string) (*gate.OrderView, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !gate.CanReadOrder(order, caller) {
		return nil, apperr.Forbidden("order %s is not visible to this caller", orderID)
	}

	if err := s.apply(ctx, order, []fulfillment.Event{fulfillment.EventCancel}, nil); err != nil {
		return nil, err
	}

	s.events.publish(ctx, eventForStatus(order.Status, order.PaymentStatus), order)
	return gate.Order(order, caller)
}

// apply runs the events in order inside one transaction. Each step is a
// conditional update; if any is rejected nothing is written. Delivered
// content goes with the step that enters completed.
func (s *fulfillmentServiceImpl) apply(ctx context.Context, order *model.Order, steps []fulfillment.Event, delivered *model.DeliveredContent) error {
	from := fulfillment.StateOf(order)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current := from
		for _, ev := range steps {
			next, err := fulfillment.Next(current, ev)
			if err != nil {
				return err
			}

			var content *model.DeliveredContent
			if next.Status == model.OrderStatusCompleted {
				content = delivered
			}

			err = s.orderRepo.Transition(ctx, tx, order.ID, current, next, content)
			if errors.Is(err, repository.ErrStateChanged) {
				return apperr.InvalidTransition("order %s changed while applying %s", order.ID, ev)
			}
			if err != nil {
				return fmt.Errorf("transition order %s: %w", order.ID, err)
			}
			current = next
		}

		order.Status, order.PaymentStatus = current.Status, current.Payment
		if delivered != nil && current.Status == model.OrderStatusCompleted {
			order.Delivered = *delivered
		}
		return nil
	})
	if err == nil {
		s.log.Infof("order %s moved %s -> %s/%s", order.ID, from, order.Status, order.PaymentStatus)
		return nil
	}

	order.Status, order.PaymentStatus = from.Status, from.Payment
	if apperr.IsInvalidTransition(err) || apperr.IsValidation(err) {
		return err
	}
	s.log.Errorf("apply %v to order %s: %v", steps, order.ID, err)
	return apperr.Persistence(err)
}

func (s *fulfillmentServiceImpl) loadOrder(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("order %s not found", orderID)
	}
	if err != nil {
		s.log.Errorf("load order %s: %v", orderID, err)
		return nil, apperr.Persistence(err)
	}
	return order, nil
}

func trimContent(c *model.DeliveredContent) *model.DeliveredContent {
	return &model.DeliveredContent{
		AccountEmail:    strings.TrimSpace(c.AccountEmail),
		AccountPassword: c.AccountPassword,
		AccessNotes:     strings.TrimSpace(c.AccessNotes),
		DownloadLink:    strings.TrimSpace(c.DownloadLink),
	}
}
