package service

import (
	"context"

	"digital-storefront/internal/auth"
	"digital-storefront/internal/gate"
	"digital-storefront/internal/model"
	"digital-storefront/internal/notify"

	"github.com/go-kratos/kratos/v2/log"
)

type CheckoutInput struct {
	Name          string
	Email         string
	Phone         string
	PaymentMethod string
	Screenshot    string
	Items         []CartItem
}

type CheckoutResult struct {
	OrderID       string            `json:"orderId"`
	TransactionID string            `json:"transactionId"`
	Orders        []*gate.OrderView `json:"orders"`
	Skipped       []SkippedItem     `json:"skipped"`
}

type CheckoutService interface {
	Checkout(ctx context.Context, caller auth.Caller, in *CheckoutInput) (*CheckoutResult, error)
}

type checkoutServiceImpl struct {
	identity IdentityResolver
	factory  OrderFactory
	events   *OrderEvents
	log      *log.Helper
}

func NewCheckoutService(identity IdentityResolver, factory OrderFactory, events *OrderEvents, logger log.Logger) CheckoutService {
	return &checkoutServiceImpl{
		identity: identity,
		factory:  factory,
		events:   events,
		log:      log.NewHelper(log.With(logger, "module", "service/checkout")),
	}
}

// Checkout resolves the buyer and turns the cart into pending orders. A signed
// in customer buys as themselves; everyone else is resolved from the contact
// details on the form.
func (s *checkoutServiceImpl) Checkout(ctx context.Context, caller auth.Caller, in *CheckoutInput) (*CheckoutResult, error) {
	accountID := caller.AccountID
	if caller.IsAnonymous() || caller.IsAdmin() {
		id, err := s.identity.Resolve(ctx, in.Name, in.Email, in.Phone)
		if err != nil {
			return nil, err
		}
		accountID = id
	}

	batch, err := s.factory.CreateOrders(ctx, accountID, in.Items, in.PaymentMethod, in.Screenshot)
	if err != nil {
		return nil, err
	}

	s.events.publish(ctx, notify.EventOrderCreated, batch.Orders...)

	buyer := auth.Caller{AccountID: accountID, Role: model.RoleCustomer}
	skipped := batch.Skipped
	if skipped == nil {
		skipped = []SkippedItem{}
	}
	return &CheckoutResult{
		OrderID:       batch.PrimaryOrderID(),
		TransactionID: batch.TransactionID,
		Orders:        gate.Orders(batch.Orders, buyer),
		Skipped:       skipped,
	}, nil
}
