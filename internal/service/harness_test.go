package service

import (
	"context"
	"testing"

	"digital-storefront/internal/auth"
	"digital-storefront/internal/client"
	"digital-storefront/internal/config"
	"digital-storefront/internal/model"
	"digital-storefront/internal/repository"
	"digital-storefront/internal/testutil"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	courseID  = "0b7f3c1e-5d0a-4c55-9f1e-3d2a1c9b0001"
	licenseID = "0b7f3c1e-5d0a-4c55-9f1e-3d2a1c9b0002"
)

type harness struct {
	db          *gorm.DB
	accounts    repository.AccountRepository
	orders      repository.OrderRepository
	products    repository.ProductRepository
	notifier    *RecordingNotifier
	gateway     *MockGateway
	parser      *MockWebhookParser
	checkout    CheckoutService
	fulfillment FulfillmentService
	orderSvc    OrderService
	payment     PaymentService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := testutil.NewDB(t)
	h := &harness{
		db:       db,
		accounts: repository.NewAccountRepository(db),
		orders:   repository.NewOrderRepository(db),
		products: repository.NewProductRepository(db),
		notifier: &RecordingNotifier{},
		gateway:  &MockGateway{},
		parser:   &MockWebhookParser{},
	}
	if err := h.products.Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	events := NewOrderEvents(h.notifier, h.accounts, testLogger)
	identity := NewIdentityResolver(h.accounts, testLogger)
	factory := NewOrderFactory(h.products, h.orders, testLogger)

	h.checkout = NewCheckoutService(identity, factory, events, testLogger)
	h.fulfillment = NewFulfillmentService(db, h.orders, repository.NewWebhookEventRepository(db), events, testLogger)
	h.orderSvc = NewOrderService(h.orders, h.products, h.accounts, testLogger)
	h.payment = NewPaymentService(
		h.gateway,
		map[string]client.WebhookParser{ProviderRedirect: h.parser},
		nil,
		h.orders,
		h.accounts,
		h.fulfillment,
		config.Payment{Currency: "BDT", DefaultPhone: "01700000000"},
		testLogger,
	)
	return h
}

// buy checks out the given cart as an anonymous buyer.
func (h *harness) buy(t *testing.T, email string, items ...CartItem) (*CheckoutResult, auth.Caller) {
	t.Helper()

	res, err := h.checkout.Checkout(context.Background(), auth.Anonymous, &CheckoutInput{
		Name:  "Buyer",
		Email: email,
		Items: items,
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	return res, auth.Caller{AccountID: res.Orders[0].AccountID, Role: model.RoleCustomer}
}

func adminCaller() auth.Caller {
	return auth.Caller{AccountID: uuid.NewString(), Role: model.RoleAdmin}
}

func (h *harness) reload(t *testing.T, orderID string) *model.Order {
	t.Helper()
	o, err := h.orders.FindByID(context.Background(), orderID)
	if err != nil {
		t.Fatalf("reload %s: %v", orderID, err)
	}
	return o
}
