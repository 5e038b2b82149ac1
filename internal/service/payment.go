package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"digital-storefront/internal/apperr"
	"digital-storefront/internal/auth"
	"digital-storefront/internal/client"
	"digital-storefront/internal/config"
	"digital-storefront/internal/gate"
	"digital-storefront/internal/model"
	"digital-storefront/internal/repository"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ProviderRedirect = "redirect"
	ProviderPaypal   = "paypal"
	ProviderStripe   = "stripe"
)

type PaymentService interface {
	Initiate(ctx context.Context, caller auth.Caller, orderID string) (string, error)
	HandleWebhook(ctx context.Context, provider string, headers http.Header, body []byte) (*PaymentResult, error)
	CapturePaypal(ctx context.Context, paypalOrderID string) error
}

type paymentServiceImpl struct {
	gateway      client.PaymentGateway
	parsers      map[string]client.WebhookParser
	paypalClient client.PaypalClient
	orderRepo    repository.OrderRepository
	accountRepo  repository.AccountRepository
	fulfillment  FulfillmentService
	cfg          config.Payment
	log          *log.Helper
}

// NewPaymentService wires the active gateway and the webhook parsers that may
// confirm payments. paypalClient may be nil when PayPal is not configured.
func NewPaymentService(
	gateway client.PaymentGateway,
	parsers map[string]client.WebhookParser,
	paypalClient client.PaypalClient,
	orderRepo repository.OrderRepository,
	accountRepo repository.AccountRepository,
	fulfillment FulfillmentService,
	cfg config.Payment,
	logger log.Logger,
) PaymentService {
	return &paymentServiceImpl{
		gateway:      gateway,
		parsers:      parsers,
		paypalClient: paypalClient,
		orderRepo:    orderRepo,
		accountRepo:  accountRepo,
		fulfillment:  fulfillment,
		cfg:          cfg,
		log:          log.NewHelper(log.With(logger, "module", "service/payment")),
	}
}

// Initiate asks the gateway for a redirect URL covering every pending order of
// the checkout the given order belongs to. Orders are not touched.
func (s *paymentServiceImpl) Initiate(ctx context.Context, caller auth.Caller, orderID string) (string, error) {
	if strings.TrimSpace(orderID) == "" {
		return "", apperr.Validation("orderId is required")
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperr.NotFound("order %s not found", orderID)
	}
	if err != nil {
		s.log.Errorf("load order %s: %v", orderID, err)
		return "", apperr.Persistence(err)
	}
	if !gate.CanReadOrder(order, caller) {
		return "", apperr.Forbidden("order %s is not visible to this caller", orderID)
	}
	if order.Status != model.OrderStatusPending || order.PaymentStatus == model.PaymentStatusPaid {
		return "", apperr.InvalidTransition("order %s is %s/%s and cannot be paid", order.ID, order.Status, order.PaymentStatus)
	}

	siblings, err := s.orderRepo.FindByTransactionID(ctx, nil, order.TransactionID)
	if err != nil {
		s.log.Errorf("load orders of %s: %v", order.TransactionID, err)
		return "", apperr.Persistence(err)
	}
	total := decimal.Zero
	for _, o := range siblings {
		if o.Status == model.OrderStatusPending && o.PaymentStatus != model.PaymentStatusPaid {
			total = total.Add(o.Amount)
		}
	}

	payer, err := s.accountRepo.FindByID(ctx, order.AccountID)
	if err != nil {
		s.log.Errorf("load payer %s: %v", order.AccountID, err)
		return "", apperr.Persistence(err)
	}
	phone := s.cfg.DefaultPhone
	if payer.HasPhone() {
		phone = *payer.Phone
	}

	url, err := s.gateway.Initiate(ctx, &client.InitiateRequest{
		Amount:        total,
		Currency:      s.cfg.Currency,
		TransactionID: order.TransactionID,
		PayerName:     payer.Name,
		PayerEmail:    payer.Email,
		PayerPhone:    phone,
		Description:   fmt.Sprintf("Order %s", order.TransactionID),
	})
	if err != nil {
		s.log.Errorf("initiate payment for %s: %v", order.TransactionID, err)
		return "", apperr.Gateway(err, "payment gateway did not accept the payment")
	}
	if url == "" {
		return "", apperr.Gateway(nil, "payment gateway returned no redirect url")
	}

	s.log.Infof("payment initiated for %s amount %s", order.TransactionID, total.StringFixed(2))
	return url, nil
}

func (s *paymentServiceImpl) HandleWebhook(ctx context.Context, provider string, headers http.Header, body []byte) (*PaymentResult, error) {
	parser, ok := s.parsers[provider]
	if !ok || parser == nil {
		return nil, apperr.NotFound("payment provider %q is not configured", provider)
	}

	event, err := parser.ParseWebhook(ctx, headers, body)
	if errors.Is(err, client.ErrInvalidSignature) {
		s.log.Warnf("%s webhook rejected: %v", provider, err)
		return nil, apperr.Unauthorized("webhook signature rejected")
	}
	if err != nil {
		s.log.Warnf("%s webhook unreadable: %v", provider, err)
		return nil, apperr.Validation("invalid webhook payload")
	}

	if event.Outcome == client.OutcomeIgnored || event.TransactionID == "" {
		s.log.Infof("%s webhook %s (%s) ignored", provider, event.EventID, event.EventType)
		return &PaymentResult{TransactionID: event.TransactionID}, nil
	}

	return s.fulfillment.ConfirmPayment(ctx, event.EventID, event.EventType, event.TransactionID,
		event.Outcome == client.OutcomeSucceeded)
}

// CapturePaypal captures an approved PayPal order when the buyer returns. The
// capture webhook then confirms the storefront orders.
func (s *paymentServiceImpl) CapturePaypal(ctx context.Context, paypalOrderID string) error {
	if s.paypalClient == nil {
		return apperr.NotFound("paypal is not configured")
	}
	if paypalOrderID == "" {
		return apperr.Validation("missing order token")
	}

	if err := s.paypalClient.CaptureOrder(ctx, paypalOrderID); err != nil {
		s.log.Errorf("paypal capture %s: %v", paypalOrderID, err)
		return apperr.Gateway(err, "paypal capture failed")
	}
	return nil
}
