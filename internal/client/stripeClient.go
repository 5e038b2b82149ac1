package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"digital-storefront/internal/config"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/checkout/session"
	"github.com/stripe/stripe-go/v83/webhook"
)

const stripeSignatureHeader = "Stripe-Signature"

type StripeClient interface {
	PaymentGateway
	WebhookParser
}

type stripeClientImpl struct {
	webhookSecret string
	successURL    string
	cancelURL     string
}

// NewStripeClient sets the package level stripe key, so only one Stripe
// account is supported per process.
func NewStripeClient(stripeCfg *config.Stripe) StripeClient {
	stripe.Key = stripeCfg.SecretKey
	return &stripeClientImpl{
		webhookSecret: stripeCfg.WebhookSecret,
		successURL:    stripeCfg.SuccessURL,
		cancelURL:     stripeCfg.CancelURL,
	}
}

// Initiate opens a Checkout Session charging the transaction total as a single
// line. client_reference_id carries the transaction id back on the webhook.
func (c *stripeClientImpl) Initiate(ctx context.Context, in *InitiateRequest) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(in.TransactionID),
		SuccessURL:        stripe.String(c.successURL),
		CancelURL:         stripe.String(c.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(strings.ToLower(in.Currency)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(in.Description),
					},
					UnitAmount: stripe.Int64(in.Amount.Shift(2).Round(0).IntPart()),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	if in.PayerEmail != "" {
		params.CustomerEmail = stripe.String(in.PayerEmail)
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create checkout session: %w", err)
	}
	if sess.URL == "" {
		return "", fmt.Errorf("stripe session %s has no url", sess.ID)
	}

	return sess.URL, nil
}

func (c *stripeClientImpl) ParseWebhook(_ context.Context, header http.Header, body []byte) (*GatewayEvent, error) {
	event, err := webhook.ConstructEventWithOptions(body, header.Get(stripeSignatureHeader), c.webhookSecret,
		webhook.ConstructEventOptions{
			Tolerance:                webhook.DefaultTolerance,
			IgnoreAPIVersionMismatch: true,
		})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &GatewayEvent{
		EventID:   event.ID,
		EventType: string(event.Type),
		Outcome:   OutcomeIgnored,
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		out.Outcome = OutcomeSucceeded
	case "checkout.session.expired", "checkout.session.async_payment_failed":
		out.Outcome = OutcomeFailed
	default:
		return out, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	out.TransactionID = sess.ClientReferenceID

	// a completed session may still be awaiting an async payment method
	if event.Type == "checkout.session.completed" && sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		out.Outcome = OutcomeIgnored
	}

	return out, nil
}
