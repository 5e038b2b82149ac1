package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
)

// InitiateRequest is what a hosted checkout needs to charge one transaction.
type InitiateRequest struct {
	Amount        decimal.Decimal
	Currency      string
	TransactionID string
	PayerName     string
	PayerEmail    string
	PayerPhone    string
	Description   string
}

// PaymentGateway starts a hosted payment and returns the URL the customer is
// sent to.
type PaymentGateway interface {
	Initiate(ctx context.Context, req *InitiateRequest) (string, error)
}

type PaymentOutcome string

const (
	OutcomeSucceeded PaymentOutcome = "succeeded"
	OutcomeFailed    PaymentOutcome = "failed"
	OutcomeIgnored   PaymentOutcome = "ignored"
)

// GatewayEvent is a verified payment notification reduced to what the order
// lifecycle cares about.
type GatewayEvent struct {
	EventID       string
	EventType     string
	TransactionID string
	Outcome       PaymentOutcome
}

// WebhookParser authenticates a gateway notification and decodes it.
type WebhookParser interface {
	ParseWebhook(ctx context.Context, header http.Header, body []byte) (*GatewayEvent, error)
}

// ErrInvalidSignature is returned by a WebhookParser when the notification
// cannot be authenticated.
var ErrInvalidSignature = errors.New("invalid webhook signature")
