package client

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"digital-storefront/internal/config"
)

const CallbackSecretHeader = "X-Callback-Secret"

type redirectClientImpl struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	successURL     string
	cancelURL      string
	callbackSecret string
}

type redirectInitiatePayload struct {
	Amount        string `json:"amount"`
	Currency      string `json:"currency,omitempty"`
	TransactionID string `json:"transactionId"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Email         string `json:"email,omitempty"`
	SuccessURL    string `json:"success_url,omitempty"`
	CancelURL     string `json:"cancel_url,omitempty"`
}

type redirectInitiateResult struct {
	Success    bool   `json:"success"`
	PaymentURL string `json:"payment_url"`
	Message    string `json:"message"`
}

type redirectCallback struct {
	EventID       string `json:"eventId"`
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

// RedirectClient talks to a hosted checkout that answers an initiate call with
// {success, payment_url} and reports back through a shared-secret callback.
type RedirectClient interface {
	PaymentGateway
	WebhookParser
}

func NewRedirectClient(redirectCfg *config.Redirect, callbackSecret string) RedirectClient {
	return &redirectClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:        strings.TrimRight(redirectCfg.BaseURL, "/"),
		apiKey:         redirectCfg.APIKey,
		successURL:     redirectCfg.SuccessURL,
		cancelURL:      redirectCfg.CancelURL,
		callbackSecret: callbackSecret,
	}
}

func (c *redirectClientImpl) Initiate(ctx context.Context, in *InitiateRequest) (string, error) {
	body, err := json.Marshal(&redirectInitiatePayload{
		Amount:        in.Amount.StringFixed(2),
		Currency:      in.Currency,
		TransactionID: in.TransactionID,
		Name:          in.PayerName,
		Phone:         in.PayerPhone,
		Email:         in.PayerEmail,
		SuccessURL:    c.successURL,
		CancelURL:     c.cancelURL,
	})
	if err != nil {
		return "", fmt.Errorf("marshal req payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkout", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("gateway error %d: %s", resp.StatusCode, string(b))
	}

	var result redirectInitiateResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode gateway response: %w", err)
	}

	if !result.Success || result.PaymentURL == "" {
		return "", fmt.Errorf("gateway rejected payment: %s", result.Message)
	}

	return result.PaymentURL, nil
}

// ParseWebhook checks the shared secret header before decoding the callback.
// An unconfigured secret rejects every callback.
func (c *redirectClientImpl) ParseWebhook(_ context.Context, header http.Header, body []byte) (*GatewayEvent, error) {
	got := header.Get(CallbackSecretHeader)
	if c.callbackSecret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(c.callbackSecret)) != 1 {
		return nil, ErrInvalidSignature
	}

	var cb redirectCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, fmt.Errorf("decode callback payload: %w", err)
	}
	if cb.TransactionID == "" {
		return nil, fmt.Errorf("callback without transactionId")
	}

	event := &GatewayEvent{
		EventID:       cb.EventID,
		EventType:     "redirect." + strings.ToLower(cb.Status),
		TransactionID: cb.TransactionID,
	}
	if event.EventID == "" {
		event.EventID = cb.TransactionID + ":" + strings.ToLower(cb.Status)
	}

	switch strings.ToLower(cb.Status) {
	case "success", "completed", "paid":
		event.Outcome = OutcomeSucceeded
	case "failed", "cancelled", "canceled":
		event.Outcome = OutcomeFailed
	default:
		event.Outcome = OutcomeIgnored
	}

	return event, nil
}
