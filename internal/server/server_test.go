package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"digital-storefront/internal/auth"
	"digital-storefront/internal/client"
	"digital-storefront/internal/config"
	"digital-storefront/internal/dto"
	"digital-storefront/internal/model"
	"digital-storefront/internal/notify"
	"digital-storefront/internal/repository"
	"digital-storefront/internal/server"
	"digital-storefront/internal/service"
	"digital-storefront/internal/testutil"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

const (
	callbackSecret = "callback-secret"
	courseID       = "0b7f3c1e-5d0a-4c55-9f1e-3d2a1c9b0001"
	licenseID      = "0b7f3c1e-5d0a-4c55-9f1e-3d2a1c9b0002"
)

type testApp struct {
	handler http.Handler
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	logger := log.NewStdLogger(io.Discard)
	ctx := context.Background()
	db := testutil.NewDB(t)

	accountRepo := repository.NewAccountRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	if err := productRepo.Seed(ctx); err != nil {
		t.Fatalf("seed products: %v", err)
	}

	hash, err := auth.HashPassword("admin-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := accountRepo.Create(ctx, nil, &model.Account{
		ID:           uuid.NewString(),
		Name:         "Admin",
		Email:        "admin@shop.example.com",
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	}); err != nil {
		t.Fatalf("create admin: %v", err)
	}

	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			TransactionID string `json:"transactionId"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":     true,
			"payment_url": "https://gw.example.com/pay/" + body.TransactionID,
		})
	}))
	t.Cleanup(gw.Close)
	redirect := client.NewRedirectClient(&config.Redirect{BaseURL: gw.URL}, callbackSecret)

	tokens := auth.NewTokenIssuer("server-test-secret", time.Hour)
	events := service.NewOrderEvents(notify.Nop(), accountRepo, logger)
	fulfillment := service.NewFulfillmentService(db, orderRepo, repository.NewWebhookEventRepository(db), events, logger)

	services := &server.Services{
		Auth: service.NewAuthService(accountRepo, tokens, logger),
		Checkout: service.NewCheckoutService(
			service.NewIdentityResolver(accountRepo, logger),
			service.NewOrderFactory(productRepo, orderRepo, logger),
			events,
			logger,
		),
		Order:       service.NewOrderService(orderRepo, productRepo, accountRepo, logger),
		Fulfillment: fulfillment,
		Payment: service.NewPaymentService(
			redirect,
			map[string]client.WebhookParser{service.ProviderRedirect: redirect},
			nil,
			orderRepo,
			accountRepo,
			fulfillment,
			config.Payment{Currency: "BDT", DefaultPhone: "01700000000"},
			logger,
		),
		Product: service.NewProductService(productRepo, logger),
	}

	return &testApp{handler: server.NewServer(services, tokens, logger).Handler()}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func (a *testApp) login(t *testing.T, identifier, password string) string {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/api/auth/login", "", &dto.LoginRequest{Identifier: identifier, Password: password}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", identifier, rec.Code, rec.Body.String())
	}
	return decode[service.LoginResult](t, rec).Token
}

type orderJSON struct {
	ID               string                  `json:"id"`
	Status           string                  `json:"status"`
	PaymentStatus    string                  `json:"paymentStatus"`
	DeliveredContent *model.DeliveredContent `json:"deliveredContent"`
}

type checkoutJSON struct {
	OrderID       string      `json:"orderId"`
	TransactionID string      `json:"transactionId"`
	Orders        []orderJSON `json:"orders"`
}

func (a *testApp) checkout(t *testing.T, email string, items ...*dto.CartItem) checkoutJSON {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/api/checkout", "", &dto.CheckoutRequest{
		Name:      "Buyer",
		Email:     email,
		CartItems: items,
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("checkout: %d %s", rec.Code, rec.Body.String())
	}
	return decode[checkoutJSON](t, rec)
}

func TestPurchaseToDelivery(t *testing.T) {
	app := newTestApp(t)

	bought := app.checkout(t, "buyer@example.com",
		&dto.CartItem{ProductID: courseID, Quantity: 1},
		&dto.CartItem{ProductID: licenseID, VariantName: "Gold", Quantity: 1},
	)
	if len(bought.Orders) != 2 {
		t.Fatalf("orders = %d, want 2", len(bought.Orders))
	}

	buyer := app.login(t, "buyer@example.com", "buyer@example.com")
	admin := app.login(t, "admin@shop.example.com", "admin-pass")

	rec := app.do(t, http.MethodPost, "/api/payment/initiate", buyer, &dto.InitiatePaymentRequest{OrderID: bought.OrderID}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("initiate: %d %s", rec.Code, rec.Body.String())
	}
	if got := decode[dto.InitiatePaymentResponse](t, rec).RedirectURL; got != "https://gw.example.com/pay/"+bought.TransactionID {
		t.Errorf("redirect url = %s", got)
	}

	signed := http.Header{}
	signed.Set(client.CallbackSecretHeader, callbackSecret)
	callback := map[string]string{"eventId": "cb-1", "transactionId": bought.TransactionID, "status": "success"}

	rec = app.do(t, http.MethodPost, "/api/payment/callback", "", callback, signed)
	if rec.Code != http.StatusOK {
		t.Fatalf("callback: %d %s", rec.Code, rec.Body.String())
	}
	if res := decode[dto.WebhookResponse](t, rec); res.Updated != 2 || res.Duplicate {
		t.Errorf("callback result = %+v", res)
	}

	rec = app.do(t, http.MethodPost, "/api/payment/callback", "", callback, signed)
	if res := decode[dto.WebhookResponse](t, rec); !res.Duplicate || res.Updated != 0 {
		t.Errorf("redelivered callback result = %+v", res)
	}

	rec = app.do(t, http.MethodPost, "/api/payment/callback", "", callback, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unsigned callback status = %d, want 401", rec.Code)
	}

	content := &model.DeliveredContent{AccountEmail: "seat@vendor.example.com", AccountPassword: "hunter2"}
	rec = app.do(t, http.MethodPut, "/api/admin/orders/"+bought.OrderID, admin, &dto.VerifyOrderRequest{
		Status:           model.OrderStatusCompleted,
		DeliveredContent: content,
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.do(t, http.MethodGet, "/api/orders/"+bought.OrderID, buyer, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner read: %d %s", rec.Code, rec.Body.String())
	}
	order := decode[orderJSON](t, rec)
	if order.Status != "completed" || order.DeliveredContent == nil || order.DeliveredContent.AccountPassword != "hunter2" {
		t.Errorf("owner view = %+v", order)
	}

	app.checkout(t, "other@example.com", &dto.CartItem{ProductID: courseID, Quantity: 1})
	other := app.login(t, "other@example.com", "other@example.com")

	rec = app.do(t, http.MethodGet, "/api/orders/"+bought.OrderID, other, nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("other customer read status = %d, want 404", rec.Code)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("hunter2")) {
		t.Error("other customer response leaks delivered content")
	}

	rec = app.do(t, http.MethodGet, "/api/orders", other, nil, nil)
	list := decode[struct {
		Orders []orderJSON `json:"orders"`
	}](t, rec)
	if len(list.Orders) != 1 || list.Orders[0].ID == bought.OrderID {
		t.Errorf("other customer listing = %+v", list.Orders)
	}
}

func TestAccessControl(t *testing.T) {
	app := newTestApp(t)
	bought := app.checkout(t, "acl@example.com", &dto.CartItem{ProductID: courseID, Quantity: 1})
	customer := app.login(t, "acl@example.com", "acl@example.com")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"orders need sign in", http.MethodGet, "/api/orders", "", nil, http.StatusUnauthorized},
		{"initiate needs sign in", http.MethodPost, "/api/payment/initiate", "",
			&dto.InitiatePaymentRequest{OrderID: bought.OrderID}, http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/products/" + courseID, "not-a-jwt", nil, http.StatusUnauthorized},
		{"customer cannot verify", http.MethodPut, "/api/admin/orders/" + bought.OrderID, customer,
			&dto.VerifyOrderRequest{Status: model.OrderStatusDeclined}, http.StatusForbidden},
		{"customer cannot delete", http.MethodDelete, "/api/admin/orders/" + bought.OrderID, customer, nil, http.StatusForbidden},
		{"anonymous product read", http.MethodGet, "/api/products/" + courseID, "", nil, http.StatusOK},
		{"unknown order", http.MethodGet, "/api/orders/missing", customer, nil, http.StatusNotFound},
		{"empty cart", http.MethodPost, "/api/checkout", "", &dto.CheckoutRequest{Email: "x@example.com"}, http.StatusBadRequest},
		{"health", http.MethodGet, "/api/health", "", nil, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, tt.method, tt.path, tt.token, tt.body, nil)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestProductViewHidesAccessFields(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/products/"+courseID, "", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("accessNote")) {
		t.Errorf("anonymous product view leaks access note: %s", rec.Body.String())
	}

	admin := app.login(t, "admin@shop.example.com", "admin-pass")
	rec = app.do(t, http.MethodGet, "/api/products/"+courseID, admin, nil, nil)
	if !bytes.Contains(rec.Body.Bytes(), []byte("accessNote")) {
		t.Errorf("admin product view misses access note: %s", rec.Body.String())
	}
}

func TestErrorBody(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/auth/login", "", &dto.LoginRequest{Identifier: "nobody@example.com", Password: "x"}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[dto.ErrorResponse](t, rec)
	if body.Code != http.StatusUnauthorized || body.Reason != "UNAUTHORIZED" || body.Message == "" {
		t.Errorf("error body = %+v", body)
	}
}
