package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"digital-storefront/internal/client"
	"digital-storefront/internal/model"
	"digital-storefront/internal/notify"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

var (
	ErrMockStore   = errors.New("store unavailable")
	ErrMockGateway = errors.New("gateway down")
)

var testLogger = log.NewStdLogger(io.Discard)

// MockAccountRepo implements repository.AccountRepository for testing
type MockAccountRepo struct {
	CreateFunc             func(ctx context.Context, tx *gorm.DB, account *model.Account) error
	FindByIDFunc           func(ctx context.Context, accountID string) (*model.Account, error)
	FindManyFunc           func(ctx context.Context, accountIDs []string) ([]*model.Account, error)
	FindByEmailOrPhoneFunc func(ctx context.Context, email, phone string) (*model.Account, error)
	SetPhoneIfMissingFunc  func(ctx context.Context, tx *gorm.DB, accountID, phone string) (bool, error)
}

func (m *MockAccountRepo) Create(ctx context.Context, tx *gorm.DB, account *model.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, account)
	}
	return nil
}

func (m *MockAccountRepo) FindByID(ctx context.Context, accountID string) (*model.Account, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, accountID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockAccountRepo) FindMany(ctx context.Context, accountIDs []string) ([]*model.Account, error) {
	if m.FindManyFunc != nil {
		return m.FindManyFunc(ctx, accountIDs)
	}
	return nil, nil
}

func (m *MockAccountRepo) FindByEmailOrPhone(ctx context.Context, email, phone string) (*model.Account, error) {
	if m.FindByEmailOrPhoneFunc != nil {
		return m.FindByEmailOrPhoneFunc(ctx, email, phone)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockAccountRepo) SetPhoneIfMissing(ctx context.Context, tx *gorm.DB, accountID, phone string) (bool, error) {
	if m.SetPhoneIfMissingFunc != nil {
		return m.SetPhoneIfMissingFunc(ctx, tx, accountID, phone)
	}
	return false, nil
}

// MockProductReader serves products from a map
type MockProductReader struct {
	Products map[string]*model.Product
	Err      error
}

func (m *MockProductReader) FindByID(_ context.Context, productID string) (*model.Product, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.Products[productID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

// MockGateway records the last initiate request
type MockGateway struct {
	mu       sync.Mutex
	Requests []*client.InitiateRequest

	InitiateFunc func(ctx context.Context, req *client.InitiateRequest) (string, error)
}

func (m *MockGateway) Initiate(ctx context.Context, req *client.InitiateRequest) (string, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()

	if m.InitiateFunc != nil {
		return m.InitiateFunc(ctx, req)
	}
	return "https://pay.example.com/checkout/" + req.TransactionID, nil
}

// MockWebhookParser returns a fixed event or error
type MockWebhookParser struct {
	Event *client.GatewayEvent
	Err   error
}

func (m *MockWebhookParser) ParseWebhook(context.Context, http.Header, []byte) (*client.GatewayEvent, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Event, nil
}

// RecordingNotifier keeps every event it is given
type RecordingNotifier struct {
	mu     sync.Mutex
	Events []*notify.OrderEvent
	To     []*notify.Recipient
}

func (r *RecordingNotifier) OrderChanged(_ context.Context, event *notify.OrderEvent, to *notify.Recipient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, event)
	r.To = append(r.To, to)
	return nil
}

func (r *RecordingNotifier) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		types = append(types, e.Type)
	}
	return types
}
