package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"digital-storefront/internal/apperr"
	"digital-storefront/internal/auth"
	"digital-storefront/internal/model"
	"digital-storefront/internal/repository"
	"digital-storefront/internal/testutil"

	"gorm.io/gorm"
)

func TestResolveExistingAccount(t *testing.T) {
	var phoneSet string
	repo := &MockAccountRepo{
		FindByEmailOrPhoneFunc: func(_ context.Context, email, phone string) (*model.Account, error) {
			if email != "buyer@example.com" {
				t.Errorf("email not normalized: %q", email)
			}
			return &model.Account{ID: "acc-1", Email: email}, nil
		},
		SetPhoneIfMissingFunc: func(_ context.Context, _ *gorm.DB, accountID, phone string) (bool, error) {
			phoneSet = phone
			return true, nil
		},
		CreateFunc: func(context.Context, *gorm.DB, *model.Account) error {
			t.Error("existing account must not be recreated")
			return nil
		},
	}

	id, err := NewIdentityResolver(repo, testLogger).Resolve(context.Background(), "Buyer", "  Buyer@Example.com ", "01711111111")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id != "acc-1" {
		t.Errorf("id = %q, want acc-1", id)
	}
	if phoneSet != "01711111111" {
		t.Errorf("phone attached = %q, want 01711111111", phoneSet)
	}
}

func TestResolvePhoneConflictIsSwallowed(t *testing.T) {
	repo := &MockAccountRepo{
		FindByEmailOrPhoneFunc: func(context.Context, string, string) (*model.Account, error) {
			return &model.Account{ID: "acc-1"}, nil
		},
		SetPhoneIfMissingFunc: func(context.Context, *gorm.DB, string, string) (bool, error) {
			return false, gorm.ErrDuplicatedKey
		},
	}

	id, err := NewIdentityResolver(repo, testLogger).Resolve(context.Background(), "", "a@example.com", "01711111111")
	if err != nil || id != "acc-1" {
		t.Fatalf("Resolve = %q, %v; want acc-1", id, err)
	}
}

func TestResolveCreatesCustomer(t *testing.T) {
	var created *model.Account
	repo := &MockAccountRepo{
		CreateFunc: func(_ context.Context, _ *gorm.DB, account *model.Account) error {
			created = account
			return nil
		},
	}

	id, err := NewIdentityResolver(repo, testLogger).Resolve(context.Background(), "", "new@example.com", "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if created == nil || created.ID != id {
		t.Fatalf("created = %+v, id = %q", created, id)
	}
	if created.Role != model.RoleCustomer {
		t.Errorf("role = %s, want customer", created.Role)
	}
	if created.Phone != nil {
		t.Errorf("phone = %v, want nil", *created.Phone)
	}
	if created.Name != "new" {
		t.Errorf("name = %q, want derived from email", created.Name)
	}
	if !auth.VerifyPassword("new@example.com", created.PasswordHash) {
		t.Error("default password should equal the email")
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		repo    *MockAccountRepo
		wantID  string
		wantErr func(error) bool
	}{
		{
			name:    "blank email",
			email:   "   ",
			repo:    &MockAccountRepo{},
			wantErr: apperr.IsValidation,
		},
		{
			name:    "malformed email",
			email:   "not-an-email",
			repo:    &MockAccountRepo{},
			wantErr: apperr.IsValidation,
		},
		{
			name:    "display name form",
			email:   "bob <bob@example.com>",
			repo:    &MockAccountRepo{},
			wantErr: apperr.IsValidation,
		},
		{
			name:    "angle brackets only",
			email:   "<bob@example.com>",
			repo:    &MockAccountRepo{},
			wantErr: apperr.IsValidation,
		},
		{
			name:  "lookup failure",
			email: "a@example.com",
			repo: &MockAccountRepo{
				FindByEmailOrPhoneFunc: func(context.Context, string, string) (*model.Account, error) {
					return nil, ErrMockStore
				},
			},
			wantErr: apperr.IsPersistence,
		},
		{
			name:  "create failure",
			email: "a@example.com",
			repo: &MockAccountRepo{
				CreateFunc: func(context.Context, *gorm.DB, *model.Account) error { return ErrMockStore },
			},
			wantErr: apperr.IsPersistence,
		},
		{
			name:  "conflict resolved by re-read",
			email: "a@example.com",
			repo: func() *MockAccountRepo {
				calls := 0
				return &MockAccountRepo{
					FindByEmailOrPhoneFunc: func(context.Context, string, string) (*model.Account, error) {
						calls++
						if calls == 1 {
							return nil, gorm.ErrRecordNotFound
						}
						return &model.Account{ID: "winner"}, nil
					},
					CreateFunc: func(context.Context, *gorm.DB, *model.Account) error { return gorm.ErrDuplicatedKey },
				}
			}(),
			wantID: "winner",
		},
		{
			name:  "conflict with nothing to re-read",
			email: "a@example.com",
			repo: &MockAccountRepo{
				CreateFunc: func(context.Context, *gorm.DB, *model.Account) error { return gorm.ErrDuplicatedKey },
			},
			wantErr: apperr.IsPersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewIdentityResolver(tt.repo, testLogger).Resolve(context.Background(), "Name", tt.email, "")
			if tt.wantErr != nil {
				if !tt.wantErr(err) {
					t.Fatalf("error = %v, want classified error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != tt.wantID {
				t.Errorf("id = %q, want %q", id, tt.wantID)
			}
		})
	}
}

func TestResolveConcurrentSubmissionsShareOneAccount(t *testing.T) {
	tests := []struct {
		name  string
		phone func(i int) string
	}{
		{"same phone", func(int) string { return "01799999999" }},
		{"different phones", func(i int) string { return fmt.Sprintf("0179000000%d", i) }},
		{"no phone", func(int) string { return "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.NewDB(t)
			resolver := NewIdentityResolver(repository.NewAccountRepository(db), testLogger)

			const n = 8
			ids := make([]string, n)
			errs := make([]error, n)

			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					ids[i], errs[i] = resolver.Resolve(context.Background(), "Racer", "race@example.com", tt.phone(i))
				}(i)
			}
			wg.Wait()

			for i := 0; i < n; i++ {
				if errs[i] != nil {
					t.Fatalf("submission %d: %v", i, errs[i])
				}
				if ids[i] != ids[0] {
					t.Fatalf("submission %d resolved to %s, want %s", i, ids[i], ids[0])
				}
			}

			var count int64
			if err := db.Model(&model.Account{}).Count(&count).Error; err != nil {
				t.Fatalf("count: %v", err)
			}
			if count != 1 {
				t.Errorf("accounts = %d, want 1", count)
			}
		})
	}
}
