package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"digital-storefront/internal/apperr"
	"digital-storefront/internal/auth"
	"digital-storefront/internal/model"

	"github.com/labstack/echo/v4"
)

func TestAuthenticate(t *testing.T) {
	tokens := auth.NewTokenIssuer("middleware-secret", time.Hour)
	admin, err := tokens.Issue(&model.Account{ID: "adm-1", Email: "admin@example.com", Role: model.RoleAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantCaller auth.Caller
		wantErr    bool
	}{
		{"no header is anonymous", "", auth.Anonymous, false},
		{"valid bearer", "Bearer " + admin, auth.Caller{AccountID: "adm-1", Role: model.RoleAdmin}, false},
		{"wrong scheme", "Basic " + admin, auth.Anonymous, true},
		{"empty bearer", "Bearer  ", auth.Anonymous, true},
		{"forged token", "Bearer " + admin + "x", auth.Anonymous, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			c := e.NewContext(req, httptest.NewRecorder())

			var got auth.Caller
			err := Authenticate(tokens)(func(c echo.Context) error {
				got = CallerFrom(c)
				return nil
			})(c)

			if tt.wantErr {
				if !apperr.IsUnauthorized(err) {
					t.Fatalf("error = %v, want unauthorized", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.wantCaller {
				t.Errorf("caller = %+v, want %+v", got, tt.wantCaller)
			}
		})
	}
}

func TestRequireRoles(t *testing.T) {
	ok := func(echo.Context) error { return nil }

	tests := []struct {
		name      string
		caller    auth.Caller
		mw        echo.MiddlewareFunc
		wantCheck func(error) bool
	}{
		{"auth rejects anonymous", auth.Anonymous, RequireAuth(), apperr.IsUnauthorized},
		{"admin rejects anonymous", auth.Anonymous, RequireAdmin(), apperr.IsUnauthorized},
		{"admin rejects customer", auth.Caller{AccountID: "c", Role: model.RoleCustomer}, RequireAdmin(), apperr.IsForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
			c.Set(callerKey, tt.caller)
			if err := tt.mw(ok)(c); !tt.wantCheck(err) {
				t.Fatalf("error = %v", err)
			}
		})
	}

	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.Set(callerKey, auth.Caller{AccountID: "a", Role: model.RoleAdmin})
	if err := RequireAdmin()(ok)(c); err != nil {
		t.Errorf("admin passes: %v", err)
	}
}
