package middleware

import (
	"strings"

	"digital-storefront/internal/apperr"
	"digital-storefront/internal/auth"

	"github.com/labstack/echo/v4"
)

const callerKey = "caller"

// Authenticate reads an optional bearer token. Requests without one continue
// as anonymous; a token that does not verify is rejected.
func Authenticate(tokens *auth.TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				c.Set(callerKey, auth.Anonymous)
				return next(c)
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				return apperr.Unauthorized("malformed authorization header")
			}

			caller, err := tokens.Parse(strings.TrimSpace(token))
			if err != nil {
				return apperr.Unauthorized("invalid or expired token")
			}

			c.Set(callerKey, caller)
			return next(c)
		}
	}
}

func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CallerFrom(c).IsAnonymous() {
				return apperr.Unauthorized("authentication required")
			}
			return next(c)
		}
	}
}

func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller := CallerFrom(c)
			if caller.IsAnonymous() {
				return apperr.Unauthorized("authentication required")
			}
			if !caller.IsAdmin() {
				return apperr.Forbidden("admin role required")
			}
			return next(c)
		}
	}
}

// CallerFrom returns the caller set by Authenticate, anonymous if none.
func CallerFrom(c echo.Context) auth.Caller {
	caller, ok := c.Get(callerKey).(auth.Caller)
	if !ok {
		return auth.Anonymous
	}
	return caller
}
