// Package apperr is the error taxonomy shared by services and the HTTP boundary.
// Every error carries an HTTP-compatible code and a stable reason token.
package apperr

import (
	"fmt"
	"net/http"

	"github.com/go-kratos/kratos/v2/errors"
)

const (
	ReasonValidation        = "VALIDATION"
	ReasonConflict          = "CONFLICT"
	ReasonOrderCreation     = "ORDER_CREATION"
	ReasonInvalidTransition = "INVALID_TRANSITION"
	ReasonGateway           = "GATEWAY"
	ReasonPersistence       = "PERSISTENCE"
	ReasonNotFound          = "NOT_FOUND"
	ReasonUnauthorized      = "UNAUTHORIZED"
	ReasonForbidden         = "FORBIDDEN"
)

func Validation(format string, args ...any) *errors.Error {
	return errors.BadRequest(ReasonValidation, fmt.Sprintf(format, args...))
}

// Conflict marks a uniqueness violation. The identity resolver recovers from it
// locally; it never reaches a caller.
func Conflict(cause error) *errors.Error {
	return errors.Conflict(ReasonConflict, "unique constraint violated").WithCause(cause)
}

func OrderCreation(format string, args ...any) *errors.Error {
	return errors.New(http.StatusUnprocessableEntity, ReasonOrderCreation, fmt.Sprintf(format, args...))
}

func InvalidTransition(format string, args ...any) *errors.Error {
	return errors.Conflict(ReasonInvalidTransition, fmt.Sprintf(format, args...))
}

func Gateway(cause error, format string, args ...any) *errors.Error {
	return errors.New(http.StatusBadGateway, ReasonGateway, fmt.Sprintf(format, args...)).WithCause(cause)
}

// Persistence hides the store failure behind a generic message; the cause stays
// attached for operator logs.
func Persistence(cause error) *errors.Error {
	return errors.InternalServer(ReasonPersistence, "storage failure").WithCause(cause)
}

func NotFound(format string, args ...any) *errors.Error {
	return errors.NotFound(ReasonNotFound, fmt.Sprintf(format, args...))
}

func Unauthorized(format string, args ...any) *errors.Error {
	return errors.Unauthorized(ReasonUnauthorized, fmt.Sprintf(format, args...))
}

func Forbidden(format string, args ...any) *errors.Error {
	return errors.Forbidden(ReasonForbidden, fmt.Sprintf(format, args...))
}

func IsValidation(err error) bool        { return errors.Reason(err) == ReasonValidation }
func IsConflict(err error) bool          { return errors.Reason(err) == ReasonConflict }
func IsOrderCreation(err error) bool     { return errors.Reason(err) == ReasonOrderCreation }
func IsInvalidTransition(err error) bool { return errors.Reason(err) == ReasonInvalidTransition }
func IsGateway(err error) bool           { return errors.Reason(err) == ReasonGateway }
func IsPersistence(err error) bool       { return errors.Reason(err) == ReasonPersistence }
func IsNotFound(err error) bool          { return errors.Reason(err) == ReasonNotFound }
func IsUnauthorized(err error) bool      { return errors.Reason(err) == ReasonUnauthorized }
func IsForbidden(err error) bool         { return errors.Reason(err) == ReasonForbidden }
