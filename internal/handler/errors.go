package handler

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"digital-storefront/internal/apperr"
	"digital-storefront/internal/dto"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/labstack/echo/v4"
)

// ErrorHandler renders every error as {code, reason, message}. Unknown errors
// become a 500 with a generic message; their detail only goes to the log.
func ErrorHandler(logger log.Logger) echo.HTTPErrorHandler {
	helper := log.NewHelper(log.With(logger, "module", "handler/errors"))

	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var resp dto.ErrorResponse
		var he *echo.HTTPError
		if stderrors.As(err, &he) {
			resp = dto.ErrorResponse{
				Code:    int32(he.Code),
				Reason:  reasonForStatus(he.Code),
				Message: fmt.Sprint(he.Message),
			}
		} else {
			se := errors.FromError(err)
			resp = dto.ErrorResponse{Code: se.Code, Reason: se.Reason, Message: se.Message}
			if se.Reason == "" {
				resp.Reason = reasonForStatus(int(se.Code))
			}
			if se.Code >= http.StatusInternalServerError {
				helper.Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
				if se.Reason == "" || se.Reason == apperr.ReasonPersistence {
					resp.Message = http.StatusText(int(se.Code))
				}
			}
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(int(resp.Code))
		} else {
			err = c.JSON(int(resp.Code), resp)
		}
		if err != nil {
			helper.Errorf("write error response: %v", err)
		}
	}
}

func reasonForStatus(code int) string {
	switch code {
	case http.StatusBadRequest:
		return apperr.ReasonValidation
	case http.StatusUnauthorized:
		return apperr.ReasonUnauthorized
	case http.StatusForbidden:
		return apperr.ReasonForbidden
	case http.StatusNotFound:
		return apperr.ReasonNotFound
	}
	return "INTERNAL"
}

// hideForbidden reports orders the caller may not see as missing, so order
// ids cannot be probed.
func hideForbidden(err error) error {
	if apperr.IsForbidden(err) {
		return apperr.NotFound("order not found")
	}
	return err
}

func badRequest(err error) error {
	return apperr.Validation("invalid request body: %v", err)
}
