package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace_admin/pkg/logging"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/service"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/transport"
)

const retryAfterSeconds = "1"

func statusFor(code string) int {
	switch code {
	case service.CodeValidation, service.CodeInvalidTransition:
		return http.StatusBadRequest
	case service.CodeUnauthorized:
		return http.StatusUnauthorized
	case service.CodeForbidden:
		return http.StatusForbidden
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeConflict:
		return http.StatusConflict
	case service.CodeTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return service.CodeValidation
	case http.StatusUnauthorized:
		return service.CodeUnauthorized
	case http.StatusForbidden:
		return service.CodeForbidden
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return service.CodeNotFound
	case http.StatusConflict:
		return service.CodeConflict
	case http.StatusServiceUnavailable:
		return service.CodeTimeout
	default:
		return service.CodeInternal
	}
}

// serviceError logs err under op and turns it into the HTTP error the client
// sees. Internal errors are logged in full but answered with a generic message.
func serviceError(l *slog.Logger, op string, err error) error {
	code := service.Code(err)
	status := statusFor(code)
	msg := err.Error()
	if status >= http.StatusInternalServerError && code != service.CodeTimeout {
		l.Error(op+"_error", "status", status, "reason", "internal error", "error", err)
		msg = "internal error"
	} else {
		l.Warn(op+"_error", "status", status, "reason", code, "error", err)
	}
	return echo.NewHTTPError(status, transport.ErrorResponse{Error: msg, Code: code}).SetInternal(err)
}

func badRequest(l *slog.Logger, op, reason string, err error) error {
	l.Warn(op+"_error", "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, transport.ErrorResponse{Error: reason, Code: service.CodeValidation})
}

// ErrorHandler renders every error as {"error", "code"}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	body := transport.ErrorResponse{Error: "internal error", Code: service.CodeInternal}
	status := http.StatusInternalServerError

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if service.Retryable(he.Internal) {
			c.Response().Header().Set("Retry-After", retryAfterSeconds)
		}
		switch m := he.Message.(type) {
		case transport.ErrorResponse:
			body = m
		case string:
			body = transport.ErrorResponse{Error: m, Code: codeFor(status)}
		default:
			body = transport.ErrorResponse{Error: http.StatusText(status), Code: codeFor(status)}
		}
	} else {
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "error", err)
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, body)
	}
	if werr != nil {
		logging.FromContext(c.Request().Context()).Error("error_response_failed", "error", werr)
	}
}
