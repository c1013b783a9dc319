package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/anonto42/board-service/backend/internal/errors"
	"github.com/labstack/echo/v4"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string      `json:"message"`
	Code    errors.Code `json:"code"`
}

// NewHTTPErrorHandler renders domain errors and echo errors as ErrorResponse.
// Anything else is logged and reported as a generic 500.
func NewHTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := http.StatusInternalServerError, ErrorResponse{
			Message: "Something went wrong!",
			Code:    errors.CodeInternal,
		}

		var domainErr *errors.Error
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &domainErr):
			status = domainErr.Code.HTTPStatus()
			body = ErrorResponse{Message: domainErr.Message, Code: domainErr.Code}
			if domainErr.Code == errors.CodeInternal {
				logger.Error("request failed", "error", err, "method", c.Request().Method, "path", c.Path())
			}
		case errors.As(err, &httpErr):
			status = httpErr.Code
			body = ErrorResponse{Message: httpMessage(httpErr), Code: codeForStatus(status)}
		default:
			logger.Error("unhandled error", "error", err, "method", c.Request().Method, "path", c.Path())
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error("failed to write error response", "error", err)
		}
	}
}

func httpMessage(he *echo.HTTPError) string {
	if msg, ok := he.Message.(string); ok {
		return msg
	}
	if he.Message == nil {
		return http.StatusText(he.Code)
	}
	return fmt.Sprint(he.Message)
}

func codeForStatus(status int) errors.Code {
	switch status {
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return errors.CodeNotFound
	case http.StatusForbidden:
		return errors.CodeForbidden
	case http.StatusUnauthorized:
		return errors.CodeUnauthorized
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return errors.CodeValidation
	case http.StatusConflict:
		return errors.CodeConflict
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		return errors.CodeInternal
	}
}

// bind decodes the request body into req and runs the registered validator on it.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errors.Validation("Invalid request payload")
	}
	return c.Validate(req)
}
