package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anonto42/board-service/backend/internal/errors"
	"github.com/anonto42/board-service/backend/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   ErrorResponse
	}{
		{
			name:       "domain error",
			err:        errors.Forbidden("Not authorized"),
			wantStatus: http.StatusForbidden,
			wantBody:   ErrorResponse{Message: "Not authorized", Code: errors.CodeForbidden},
		},
		{
			name:       "wrapped domain error",
			err:        fmt.Errorf("handler: %w", errors.NotFound("Post not found")),
			wantStatus: http.StatusNotFound,
			wantBody:   ErrorResponse{Message: "Post not found", Code: errors.CodeNotFound},
		},
		{
			name:       "internal error hides its cause",
			err:        errors.Internal("Error saving post", errors.New("connection reset")),
			wantStatus: http.StatusInternalServerError,
			wantBody:   ErrorResponse{Message: "Error saving post", Code: errors.CodeInternal},
		},
		{
			name:       "echo error",
			err:        echo.NewHTTPError(http.StatusTooManyRequests, "slow down"),
			wantStatus: http.StatusTooManyRequests,
			wantBody:   ErrorResponse{Message: "slow down", Code: "RATE_LIMITED"},
		},
		{
			name:       "echo error without message",
			err:        echo.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantBody:   ErrorResponse{Message: "Not Found", Code: errors.CodeNotFound},
		},
		{
			name:       "unknown error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   ErrorResponse{Message: "Something went wrong!", Code: errors.CodeInternal},
		},
	}

	handler := NewHTTPErrorHandler(logger.Discard())
	e := echo.New()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			handler(tt.err, c)

			require.Equal(t, tt.wantStatus, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body)
		})
	}
}
