package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryapi/internal/apperr"
	"libraryapi/internal/testutil"
)

func TestJSONSuccessEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	r := testutil.NewRequest(http.MethodGet, "/books", nil)

	JSONSuccess(w, r, []string{"a"}, map[string]interface{}{"total": 1})

	resp := testutil.RecordHTTPResponse(w)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, true, resp.Body["success"])
	meta := resp.Body["meta"].(map[string]interface{})
	assert.Equal(t, float64(1), meta["total"])
}

func TestJSONSuccessIncludesRequestID(t *testing.T) {
	w := httptest.NewRecorder()
	r := testutil.NewRequest(http.MethodGet, "/books", nil)
	r = r.WithContext(ContextWithRequestID(r.Context(), "req-123"))

	JSONSuccess(w, r, nil, nil)

	resp := testutil.RecordHTTPResponse(w)
	meta := resp.Body["meta"].(map[string]interface{})
	assert.Equal(t, "req-123", meta["request_id"])
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", apperr.NotFound("book", "b1"), http.StatusNotFound, "NOT_FOUND"},
		{"unavailable", apperr.Unavailable("no copies of this book are left"), http.StatusConflict, "UNAVAILABLE"},
		{"conflict", apperr.Conflict("already on loan"), http.StatusConflict, "CONFLICT"},
		{"invalid input", apperr.InvalidInput("rating must be between 1 and 5"), http.StatusBadRequest, "INVALID_INPUT"},
		{"unauthenticated", apperr.Unauthenticated("invalid email or password"), http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"forbidden", apperr.Forbidden("admins only"), http.StatusForbidden, "FORBIDDEN"},
		{"wrapped deadline", fmt.Errorf("search books: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "TIMEOUT"},
		{"unknown", errors.New("pq: connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			Error(w, testutil.NewRequest(http.MethodGet, "/books", nil), tt.err)

			resp := testutil.RecordHTTPResponse(w)
			require.Equal(t, tt.wantStatus, resp.Code)
			assert.Equal(t, false, resp.Body["success"])
			errObj := resp.Body["error"].(map[string]interface{})
			assert.Equal(t, tt.wantCode, errObj["code"])
		})
	}
}

func TestErrorHidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, testutil.NewRequest(http.MethodGet, "/books", nil), errors.New("pq: secret dsn in message"))

	resp := testutil.RecordHTTPResponse(w)
	errObj := resp.Body["error"].(map[string]interface{})
	assert.Equal(t, "Internal server error", errObj["message"])
}

func TestErrorTimeoutMessage(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, testutil.NewRequest(http.MethodGet, "/books", nil), context.DeadlineExceeded)

	resp := testutil.RecordHTTPResponse(w)
	errObj := resp.Body["error"].(map[string]interface{})
	assert.Equal(t, "Storage timed out, please retry", errObj["message"])
}
