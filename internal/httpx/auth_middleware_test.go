package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryapi/internal/auth"
	"libraryapi/internal/testutil"
)

func identityEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-User-Id", UserIDFrom(r.Context()))
		w.Header().Set("X-Role", RoleFrom(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	handler := AuthMiddleware(testutil.Secret)(identityEcho())
	token := testutil.GenerateTestToken(testutil.Secret, "user-1", auth.RoleStudent)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, testutil.NewRequestWithAuth(http.MethodGet, "/loans", nil, token))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", w.Header().Get("X-User-Id"))
	assert.Equal(t, auth.RoleStudent, w.Header().Get("X-Role"))
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	handler := AuthMiddleware(testutil.Secret)(identityEcho())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, testutil.NewRequest(http.MethodGet, "/loans", nil))

	resp := testutil.RecordHTTPResponse(w)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
	errObj := resp.Body["error"].(map[string]interface{})
	assert.Equal(t, "UNAUTHENTICATED", errObj["code"])
}

func TestAuthMiddlewareExpiredToken(t *testing.T) {
	handler := AuthMiddleware(testutil.Secret)(identityEcho())
	token := testutil.GenerateExpiredToken(testutil.Secret, "user-1", auth.RoleStudent)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, testutil.NewRequestWithAuth(http.MethodGet, "/loans", nil, token))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareWrongSecret(t *testing.T) {
	handler := AuthMiddleware(testutil.Secret)(identityEcho())
	token := testutil.GenerateTestToken("other-secret", "user-1", auth.RoleStudent)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, testutil.NewRequestWithAuth(http.MethodGet, "/loans", nil, token))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRoleForbidsStudents(t *testing.T) {
	handler := AuthMiddleware(testutil.Secret)(RequireRole(auth.RoleAdmin)(identityEcho()))
	token := testutil.GenerateTestToken(testutil.Secret, "user-1", auth.RoleStudent)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, testutil.NewRequestWithAuth(http.MethodGet, "/admin/loans", nil, token))

	resp := testutil.RecordHTTPResponse(w)
	require.Equal(t, http.StatusForbidden, resp.Code)
	errObj := resp.Body["error"].(map[string]interface{})
	assert.Equal(t, "FORBIDDEN", errObj["code"])
}

func TestRequireRoleAllowsAdmins(t *testing.T) {
	handler := AuthMiddleware(testutil.Secret)(RequireRole(auth.RoleAdmin)(identityEcho()))
	token := testutil.GenerateTestToken(testutil.Secret, "admin-1", auth.RoleAdmin)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, testutil.NewRequestWithAuth(http.MethodGet, "/admin/loans", nil, token))

	assert.Equal(t, http.StatusOK, w.Code)
}
