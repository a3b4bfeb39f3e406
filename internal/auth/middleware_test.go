package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divination-engine/arcana/internal/identity"
)

func capturePrincipal(captured **identity.Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := identity.FromContext(r.Context())
		*captured = &p
		w.WriteHeader(http.StatusOK)
	})
}

func TestOptionalMiddleware(t *testing.T) {
	svc := setupAuthService(t)
	pair, err := svc.GenerateTokens(context.Background(), "user-1", "a@b.com", []string{"ROLE_BASIC"})
	require.NoError(t, err)

	t.Run("no token passes through anonymously", func(t *testing.T) {
		var captured *identity.Principal
		rec := httptest.NewRecorder()
		OptionalMiddleware(svc)(capturePrincipal(&captured)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/readings", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, captured)
		assert.Nil(t, *captured)
	})

	t.Run("valid token attaches the principal", func(t *testing.T) {
		var captured *identity.Principal
		req := httptest.NewRequest(http.MethodPost, "/readings", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		rec := httptest.NewRecorder()
		OptionalMiddleware(svc)(capturePrincipal(&captured)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, captured)
		require.NotNil(t, *captured)
		assert.Equal(t, "user-1", (*captured).Subject())
	})

	t.Run("malformed token is still rejected", func(t *testing.T) {
		var captured *identity.Principal
		req := httptest.NewRequest(http.MethodPost, "/readings", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		OptionalMiddleware(svc)(capturePrincipal(&captured)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, captured)
	})
}
