package quota

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divination-engine/arcana/internal/identity"
)

func usageRequest(principal identity.Principal) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/users/me/quota", nil)
	if principal != nil {
		req = req.WithContext(identity.WithPrincipal(req.Context(), principal))
	}
	return req
}

func decodeUsage(t *testing.T, rec *httptest.ResponseRecorder) UsageResponse {
	t.Helper()
	var envelope struct {
		Data UsageResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestHandler_Usage(t *testing.T) {
	_, rdb := setupMiniredis(t)
	limiter := NewLimiter(NewRedisCounterStore(rdb))
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	h := NewHandler(limiter)

	principal := identity.NewBasicPrincipal("user-1", []string{"ROLE_BASIC"})

	// Two interpretations already consumed today.
	for i := 0; i < 2; i++ {
		limiter.Check(context.Background(), "user-1", "BASIC")
	}

	rec := httptest.NewRecorder()
	h.Usage(rec, usageRequest(principal))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeUsage(t, rec)
	assert.Equal(t, "BASIC", resp.Tier)
	assert.Equal(t, 20, resp.DailyLimit)
	assert.Equal(t, int64(2), resp.Used)
	assert.Equal(t, 18, resp.Remaining)
	assert.Equal(t, 14*3600, resp.ResetInSeconds)
}

func TestHandler_Usage_Unauthenticated(t *testing.T) {
	_, rdb := setupMiniredis(t)
	h := NewHandler(NewLimiter(NewRedisCounterStore(rdb)))

	rec := httptest.NewRecorder()
	h.Usage(rec, usageRequest(nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_Usage_ResetWindowIgnoresServerZone(t *testing.T) {
	_, rdb := setupMiniredis(t)
	limiter := NewLimiter(NewRedisCounterStore(rdb))
	// 08:00 in UTC+10 is 22:00 UTC the previous day; the window resets at
	// the next UTC midnight, two hours away, regardless of the server zone.
	limiter.now = func() time.Time {
		return time.Date(2026, 3, 16, 8, 0, 0, 0, time.FixedZone("UTC+10", 10*3600))
	}
	h := NewHandler(limiter)

	principal := identity.NewBasicPrincipal("user-2", []string{"ROLE_FREE"})
	rec := httptest.NewRecorder()
	h.Usage(rec, usageRequest(principal))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeUsage(t, rec)
	assert.Equal(t, 2*3600, resp.ResetInSeconds)
}
