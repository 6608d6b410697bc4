package collect

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/websies/platform/internal/geo"
	"go.uber.org/zap"
)

func newTestHandler(repo Repository, limiter *RateLimiter) *Handler {
	if limiter == nil {
		limiter = NewRateLimiter(100, time.Minute)
	}
	svc := NewService(repo, limiter, geo.NewStatic(), nil, MaxBatchEvents, zap.NewNop())
	return NewHandler(svc, 64*1024, zap.NewNop())
}

func doCollect(t *testing.T, h *Handler, body []byte, ua, xff string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/analytics/collect", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", ua)
	if xff != "" {
		req.Header.Set("X-Forwarded-For", xff)
	}
	rec := httptest.NewRecorder()
	h.Collect(rec, req)
	return rec
}

func TestCollect_Success(t *testing.T) {
	repo := &fakeRepo{}
	h := newTestHandler(repo, nil)

	rec := doCollect(t, h, validBody(t, 5), browserUA, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	assert.Len(t, repo.events, 5)
}

func TestCollect_ValidationError(t *testing.T) {
	repo := &fakeRepo{}
	h := newTestHandler(repo, nil)

	body, err := json.Marshal(Batch{Events: make([]IncomingEvent, 11), SessionID: "s", SiteID: "w"})
	require.NoError(t, err)

	rec := doCollect(t, h, body, browserUA, "")

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error   string       `json:"error"`
		Details []FieldError `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Invalid request format", resp.Error)
	assert.NotEmpty(t, resp.Details)
	assert.Empty(t, repo.events)
}

func TestCollect_RateLimited(t *testing.T) {
	repo := &fakeRepo{}
	h := newTestHandler(repo, NewRateLimiter(1, time.Minute))

	rec := doCollect(t, h, validBody(t, 1), browserUA, "198.51.100.9")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doCollect(t, h, validBody(t, 1), browserUA, "198.51.100.9")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"Rate limit exceeded"}`, rec.Body.String())

	// лимит считается по первому адресу из X-Forwarded-For
	rec = doCollect(t, h, validBody(t, 1), browserUA, "198.51.100.10, 198.51.100.9")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCollect_BotGetsSuccess(t *testing.T) {
	repo := &fakeRepo{}
	h := newTestHandler(repo, nil)

	rec := doCollect(t, h, validBody(t, 1), "Mozilla/5.0 (compatible; Googlebot/2.1)", "")

	// боту отвечаем успехом, но ничего не пишем
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	assert.Empty(t, repo.events)
}

func TestCollect_StorageError(t *testing.T) {
	repo := &fakeRepo{insertErr: assert.AnError}
	h := newTestHandler(repo, nil)

	rec := doCollect(t, h, validBody(t, 1), browserUA, "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to record events"}`, rec.Body.String())
}

func TestCollect_BodyTooLarge(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, NewRateLimiter(100, time.Minute), geo.NewStatic(), nil, MaxBatchEvents, zap.NewNop())
	h := NewHandler(svc, 64, zap.NewNop())

	rec := doCollect(t, h, bytes.Repeat([]byte("x"), 100), browserUA, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, repo.events)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{"forwarded single", "10.0.0.1:1234", "203.0.113.7", "203.0.113.7"},
		{"forwarded chain takes first", "10.0.0.1:1234", "203.0.113.7, 10.0.0.2", "203.0.113.7"},
		{"remote addr fallback", "192.0.2.4:5678", "", "192.0.2.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
