package billing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService() *Service {
	svc := NewService("https://websies.app", zap.NewNop())
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc
}

func TestCreateCheckoutSession(t *testing.T) {
	svc := newTestService()

	session := svc.CreateCheckoutSession("price_pro_monthly", "", "FRIEND42")

	assert.Equal(t, "cs_test_1700000000000", session.ID)
	assert.Equal(t, "https://checkout.stripe.com/pay/cs_test_1700000000000#placeholder", session.URL)
	assert.Equal(t, "subscription", session.Mode)
	assert.Equal(t, "cus_placeholder_1700000000000", session.CustomerID)
	assert.Equal(t, "https://websies.app/dashboard?session_id={CHECKOUT_SESSION_ID}", session.SuccessURL)
	assert.Equal(t, "https://websies.app/pricing", session.CancelURL)
	assert.Equal(t, "FRIEND42", session.Metadata["referralCode"])
}

func TestCreateCheckoutSession_KeepsKnownCustomer(t *testing.T) {
	svc := newTestService()

	session := svc.CreateCheckoutSession("price_pro_monthly", "cus_real_1", "")

	assert.Equal(t, "cus_real_1", session.CustomerID)
}

func TestCustomer(t *testing.T) {
	svc := newTestService()

	assert.Equal(t, &Customer{ID: "cus_real_1", SubscriptionStatus: "none"}, svc.Customer("cus_real_1"))
	assert.Equal(t, "cus_placeholder_1700000000000", svc.Customer("").ID)
}

func TestHandler_Checkout(t *testing.T) {
	h := NewHandler(newTestService(), zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/billing/checkout",
		strings.NewReader(`{"priceId":"price_pro_monthly","referralCode":"FRIEND42"}`))
	rec := httptest.NewRecorder()
	h.Checkout(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		SessionID string `json:"sessionId"`
		URL       string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cs_test_1700000000000", resp.SessionID)
	assert.Contains(t, resp.URL, resp.SessionID)
}

func TestHandler_Checkout_BadJSON(t *testing.T) {
	h := NewHandler(newTestService(), zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/billing/checkout", strings.NewReader(`{`))
	rec := httptest.NewRecorder()
	h.Checkout(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Webhook_AlwaysAcknowledges(t *testing.T) {
	h := NewHandler(newTestService(), zap.NewNop())

	for _, body := range []string{`{"type":"invoice.paid"}`, `not json at all`, ``} {
		req := httptest.NewRequest(http.MethodPost, "/api/billing/webhooks", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.Webhook(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"received":true}`, rec.Body.String())
	}
}
