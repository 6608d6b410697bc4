package billing

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

type checkoutRequest struct {
	PriceID      string `json:"priceId"`
	CustomerID   string `json:"customerId"`
	ReferralCode string `json:"referralCode"`
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}

	session := h.service.CreateCheckoutSession(req.PriceID, req.CustomerID, req.ReferralCode)

	writeJSON(w, http.StatusOK, map[string]any{
		"sessionId": session.ID,
		"url":       session.URL,
	})
}

func (h *Handler) Customer(w http.ResponseWriter, r *http.Request) {
	customer := h.service.Customer(r.URL.Query().Get("customerId"))
	writeJSON(w, http.StatusOK, customer)
}

type webhookRequest struct {
	Type string `json:"type"`
}

func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	_ = json.NewDecoder(r.Body).Decode(&req) // body shape is provider-defined; ignore errors

	h.service.AcknowledgeWebhook(req.Type)

	writeJSON(w, http.StatusOK, map[string]any{"received": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
