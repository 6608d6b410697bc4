package collect

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type Handler struct {
	service *Service
	maxBody int64
	logger  *zap.Logger
}

func NewHandler(service *Service, maxBody int64, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		maxBody: maxBody,
		logger:  logger,
	}
}

// Collect handles POST /api/analytics/collect. The endpoint is public and
// anonymous; all defenses live in the service pipeline.
func (h *Handler) Collect(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r, h.maxBody)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Invalid request format",
			"details": []FieldError{{Field: "body", Message: err.Error()}},
		})
		return
	}

	result := h.service.SubmitBatch(r.Context(), body, clientIP(r), r.UserAgent())

	switch result.Outcome {
	case OutcomeAccepted, OutcomeSilentlyDropped:
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	case OutcomeRateLimited:
		writeJSON(w, http.StatusTooManyRequests, map[string]any{"error": "Rate limit exceeded"})
	case OutcomeInvalid:
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Invalid request format",
			"details": result.Details,
		})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Failed to record events"})
	}
}

func readBody(r *http.Request, limit int64) ([]byte, error) {
	defer r.Body.Close()
	lr := io.LimitReader(r.Body, limit+1)

	b, err := io.ReadAll(lr)
	if err != nil {
		return nil, errReadBody
	}
	if int64(len(b)) > limit {
		return nil, errBodyTooLarge
	}
	return b, nil
}

// clientIP prefers the first X-Forwarded-For hop, like the edge proxy sets it.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.SplitN(xff, ",", 2)[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return "unknown"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
