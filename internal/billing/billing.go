// Package billing is a placeholder in front of the external payment
// provider: every response is mocked until the real integration lands.
package billing

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

type CheckoutSession struct {
	ID         string            `json:"id"`
	URL        string            `json:"url"`
	Mode       string            `json:"mode"`
	Status     string            `json:"status"`
	CustomerID string            `json:"customer"`
	SuccessURL string            `json:"success_url"`
	CancelURL  string            `json:"cancel_url"`
	Metadata   map[string]string `json:"metadata"`
}

type Customer struct {
	ID                 string `json:"id"`
	SubscriptionStatus string `json:"subscription_status"`
}

type Service struct {
	appBaseURL string
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(appBaseURL string, logger *zap.Logger) *Service {
	return &Service{
		appBaseURL: appBaseURL,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *Service) CreateCheckoutSession(priceID, customerID, referralCode string) *CheckoutSession {
	millis := s.now().UnixMilli()
	id := fmt.Sprintf("cs_test_%d", millis)

	if customerID == "" {
		customerID = fmt.Sprintf("cus_placeholder_%d", millis)
	}

	session := &CheckoutSession{
		ID:         id,
		URL:        fmt.Sprintf("https://checkout.stripe.com/pay/%s#placeholder", id),
		Mode:       "subscription",
		Status:     "open",
		CustomerID: customerID,
		SuccessURL: s.appBaseURL + "/dashboard?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.appBaseURL + "/pricing",
		Metadata:   map[string]string{"referralCode": referralCode},
	}

	s.logger.Info("Checkout session created (placeholder)",
		zap.String("session_id", id),
		zap.String("price_id", priceID),
	)

	return session
}

func (s *Service) Customer(customerID string) *Customer {
	if customerID == "" {
		customerID = fmt.Sprintf("cus_placeholder_%d", s.now().UnixMilli())
	}
	return &Customer{
		ID:                 customerID,
		SubscriptionStatus: "none",
	}
}

// AcknowledgeWebhook logs the provider event and always acknowledges.
// Signature verification and subscription updates come with the real
// integration.
func (s *Service) AcknowledgeWebhook(eventType string) {
	if eventType == "" {
		eventType = "checkout.session.completed"
	}
	s.logger.Info("Webhook received", zap.String("event_type", eventType))
}
