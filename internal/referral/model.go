package referral

import (
	"time"

	"github.com/google/uuid"
)

// Commission credited per referral when no explicit amount was recorded.
const DefaultCommission = 47.0

const (
	StatusPending = "pending"
	StatusActive  = "active"
	StatusPaid    = "paid"
)

type Referral struct {
	ID               uuid.UUID `db:"id" json:"id"`
	ReferrerID       string    `db:"referrer_id" json:"referrer_id"`
	ReferredID       string    `db:"referred_id" json:"referred_id"`
	Status           string    `db:"status" json:"status"`
	CommissionAmount *float64  `db:"commission_amount" json:"commission_amount,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

func NewReferral(referrerID, referredID string) *Referral {
	return &Referral{
		ID:         uuid.New(),
		ReferrerID: referrerID,
		ReferredID: referredID,
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
}

// Commission falls back to the default when the row has no explicit amount.
func (r *Referral) Commission() float64 {
	if r.CommissionAmount != nil {
		return *r.CommissionAmount
	}
	return DefaultCommission
}

type Stats struct {
	TotalReferrals    int     `json:"total_referrals"`
	ActiveReferrals   int     `json:"active_referrals"`
	PendingCommission float64 `json:"pending_commission"`
	PaidCommission    float64 `json:"paid_commission"`
}
