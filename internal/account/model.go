package account

import (
	"math/rand"
	"time"
)

// Profile is the first-party row kept next to the external auth provider's
// user record.
type Profile struct {
	UserID       string    `db:"user_id" json:"user_id"`
	Email        string    `db:"email" json:"email"`
	FullName     string    `db:"full_name" json:"full_name"`
	ReferralCode string    `db:"referral_code" json:"referral_code"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type SignupRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	FullName     string `json:"fullName"`
	ReferralCode string `json:"referralCode,omitempty"`
}

const referralCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newReferralCode mints an 8-char share code, skipping lookalike characters.
func newReferralCode() string {
	b := make([]byte, 8)
	for i := range b {
		b[i] = referralCodeAlphabet[rand.Intn(len(referralCodeAlphabet))]
	}
	return string(b)
}
