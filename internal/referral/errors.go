package referral

import "errors"

var (
	ErrCodeNotFound = errors.New("referral code not found")

	ErrSelfReferral = errors.New("cannot refer yourself")
)
