package account

import "errors"

var (
	ErrEmailRequired = errors.New("email is required")

	ErrPasswordRequired = errors.New("password is required")

	ErrProviderRejected = errors.New("auth provider rejected signup")
)
