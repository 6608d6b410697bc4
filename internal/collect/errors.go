package collect

import "errors"

var (
	errReadBody     = errors.New("failed to read body")
	errBodyTooLarge = errors.New("payload too large")
)
