package usage

import "errors"

var (
	ErrRecordNotFound = errors.New("usage record not found")
	ErrInvalidAmount  = errors.New("usage amount must be positive")
)
