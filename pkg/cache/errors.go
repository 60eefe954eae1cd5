package cache

import "errors"

var (
	// ErrTierUnavailable indicates the shared cache tier could not be reached.
	ErrTierUnavailable = errors.New("cache tier unavailable")
)
