package config

import "errors"

var (
	ErrNilPointer    = errors.New("config: nil config pointer")
	ErrParsingConfig = errors.New("config: failed to parse environment")
)
