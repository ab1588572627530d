package config

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidConfig   = errors.New("invalid config")
	ErrLoadConfig      = errors.New("load config failed")
	ErrMissingStoreURI = fmt.Errorf("%w: mongo_uri is required for the mongo store driver", ErrInvalidConfig)
)
