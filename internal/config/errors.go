package config

import (
	"errors"
)

// Sentinel errors wrapped by Load so callers can errors.Is on the failure class.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
