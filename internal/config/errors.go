package config

import "errors"

var (
	// ErrInvalidConfig wraps every validation failure; the message lists the
	// offending fields.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig wraps failures reading the YAML file or the environment.
	ErrLoadConfig = errors.New("load config failed")
)
