package config

import "errors"

// Sentinel errors returned by [Load].
var (
	ErrConfigInvalid      = errors.New("invalid config")
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrInvalidMode        = errors.New("invalid mode")
	ErrInvalidGCRounds    = errors.New("gc_rounds must be at least 1")
)
