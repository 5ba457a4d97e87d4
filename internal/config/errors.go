package config

import "errors"

var (
	// ErrInvalidConfig wraps every validation failure; the message names
	// the failing keys.
	ErrInvalidConfig = errors.New("config rejected")
	// ErrLoadConfig wraps file and environment read failures.
	ErrLoadConfig = errors.New("config unreadable")
)
