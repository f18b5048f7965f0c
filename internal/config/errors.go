package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrEmptyProviderURL error if config provider.url is empty.
	ErrEmptyProviderURL = errors.New("toml config provider.url can not be empty")

	// ErrEmptyProviderAnonKey error if config provider.anonKey is empty.
	ErrEmptyProviderAnonKey = errors.New("toml config provider.anonKey can not be empty")
)
