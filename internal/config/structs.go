package config

import (
	"time"

	"github.com/alexandrevcalmon/authcore/internal/logger"
)

// Session settings for the application-facing web session.
type Session struct {
	ExpiryTime time.Duration
}

// Provider holds the identity provider connection settings.
type Provider struct {
	// URL is the base URL of the identity provider's auth API.
	URL string `toml:"url" validate:"required,url"`
	// AnonKey is the public API key sent with every request.
	AnonKey string `toml:"anonKey" validate:"required"`
	// ServiceKey is the privileged key used for admin user provisioning.
	// Normally supplied via the AUTHCORE_PROVIDER_SERVICEKEY environment
	// variable rather than the config file.
	ServiceKey string `toml:"serviceKey"`
	// JWTSecret verifies access tokens locally without a provider round-trip.
	JWTSecret string `toml:"jwtSecret"`
	// Timeout bounds every provider round-trip.
	Timeout time.Duration `toml:"timeout"`
	// PasswordRedirectURL is where password recovery emails send the user.
	PasswordRedirectURL string `toml:"passwordRedirectUrl"`
}

// Monitor holds the background session monitor settings.
type Monitor struct {
	// Interval between periodic session checks.
	Interval time.Duration `toml:"interval"`
}

// Cache holds the redis role-cache settings.
type Cache struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Provider  Provider
	Monitor   Monitor
	Cache     Cache
	Webserver Webserver
}

// Webserver implement webserver settings.
type Webserver struct {
	Domain       string  // domain name for the webserver
	Port         int     // listening port for the webserver
	ShutDownTime int     // wait time for shutdown
	URL          string  // base url for the webserver
	Session      Session // session settings
}
