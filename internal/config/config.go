// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/BurntSushi/toml"
)

const envPrefix = "AUTHCORE"

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	if _, err = toml.DecodeFile(path+"main.toml", &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv(envPrefix + "_CONFIG_JSON")

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	mergeSecretsFromEnv(&c)

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	return c, nil
}

// mergeSecretsFromEnv overlays secret material from the environment so keys
// never have to live in the toml file. AUTHCORE_PROVIDER_SERVICEKEY etc.
func mergeSecretsFromEnv(c *Config) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if s := v.GetString("provider.servicekey"); s != "" {
		c.Provider.ServiceKey = s
	}

	if s := v.GetString("provider.jwtsecret"); s != "" {
		c.Provider.JWTSecret = s
	}

	if s := v.GetString("db.password"); s != "" {
		c.DB.Password = s
	}

	if s := v.GetString("cache.password"); s != "" {
		c.Cache.Password = s
	}
}

// DumpConfig config as TOML String.
func DumpConfig(c Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate minimal config settings for authcore and fill in defaults
// for the timing knobs that must never be zero.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	// validate webserver listening port
	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5 // set default of 5 seconds
	}

	if c.Provider.URL == "" {
		return errors.Wrap(ErrEmptyProviderURL, invalidErrMessage)
	}

	if c.Provider.AnonKey == "" {
		return errors.Wrap(ErrEmptyProviderAnonKey, invalidErrMessage)
	}

	// struct-tag validation for the provider block (url shape etc.)
	if err := validator.New().Struct(c.Provider); err != nil {
		return errors.Wrap(err, invalidErrMessage)
	}

	if c.Provider.Timeout == 0 {
		c.Provider.Timeout = 10 * time.Second
	}

	if c.Monitor.Interval == 0 {
		c.Monitor.Interval = 2 * time.Minute
	}

	return nil
}
