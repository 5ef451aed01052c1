package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ssc/pkg/logging"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	appName        = "ssc"
	configFileName = "config.yaml"
	envFileName    = ".env"
)

// Environment variables that take precedence over the config file.
const (
	EnvKeycloakURL = "KEYCLOAK_URL"
	EnvRealm       = "KEYCLOAK_REALM"
	EnvClientID    = "KEYCLOAK_CLIENT_ID"
	EnvAppBaseURL  = "APP_BASE_URL"
	EnvRouterMode  = "ROUTER_MODE"
)

// lookupEnv is swapped in tests.
var lookupEnv = os.LookupEnv

// DefaultConfigPath returns the XDG config directory for ssc.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// LoadConfig loads configuration from the given directory.
//
// Values are resolved in this order, later ones winning: built-in defaults,
// config.yaml, then the deploy-time environment. A .env file in the directory
// is merged into the environment first but never overrides variables that are
// already set.
func LoadConfig(configPath string) (Config, error) {
	cfg := GetDefaultConfig()

	configFilePath := filepath.Join(configPath, configFileName)
	data, err := os.ReadFile(configFilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Debug("Config", "No config.yaml found at %s, using defaults", configFilePath)
	case err != nil:
		return Config{}, &ConfigurationError{FilePath: configFilePath, ErrorType: "io", Message: err.Error(), Err: err}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, &ConfigurationError{
				FilePath:    configFilePath,
				ErrorType:   "parse",
				Message:     err.Error(),
				Suggestions: []string{"durations are written like 30s or 1500ms"},
				Err:         err,
			}
		}
		logging.Info("Config", "Loaded configuration from %s", configFilePath)
	}

	envFilePath := filepath.Join(configPath, envFileName)
	if err := godotenv.Load(envFilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, &ConfigurationError{FilePath: envFilePath, ErrorType: "parse", Message: err.Error(), Err: err}
	}

	applyEnvironment(&cfg)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvironment(cfg *Config) {
	overrides := []struct {
		key    string
		target *string
	}{
		{EnvKeycloakURL, &cfg.Keycloak.URL},
		{EnvRealm, &cfg.Keycloak.Realm},
		{EnvClientID, &cfg.Keycloak.ClientID},
		{EnvAppBaseURL, &cfg.App.BaseURL},
	}
	for _, o := range overrides {
		if v, ok := lookupEnv(o.key); ok && v != "" {
			logging.Debug("Config", "Using %s from environment", o.key)
			*o.target = v
		}
	}
	if v, ok := lookupEnv(EnvRouterMode); ok && v != "" {
		cfg.App.RouterMode = RouterMode(strings.ToLower(v))
	}
}

// WriteDefaultConfig writes the built-in defaults to configPath unless a
// config file already exists there.
func WriteDefaultConfig(configPath string) (string, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	if _, err := os.Stat(configFilePath); err == nil {
		return configFilePath, fmt.Errorf("%s already exists", configFilePath)
	}
	if err := os.MkdirAll(configPath, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(defaultFileView())
	if err != nil {
		return "", fmt.Errorf("failed to encode defaults: %w", err)
	}
	if err := os.WriteFile(configFilePath, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", configFilePath, err)
	}
	return configFilePath, nil
}

// defaultFileView renders durations as strings so the written file reads back.
func defaultFileView() map[string]any {
	d := GetDefaultConfig()
	return map[string]any{
		"keycloak": d.Keycloak,
		"app":      d.App,
		"session": map[string]any{
			"scopes":            d.Session.Scopes,
			"refreshMargin":     d.Session.RefreshMargin.String(),
			"tokenPollInterval": d.Session.TokenPollInterval.String(),
			"tokenPollAttempts": d.Session.TokenPollAttempts,
		},
		"request": map[string]any{
			"timeout":       d.Request.Timeout.String(),
			"retryInterval": d.Request.RetryInterval.String(),
		},
	}
}
