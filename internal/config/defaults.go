package config

import "time"

const (
	DefaultKeycloakURL      = "https://keycloak.example.org"
	DefaultRealm            = "test"
	DefaultClientID         = "self-service-clients"
	DefaultAppBaseURL       = "http://localhost:3000"
	DefaultCallbackPath     = "/oidc/callback"
	DefaultRequestTimeout   = 30 * time.Second
	DefaultRetryInterval    = 1500 * time.Millisecond
	DefaultRefreshMargin    = 30 * time.Second
	DefaultTokenPollDelay   = 50 * time.Millisecond
	DefaultTokenPollRetries = 200
)

// DefaultScopes are requested on every authorization request.
var DefaultScopes = []string{"openid", "profile"}

// GetDefaultConfig returns the built-in configuration.
func GetDefaultConfig() Config {
	return Config{
		Keycloak: KeycloakConfig{
			URL:      DefaultKeycloakURL,
			Realm:    DefaultRealm,
			ClientID: DefaultClientID,
		},
		App: AppConfig{
			BaseURL:      DefaultAppBaseURL,
			RouterMode:   RouterModeHistory,
			CallbackPath: DefaultCallbackPath,
		},
		Session: SessionConfig{
			Scopes:            append([]string(nil), DefaultScopes...),
			RefreshMargin:     DefaultRefreshMargin,
			TokenPollInterval: DefaultTokenPollDelay,
			TokenPollAttempts: DefaultTokenPollRetries,
		},
		Request: RequestConfig{
			Timeout:       DefaultRequestTimeout,
			RetryInterval: DefaultRetryInterval,
		},
	}
}
