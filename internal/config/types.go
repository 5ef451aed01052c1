package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// RouterMode selects how in-app locations are encoded in URLs.
type RouterMode string

const (
	// RouterModeHistory encodes the app path in the URL path.
	RouterModeHistory RouterMode = "history"
	// RouterModeHash encodes the app path in the URL fragment.
	RouterModeHash RouterMode = "hash"
)

// Config is the top-level configuration structure for ssc.
type Config struct {
	Keycloak KeycloakConfig `yaml:"keycloak"`
	App      AppConfig      `yaml:"app"`
	Session  SessionConfig  `yaml:"session"`
	Request  RequestConfig  `yaml:"request"`
}

// KeycloakConfig identifies the identity provider and the public client ssc logs in with.
type KeycloakConfig struct {
	URL      string `yaml:"url" validate:"required,url"`
	Realm    string `yaml:"realm" validate:"required"`
	ClientID string `yaml:"clientId" validate:"required"`
}

// AppConfig describes where the app itself lives, which determines the redirect URI.
type AppConfig struct {
	BaseURL      string     `yaml:"baseUrl" validate:"required,url"`
	RouterMode   RouterMode `yaml:"routerMode" validate:"oneof=history hash"`
	CallbackPath string     `yaml:"callbackPath" validate:"required,startswith=/"`
}

// SessionConfig holds the token lifecycle policy.
type SessionConfig struct {
	Scopes            []string      `yaml:"scopes" validate:"min=1,dive,required"`
	RefreshMargin     time.Duration `yaml:"refreshMargin" validate:"gt=0"`
	TokenPollInterval time.Duration `yaml:"tokenPollInterval" validate:"gt=0"`
	TokenPollAttempts int           `yaml:"tokenPollAttempts" validate:"gt=0"`
}

// RequestConfig holds the resource API request policy.
type RequestConfig struct {
	Timeout       time.Duration `yaml:"timeout" validate:"gt=0"`
	RetryInterval time.Duration `yaml:"retryInterval" validate:"gt=0"`
}

// IdPURL is the OIDC authority of the configured realm.
func (c Config) IdPURL() string {
	return fmt.Sprintf("%s/realms/%s", strings.TrimRight(c.Keycloak.URL, "/"), c.Keycloak.Realm)
}

// AdminURL is the Keycloak admin console of the configured realm.
func (c Config) AdminURL() string {
	return fmt.Sprintf("%s/admin/%s", strings.TrimRight(c.Keycloak.URL, "/"), c.Keycloak.Realm)
}

// ClientsURL is the base URL of the self-service clients REST resource.
func (c Config) ClientsURL() string {
	return c.IdPURL() + "/self-service-clients/clients"
}

// AccountConsoleURL links to the user's account console with a way back to the app.
func (c Config) AccountConsoleURL() string {
	q := url.Values{}
	q.Set("referrer", c.Keycloak.ClientID)
	q.Set("referrer_uri", c.App.BaseURL)
	return c.IdPURL() + "/account/?" + q.Encode()
}

// GenerateRedirectURI builds an absolute URI for an in-app path that works with
// the configured router mode.
func (c Config) GenerateRedirectURI(path string) string {
	path = strings.TrimPrefix(path, "/")
	base := strings.TrimRight(c.App.BaseURL, "/")
	if c.App.RouterMode == RouterModeHash {
		return fmt.Sprintf("%s/#/%s", base, path)
	}
	return fmt.Sprintf("%s/%s", base, path)
}

// RedirectURI is the OIDC redirect URI registered for the callback path.
func (c Config) RedirectURI() string {
	return c.GenerateRedirectURI(c.App.CallbackPath)
}

// IsCallbackLocation reports whether location is the OIDC redirect callback.
// History mode matches the redirect URI as a prefix so the code and state
// query parameters are allowed. Hash mode matches the callback path as a suffix.
func (c Config) IsCallbackLocation(location string) bool {
	if c.App.RouterMode == RouterModeHash {
		return strings.HasSuffix(location, c.App.CallbackPath)
	}
	return strings.HasPrefix(location, c.RedirectURI())
}

// AppPath extracts the in-app path, including any query, from an absolute
// location. Locations outside the app base URL yield "/".
func (c Config) AppPath(location string) string {
	base := strings.TrimRight(c.App.BaseURL, "/")
	rest, ok := strings.CutPrefix(location, base)
	if !ok {
		return "/"
	}
	if c.App.RouterMode == RouterModeHash {
		_, fragment, found := strings.Cut(rest, "#")
		if !found || fragment == "" {
			return "/"
		}
		return "/" + strings.TrimPrefix(fragment, "/")
	}
	if rest == "" || rest[0] != '/' {
		return "/" + rest
	}
	return rest
}
