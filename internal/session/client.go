package session

import (
	"context"
	"time"

	"ssc/internal/config"
	"ssc/internal/oidc"
)

// OIDCClient is the protocol handle the manager drives. *oidc.Client implements it.
type OIDCClient interface {
	Subscribe(h oidc.Handler) func()
	Login(ctx context.Context, callbackPath string, extras map[string]string) error
	LoginCallback(ctx context.Context, location string) (*oidc.CallbackResult, error)
	PendingCallbackPath() (string, error)
	Logout(ctx context.Context, postLogoutURI string) error
	Tokens() oidc.Tokens
	HasValidTokens() bool
	WaitForValidTokens(ctx context.Context, interval time.Duration, attempts int) (oidc.Tokens, error)
}

// Host is where the session lives: it knows the current location and can
// move within the app or restart it.
type Host interface {
	// Location is the full URL currently shown.
	Location() string
	// Replace moves to an in-app path without adding a history entry.
	Replace(path string)
	// Reload discards all in-memory state and starts over.
	Reload()
}

// NewOIDCClient builds the protocol client for cfg. Tokens are renewed
// cfg.Session.RefreshMargin before they expire.
func NewOIDCClient(cfg config.Config, storage oidc.Storage, nav oidc.Navigator, opts ...oidc.Option) (*oidc.Client, error) {
	return oidc.NewClient(oidc.Config{
		Name:          cfg.Keycloak.ClientID,
		Authority:     cfg.IdPURL(),
		ClientID:      cfg.Keycloak.ClientID,
		RedirectURI:   cfg.RedirectURI(),
		Scopes:        cfg.Session.Scopes,
		RefreshMargin: cfg.Session.RefreshMargin,
		Storage:       storage,
		Navigator:     nav,
	}, opts...)
}
