package oidc

import "time"

// Claims are identity claims taken from the ID token.
type Claims map[string]any

func (c Claims) str(key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

// Subject returns the "sub" claim.
func (c Claims) Subject() string { return c.str("sub") }

// PreferredUsername returns the "preferred_username" claim.
func (c Claims) PreferredUsername() string { return c.str("preferred_username") }

// Name returns the "name" claim.
func (c Claims) Name() string { return c.str("name") }

// Email returns the "email" claim.
func (c Claims) Email() string { return c.str("email") }

// DisplayName picks the most readable identifier available.
func (c Claims) DisplayName() string {
	for _, v := range []string{c.Name(), c.PreferredUsername(), c.Email(), c.Subject()} {
		if v != "" {
			return v
		}
	}
	return ""
}

// Tokens is the client's token cache. Token values are secrets and must never be logged.
type Tokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	Claims       Claims    `json:"claims,omitempty"`
}

// Valid reports whether the access token is present and not yet expired at now.
func (t Tokens) Valid(now time.Time) bool {
	return t.AccessToken != "" && now.Before(t.ExpiresAt)
}

// Empty reports whether no tokens are held.
func (t Tokens) Empty() bool {
	return t.AccessToken == "" && t.RefreshToken == ""
}

// loginRecord is persisted between starting a login and handling its callback.
type loginRecord struct {
	State        string    `json:"state"`
	Nonce        string    `json:"nonce"`
	CodeVerifier string    `json:"code_verifier"`
	CallbackPath string    `json:"callbackPath"`
	CreatedAt    time.Time `json:"created_at"`
}
