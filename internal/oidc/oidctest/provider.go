// Package oidctest provides a disposable OpenID Connect provider that speaks
// the parts of Keycloak's protocol the session code relies on.
package oidctest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const (
	keyID    = "test-signing-key"
	oidcPath = "/protocol/openid-connect"
)

// DefaultSubject is the subject of the single user the provider knows.
const DefaultSubject = "8d3f5c2e-0b7a-4e4c-9a51-3f0f8f1d2c11"

type authCode struct {
	challenge   string
	nonce       string
	redirectURI string
}

// Provider is a local TLS server implementing discovery, the authorization
// endpoint with PKCE, the token endpoint with code and refresh grants, JWKS,
// userinfo and end session.
type Provider struct {
	httpServer *httptest.Server
	realm      string
	key        *ecdsa.PrivateKey
	jwks       jose.JSONWebKeySet

	mu                  sync.Mutex
	clientID            string
	allowedRedirectURIs []string
	claims              map[string]any
	lifetime            time.Duration
	loggedIn            bool
	codes               map[string]authCode
	refreshTokens       map[string]bool
	accessTokens        map[string]bool
	tokenFailure        int
	tokenRequests       int
	logouts             []url.Values
	extensions          map[string]http.Handler

	t *testing.T
}

// Start creates a Provider for clientID in realm "test" and stops it when the
// test ends.
func Start(t *testing.T, clientID string) *Provider {
	return StartRealm(t, "test", clientID)
}

// StartRealm creates a Provider whose issuer is <base>/realms/<realm>, the
// way Keycloak lays out its endpoints.
func StartRealm(t *testing.T, realm, clientID string) *Provider {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	p := &Provider{
		key:      key,
		realm:    realm,
		clientID: clientID,
		claims: map[string]any{
			"preferred_username": "jdoe",
			"name":               "Jane Doe",
			"email":              "jane.doe@example.com",
		},
		lifetime:      5 * time.Minute,
		codes:         map[string]authCode{},
		refreshTokens: map[string]bool{},
		accessTokens:  map[string]bool{},
		extensions:    map[string]http.Handler{},
		t:             t,
	}
	p.jwks = jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
		Key:       &key.PublicKey,
		KeyID:     keyID,
		Algorithm: string(jose.ES256),
		Use:       "sig",
	}}}

	p.httpServer = httptest.NewUnstartedServer(p)
	p.httpServer.Config.ErrorLog = log.New(io.Discard, "", 0)
	p.httpServer.StartTLS()
	t.Cleanup(p.httpServer.Close)
	return p
}

// BaseURL is the server root, the equivalent of the Keycloak URL.
func (p *Provider) BaseURL() string { return p.httpServer.URL }

// Issuer is the realm's issuer URL, usable as the client authority.
func (p *Provider) Issuer() string { return p.httpServer.URL + "/realms/" + p.realm }

// HTTPClient trusts the provider's certificate and does not follow redirects
// across hosts any differently from a default client.
func (p *Provider) HTTPClient() *http.Client { return p.httpServer.Client() }

// Stop closes the server so later requests fail at connection level.
func (p *Provider) Stop() { p.httpServer.Close() }

// SetLoggedIn controls whether the user has a session, which decides the
// answer to prompt=none.
func (p *Provider) SetLoggedIn(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loggedIn = v
}

// SetAllowedRedirectURIs restricts redirect URIs. Empty allows any.
func (p *Provider) SetAllowedRedirectURIs(uris ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.allowedRedirectURIs = uris
}

// SetTokenLifetime sets expires_in and the ID token expiry of issued tokens.
func (p *Provider) SetTokenLifetime(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lifetime = d
}

// SetClaim adds a claim to issued ID tokens and userinfo replies.
func (p *Provider) SetClaim(name string, value any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.claims[name] = value
}

// FailTokenRequests makes the token endpoint answer with status. Zero restores
// normal behaviour.
func (p *Provider) FailTokenRequests(status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokenFailure = status
}

// EndSessions drops the user session and invalidates every refresh token,
// like an administrator terminating sessions in the admin console.
func (p *Provider) EndSessions() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loggedIn = false
	p.refreshTokens = map[string]bool{}
}

// TokenRequests counts requests to the token endpoint.
func (p *Provider) TokenRequests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tokenRequests
}

// Logouts returns the query of every end session request.
func (p *Provider) Logouts() []url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.logouts)
}

func (p *Provider) writeJSON(w http.ResponseWriter, out any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (p *Provider) writeAuthError(w http.ResponseWriter, req *http.Request, code, desc string) {
	qv := req.URL.Query()
	target := qv.Get("redirect_uri") +
		"?state=" + url.QueryEscape(qv.Get("state")) +
		"&error=" + url.QueryEscape(code)
	if desc != "" {
		target += "&error_description=" + url.QueryEscape(desc)
	}
	http.Redirect(w, req, target, http.StatusFound)
}

func (p *Provider) writeTokenError(w http.ResponseWriter, status int, code, desc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "error_description": desc})
}

// Handle serves realm paths starting with prefix from h, the way Keycloak
// extensions add REST resources under a realm.
func (p *Provider) Handle(prefix string, h http.Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.extensions[prefix] = h
}

// Authorized reports whether the request carries an access token the
// provider issued.
func (p *Provider) Authorized(req *http.Request) bool {
	bearer, ok := strings.CutPrefix(req.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.accessTokens[bearer]
}

// ServeHTTP implements the provider's http.Handler.
func (p *Provider) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	path, ok := strings.CutPrefix(req.URL.Path, "/realms/"+p.realm)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if h := p.extension(path); h != nil {
		h.ServeHTTP(w, req)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch path {
	case "/.well-known/openid-configuration":
		p.writeJSON(w, map[string]any{
			"issuer":                                p.Issuer(),
			"authorization_endpoint":                p.Issuer() + oidcPath + "/auth",
			"token_endpoint":                        p.Issuer() + oidcPath + "/token",
			"jwks_uri":                              p.Issuer() + oidcPath + "/certs",
			"userinfo_endpoint":                     p.Issuer() + oidcPath + "/userinfo",
			"end_session_endpoint":                  p.Issuer() + oidcPath + "/logout",
			"id_token_signing_alg_values_supported": []string{string(jose.ES256)},
			"code_challenge_methods_supported":      []string{"S256"},
		})

	case oidcPath + "/auth":
		p.authorize(w, req)

	case oidcPath + "/token":
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		p.tokenRequests++
		if p.tokenFailure != 0 {
			p.writeTokenError(w, p.tokenFailure, "temporarily_unavailable", "")
			return
		}
		p.token(w, req)

	case oidcPath + "/certs":
		p.writeJSON(w, p.jwks)

	case oidcPath + "/userinfo":
		bearer := strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ")
		if !p.accessTokens[bearer] {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		p.writeJSON(w, p.userClaims())

	case oidcPath + "/logout":
		qv := req.URL.Query()
		p.logouts = append(p.logouts, qv)
		p.loggedIn = false
		p.refreshTokens = map[string]bool{}
		if target := qv.Get("post_logout_redirect_uri"); target != "" {
			http.Redirect(w, req, target, http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (p *Provider) extension(path string) http.Handler {
	p.mu.Lock()
	defer p.mu.Unlock()
	for prefix, h := range p.extensions {
		if strings.HasPrefix(path, prefix) {
			return h
		}
	}
	return nil
}

func (p *Provider) authorize(w http.ResponseWriter, req *http.Request) {
	qv := req.URL.Query()
	redirectURI := qv.Get("redirect_uri")
	if redirectURI == "" || (len(p.allowedRedirectURIs) > 0 && !slices.Contains(p.allowedRedirectURIs, redirectURI)) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "Invalid parameter: redirect_uri")
		return
	}

	switch {
	case qv.Get("client_id") != p.clientID:
		p.writeAuthError(w, req, "unauthorized_client", "Client not found.")
		return
	case qv.Get("response_type") != "code":
		p.writeAuthError(w, req, "unsupported_response_type", "")
		return
	case qv.Get("code_challenge_method") != "S256" || qv.Get("code_challenge") == "":
		p.writeAuthError(w, req, "invalid_request", "Missing parameter: code_challenge_method")
		return
	case qv.Get("prompt") == "none" && !p.loggedIn:
		p.writeAuthError(w, req, "login_required", "")
		return
	}

	// Interactive requests log the user in without showing a form.
	p.loggedIn = true
	code := uuid.NewString()
	p.codes[code] = authCode{
		challenge:   qv.Get("code_challenge"),
		nonce:       qv.Get("nonce"),
		redirectURI: redirectURI,
	}
	target := redirectURI +
		"?state=" + url.QueryEscape(qv.Get("state")) +
		"&session_state=" + url.QueryEscape(uuid.NewString()) +
		"&code=" + url.QueryEscape(code)
	http.Redirect(w, req, target, http.StatusFound)
}

func (p *Provider) token(w http.ResponseWriter, req *http.Request) {
	if req.FormValue("client_id") != p.clientID {
		p.writeTokenError(w, http.StatusUnauthorized, "unauthorized_client", "Invalid client credentials")
		return
	}

	var nonce string
	switch req.FormValue("grant_type") {
	case "authorization_code":
		code, ok := p.codes[req.FormValue("code")]
		delete(p.codes, req.FormValue("code"))
		switch {
		case !ok:
			p.writeTokenError(w, http.StatusBadRequest, "invalid_grant", "Code not valid")
			return
		case code.redirectURI != req.FormValue("redirect_uri"):
			p.writeTokenError(w, http.StatusBadRequest, "invalid_grant", "Incorrect redirect_uri")
			return
		case challengeOf(req.FormValue("code_verifier")) != code.challenge:
			p.writeTokenError(w, http.StatusBadRequest, "invalid_grant", "PKCE verification failed")
			return
		}
		nonce = code.nonce

	case "refresh_token":
		rt := req.FormValue("refresh_token")
		if !p.refreshTokens[rt] {
			p.writeTokenError(w, http.StatusBadRequest, "invalid_grant", "Token is not active")
			return
		}
		delete(p.refreshTokens, rt)

	default:
		p.writeTokenError(w, http.StatusBadRequest, "unsupported_grant_type", "")
		return
	}

	now := time.Now()
	std := jwt.Claims{
		Subject:   DefaultSubject,
		Issuer:    p.Issuer(),
		NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Second)),
		IssuedAt:  jwt.NewNumericDate(now),
		Expiry:    jwt.NewNumericDate(now.Add(p.lifetime)),
		Audience:  jwt.Audience{p.clientID},
	}
	extra := p.userClaims()
	if nonce != "" {
		extra["nonce"] = nonce
	}
	idToken := p.sign(std, extra)

	access, refresh := uuid.NewString(), uuid.NewString()
	p.accessTokens[access] = true
	p.refreshTokens[refresh] = true

	p.writeJSON(w, map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"id_token":      idToken,
		"token_type":    "Bearer",
		"expires_in":    int(p.lifetime.Seconds()),
	})
}

func (p *Provider) userClaims() map[string]any {
	out := map[string]any{"sub": DefaultSubject}
	for k, v := range p.claims {
		out[k] = v
	}
	return out
}

func (p *Provider) sign(std jwt.Claims, extra map[string]any) string {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.ES256, Key: p.key},
		(&jose.SignerOptions{}).WithType("JWT").WithHeader("kid", keyID),
	)
	require.NoError(p.t, err)
	raw, err := jwt.Signed(signer).Claims(std).Claims(extra).Serialize()
	require.NoError(p.t, err)
	return raw
}

func challengeOf(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
