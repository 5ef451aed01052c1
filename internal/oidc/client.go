package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"ssc/internal/transport"
	"ssc/pkg/logging"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultRefreshMargin is how long before access token expiry the client renews.
	DefaultRefreshMargin = 30 * time.Second

	// DefaultTickInterval is how often a timer tick event reports the remaining lifetime.
	DefaultTickInterval = time.Minute

	// DefaultRenewRetryDelay is the wait before retrying a failed automatic renewal.
	DefaultRenewRetryDelay = 10 * time.Second

	// minRenewDelay keeps tokens that live shorter than the margin from
	// being renewed in a tight loop.
	minRenewDelay = time.Second

	renewTimeout = 30 * time.Second
)

// Navigator moves the user agent to a URL, the way a browser follows a redirect.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// Config binds a Client to one identity provider and one public client.
type Config struct {
	// Name scopes the storage keys, so several configurations can share a Storage.
	Name          string
	Authority     string
	ClientID      string
	RedirectURI   string
	Scopes        []string
	RefreshMargin time.Duration
	Storage       Storage
	Navigator     Navigator
}

// CallbackResult is the outcome of a successful login callback.
type CallbackResult struct {
	Claims Claims
	// CallbackPath is the in-app path the login was started from, if any.
	CallbackPath string
}

// Client is the OIDC protocol handle: it runs the authorization code flow with
// PKCE, keeps the token cache, renews tokens before they expire and publishes
// lifecycle events.
type Client struct {
	cfg             Config
	httpClient      *http.Client
	now             func() time.Time
	tickInterval    time.Duration
	renewRetryDelay time.Duration

	events  dispatcher
	refresh singleflight.Group

	providerMu sync.Mutex
	provider   *gooidc.Provider

	mu         sync.RWMutex
	tokens     Tokens
	renewTimer *time.Timer
	tickStop   chan struct{}
	closed     bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the client used for discovery, token and userinfo calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock replaces time.Now for access token validity checks. ID tokens are
// always verified against the wall clock.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithTickInterval sets the timer tick period. Zero disables ticks.
func WithTickInterval(d time.Duration) Option {
	return func(c *Client) { c.tickInterval = d }
}

// WithRenewRetryDelay sets the wait before retrying a failed automatic renewal.
func WithRenewRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.renewRetryDelay = d }
}

// NewClient creates a Client and restores any tokens already in storage.
// Restored tokens are not announced until Login resumes the session.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Authority == "" || cfg.ClientID == "" || cfg.RedirectURI == "" {
		return nil, errors.New("oidc: authority, client id and redirect URI are required")
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{gooidc.ScopeOpenID, "profile"}
	}
	if !slices.Contains(cfg.Scopes, gooidc.ScopeOpenID) {
		cfg.Scopes = append([]string{gooidc.ScopeOpenID}, cfg.Scopes...)
	}
	if cfg.RefreshMargin <= 0 {
		cfg.RefreshMargin = DefaultRefreshMargin
	}
	if cfg.Storage == nil {
		cfg.Storage = NewMemoryStorage()
	}

	c := &Client{
		cfg:             cfg,
		httpClient:      cleanhttp.DefaultPooledClient(),
		now:             time.Now,
		tickInterval:    DefaultTickInterval,
		renewRetryDelay: DefaultRenewRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.restore(); err != nil {
		logging.Warn("OIDC", "Ignoring unreadable stored tokens: %v", err)
	}
	return c, nil
}

func (c *Client) loginKey() string  { return "oidc.login." + c.cfg.Name }
func (c *Client) tokensKey() string { return "oidc.tokens." + c.cfg.Name }

// Config returns the configuration the client was built with.
func (c *Client) Config() Config { return c.cfg }

// Subscribe registers h for all future events and returns its unsubscribe function.
func (c *Client) Subscribe(h Handler) func() {
	return c.events.subscribe(h)
}

func (c *Client) publish(e Event) {
	logging.Debug("OIDC", "event %s", e.Kind)
	c.events.publish(e)
}

// Tokens returns the current token cache. The access token may be expired;
// use HasValidTokens or WaitForValidTokens when validity matters.
func (c *Client) Tokens() Tokens {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens
}

// HasValidTokens reports whether the access token is present and unexpired.
func (c *Client) HasValidTokens() bool {
	return c.Tokens().Valid(c.now())
}

// Login starts an authorization request for callbackPath.
//
// extras are added to the authorization URL. With prompt=none the login is
// silent: the client first resumes stored tokens, then asks the identity
// provider without user interaction and follows its redirect back to the
// redirect URI. A silent login the provider answers with a login page returns
// an error matching ErrLoginRequired.
func (c *Client) Login(ctx context.Context, callbackPath string, extras map[string]string) error {
	if c.cfg.Navigator == nil {
		return errors.New("oidc: login needs a navigator")
	}
	silent := extras["prompt"] == "none"
	if silent {
		resumed, err := c.resume(ctx)
		if err != nil || resumed {
			return err
		}
	}

	p, err := c.providerFor(ctx)
	if err != nil {
		return err
	}

	rec := loginRecord{
		State:        uuid.NewString(),
		Nonce:        uuid.NewString(),
		CodeVerifier: oauth2.GenerateVerifier(),
		CallbackPath: callbackPath,
		CreatedAt:    c.now(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode login state: %w", err)
	}
	if err := c.cfg.Storage.Set(c.loginKey(), data); err != nil {
		return err
	}

	opts := []oauth2.AuthCodeOption{
		oauth2.S256ChallengeOption(rec.CodeVerifier),
		oauth2.SetAuthURLParam("nonce", rec.Nonce),
	}
	for k, v := range extras {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}
	authURL := c.oauthConfig(p).AuthCodeURL(rec.State, opts...)

	if silent {
		return c.followSilently(ctx, authURL)
	}
	logging.Info("OIDC", "Redirecting to identity provider for login")
	return c.cfg.Navigator.Navigate(ctx, authURL)
}

// resume announces stored tokens, renewing them first when they expired.
func (c *Client) resume(ctx context.Context) (bool, error) {
	t := c.Tokens()
	if t.Valid(c.now()) {
		c.scheduleRenew()
		c.publish(Event{Kind: EventTokenAcquired, Claims: t.Claims})
		return true, nil
	}
	if t.RefreshToken == "" {
		return false, nil
	}

	renewed, err := c.refreshOnce(ctx)
	switch {
	case err == nil:
		c.publish(Event{Kind: EventTokenAcquired, Claims: renewed.Claims})
		return true, nil
	case errors.Is(err, transport.ErrNetwork), ctx.Err() != nil:
		return false, err
	default:
		logging.Debug("OIDC", "Stored session could not be resumed: %v", err)
		c.clear()
		return false, nil
	}
}

// followSilently performs the authorization request itself and hands the
// provider's redirect to the navigator. Only redirects back to the app are
// followed; anything else would need the user and counts as login required.
func (c *Client) followSilently(ctx context.Context, authURL string) error {
	hc := *c.httpClient
	hc.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build silent login request: %w", err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("silent login: %w: %v", transport.ErrNetwork, err)
	}
	defer resp.Body.Close()

	location := resp.Header.Get("Location")
	if resp.StatusCode >= 300 && resp.StatusCode < 400 && location != "" {
		if !strings.HasPrefix(location, c.cfg.RedirectURI) {
			logging.Debug("OIDC", "Silent login redirected away from the app to %s", location)
			return fmt.Errorf("silent login redirected to %s: %w", location, ErrLoginRequired)
		}
		return c.cfg.Navigator.Navigate(ctx, location)
	}
	return fmt.Errorf("silent login answered with status %d: %w", resp.StatusCode, ErrLoginRequired)
}

// PendingCallbackPath returns the in-app path recorded by the login in progress.
func (c *Client) PendingCallbackPath() (string, error) {
	rec, err := c.loadLoginRecord()
	if err != nil {
		if errors.Is(err, ErrNoLoginState) {
			return "", ErrRedirectURLNotSet
		}
		return "", err
	}
	return rec.CallbackPath, nil
}

func (c *Client) loadLoginRecord() (loginRecord, error) {
	data, ok, err := c.cfg.Storage.Get(c.loginKey())
	if err != nil {
		return loginRecord{}, err
	}
	if !ok {
		return loginRecord{}, ErrNoLoginState
	}
	var rec loginRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return loginRecord{}, fmt.Errorf("corrupt login state: %w", err)
	}
	return rec, nil
}

// LoginCallback completes the login whose redirect arrived at location.
// The stored login state is consumed whatever the outcome.
func (c *Client) LoginCallback(ctx context.Context, location string) (*CallbackResult, error) {
	c.publish(Event{Kind: EventLoginCallbackBegin})
	res, err := c.loginCallback(ctx, location)
	if err != nil {
		c.publish(Event{Kind: EventLoginCallbackError, Err: err})
		return nil, err
	}
	c.publish(Event{Kind: EventTokenAcquired, Claims: res.Claims})
	c.publish(Event{Kind: EventLoginCallbackEnd})
	return res, nil
}

func (c *Client) loginCallback(ctx context.Context, location string) (*CallbackResult, error) {
	params, err := callbackParams(location)
	if err != nil {
		return nil, err
	}

	rec, err := c.loadLoginRecord()
	if err != nil {
		return nil, err
	}
	if err := c.cfg.Storage.Delete(c.loginKey()); err != nil {
		logging.Warn("OIDC", "Failed to remove login state: %v", err)
	}

	if params.Get("state") != rec.State {
		return nil, ErrStateMismatch
	}
	if code := params.Get("error"); code != "" {
		return nil, &ProtocolError{Code: code, Description: params.Get("error_description")}
	}
	code := params.Get("code")
	if code == "" {
		return nil, &ProtocolError{Code: "invalid_request", Description: "callback carries neither code nor error"}
	}

	p, err := c.providerFor(ctx)
	if err != nil {
		return nil, err
	}
	tok, err := c.oauthConfig(p).Exchange(c.httpContext(ctx), code, oauth2.VerifierOption(rec.CodeVerifier))
	if err != nil {
		return nil, c.tokenError(ctx, err)
	}
	tokens, err := c.tokensFrom(ctx, p, tok, rec.Nonce, Tokens{})
	if err != nil {
		return nil, err
	}
	if err := c.store(tokens); err != nil {
		return nil, err
	}
	return &CallbackResult{Claims: tokens.Claims, CallbackPath: rec.CallbackPath}, nil
}

func callbackParams(location string) (url.Values, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("invalid callback location: %w", err)
	}
	params := u.Query()
	// Hash routing puts the query inside the fragment.
	if i := strings.Index(u.Fragment, "?"); i >= 0 {
		fragment, err := url.ParseQuery(u.Fragment[i+1:])
		if err == nil {
			for k, vs := range fragment {
				for _, v := range vs {
					params.Add(k, v)
				}
			}
		}
	}
	return params, nil
}

// RefreshTokens renews the tokens with the refresh grant. Concurrent callers
// share one request.
func (c *Client) RefreshTokens(ctx context.Context) (Tokens, error) {
	v, err, _ := c.refresh.Do("refresh", func() (any, error) {
		c.publish(Event{Kind: EventRefreshBegin})
		t, err := c.refreshTokens(ctx)
		if err != nil {
			c.publish(Event{Kind: EventRefreshError, Err: err})
			return Tokens{}, err
		}
		c.publish(Event{Kind: EventTokenRenewed, Claims: t.Claims})
		c.publish(Event{Kind: EventRefreshEnd})
		return t, nil
	})
	if err != nil {
		return Tokens{}, err
	}
	return v.(Tokens), nil
}

// refreshOnce renews without publishing events.
func (c *Client) refreshOnce(ctx context.Context) (Tokens, error) {
	v, err, _ := c.refresh.Do("refresh", func() (any, error) {
		return c.refreshTokens(ctx)
	})
	if err != nil {
		return Tokens{}, err
	}
	return v.(Tokens), nil
}

func (c *Client) refreshTokens(ctx context.Context) (Tokens, error) {
	cur := c.Tokens()
	if cur.RefreshToken == "" {
		return Tokens{}, ErrNotAuthenticated
	}
	p, err := c.providerFor(ctx)
	if err != nil {
		return Tokens{}, err
	}

	// An already expired token forces the source to use the refresh grant.
	src := c.oauthConfig(p).TokenSource(c.httpContext(ctx), &oauth2.Token{
		RefreshToken: cur.RefreshToken,
		Expiry:       time.Unix(1, 0),
	})
	tok, err := src.Token()
	if err != nil {
		err = c.tokenError(ctx, err)
		if IsSessionLost(err) {
			logging.Audit("token_refresh_rejected", "OAuth refresh rejected, session ended upstream",
				"issuer", c.cfg.Authority, "client_id", c.cfg.ClientID)
			c.clear()
		}
		return Tokens{}, err
	}

	t, err := c.tokensFrom(ctx, p, tok, "", cur)
	if err != nil {
		return Tokens{}, err
	}
	if err := c.store(t); err != nil {
		return Tokens{}, err
	}
	return t, nil
}

// WaitForValidTokens polls until the access token is valid, at most attempts
// times with interval between polls. Expired tokens with a refresh token are
// renewed once along the way.
func (c *Client) WaitForValidTokens(ctx context.Context, interval time.Duration, attempts int) (Tokens, error) {
	refreshed := false
	for i := 0; i < attempts; i++ {
		t := c.Tokens()
		if t.Valid(c.now()) {
			return t, nil
		}
		if !refreshed && t.RefreshToken != "" {
			refreshed = true
			if _, err := c.RefreshTokens(ctx); err != nil {
				return Tokens{}, err
			}
			continue
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Tokens{}, ctx.Err()
		case <-timer.C:
		}
	}
	return Tokens{}, ErrTokenWaitExhausted
}

// Logout clears the token cache and sends the user agent to the provider's
// end session endpoint, which redirects to postLogoutURI afterwards.
func (c *Client) Logout(ctx context.Context, postLogoutURI string) error {
	idToken := c.Tokens().IDToken
	c.clear()

	target := postLogoutURI
	if p, err := c.providerFor(ctx); err == nil {
		var meta struct {
			EndSession string `json:"end_session_endpoint"`
		}
		if err := p.Claims(&meta); err == nil && meta.EndSession != "" {
			u, err := url.Parse(meta.EndSession)
			if err != nil {
				return fmt.Errorf("invalid end session endpoint: %w", err)
			}
			q := u.Query()
			q.Set("client_id", c.cfg.ClientID)
			if postLogoutURI != "" {
				q.Set("post_logout_redirect_uri", postLogoutURI)
			}
			if idToken != "" {
				q.Set("id_token_hint", idToken)
			}
			u.RawQuery = q.Encode()
			target = u.String()
		}
	} else {
		logging.Warn("OIDC", "Logging out locally only, provider unavailable: %v", err)
	}

	if target == "" || c.cfg.Navigator == nil {
		return nil
	}
	return c.cfg.Navigator.Navigate(ctx, target)
}

// UserInfo fetches the claims of the userinfo endpoint.
func (c *Client) UserInfo(ctx context.Context) (Claims, error) {
	t := c.Tokens()
	if t.AccessToken == "" {
		return nil, ErrNotAuthenticated
	}
	p, err := c.providerFor(ctx)
	if err != nil {
		return nil, err
	}
	info, err := p.UserInfo(c.httpContext(ctx), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: t.AccessToken, TokenType: "Bearer"}))
	if err != nil {
		return nil, fmt.Errorf("userinfo: %w", err)
	}
	var claims Claims
	if err := info.Claims(&claims); err != nil {
		return nil, fmt.Errorf("userinfo: %w", err)
	}
	return claims, nil
}

// WatchStorage publishes EventLogoutFromAnotherTab when another process
// removes the stored tokens while this client holds them. It is a no-op for
// storages that are not file backed.
func (c *Client) WatchStorage(ctx context.Context) error {
	fs, ok := c.cfg.Storage.(interface {
		Dir() string
		Path(key string) string
	})
	if !ok {
		return nil
	}
	return watchFile(ctx, fs.Dir(), fs.Path(c.tokensKey()), func() {
		c.mu.Lock()
		held := !c.tokens.Empty()
		if held {
			c.tokens = Tokens{}
			c.stopTimersLocked()
		}
		c.mu.Unlock()
		if held {
			logging.Info("OIDC", "Session storage was cleared by another process")
			c.publish(Event{Kind: EventLogoutFromAnotherTab})
		}
	})
}

// Close stops background renewal. The token cache stays in storage.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.stopTimersLocked()
}

func (c *Client) providerFor(ctx context.Context) (*gooidc.Provider, error) {
	c.providerMu.Lock()
	defer c.providerMu.Unlock()
	if c.provider != nil {
		return c.provider, nil
	}
	p, err := gooidc.NewProvider(gooidc.ClientContext(ctx, c.httpClient), c.cfg.Authority)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && ctx.Err() == nil {
			return nil, fmt.Errorf("discovery of %s: %w: %v", c.cfg.Authority, transport.ErrNetwork, err)
		}
		return nil, fmt.Errorf("discovery of %s: %w", c.cfg.Authority, err)
	}
	c.provider = p
	return p, nil
}

func (c *Client) oauthConfig(p *gooidc.Provider) *oauth2.Config {
	endpoint := p.Endpoint()
	endpoint.AuthStyle = oauth2.AuthStyleInParams
	return &oauth2.Config{
		ClientID:    c.cfg.ClientID,
		Endpoint:    endpoint,
		RedirectURL: c.cfg.RedirectURI,
		Scopes:      c.cfg.Scopes,
	}
}

func (c *Client) httpContext(ctx context.Context) context.Context {
	return gooidc.ClientContext(context.WithValue(ctx, oauth2.HTTPClient, c.httpClient), c.httpClient)
}

// tokenError turns a token endpoint failure into a ProtocolError, a
// session loss or a tagged network error.
func (c *Client) tokenError(ctx context.Context, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		pe := &ProtocolError{Code: re.ErrorCode, Description: re.ErrorDescription}
		if pe.Code == "" && re.Response != nil {
			pe.Code = fmt.Sprintf("http_%d", re.Response.StatusCode)
		}
		if pe.Code == "invalid_grant" {
			return fmt.Errorf("%w: %w", ErrSessionLost, pe)
		}
		return pe
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("token request: %w: %v", transport.ErrNetwork, err)
}

func (c *Client) tokensFrom(ctx context.Context, p *gooidc.Provider, tok *oauth2.Token, nonce string, prev Tokens) (Tokens, error) {
	t := Tokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresAt:    tok.Expiry,
		IDToken:      prev.IDToken,
		Claims:       prev.Claims,
	}
	if t.RefreshToken == "" {
		t.RefreshToken = prev.RefreshToken
	}

	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		if nonce != "" {
			return Tokens{}, errors.New("token response carries no id_token")
		}
		return t, nil
	}

	verifier := p.Verifier(&gooidc.Config{ClientID: c.cfg.ClientID})
	idToken, err := verifier.Verify(c.httpContext(ctx), raw)
	if err != nil {
		return Tokens{}, fmt.Errorf("invalid id_token: %w", err)
	}
	if nonce != "" && idToken.Nonce != nonce {
		return Tokens{}, errors.New("invalid id_token: nonce mismatch")
	}
	var claims Claims
	if err := idToken.Claims(&claims); err != nil {
		return Tokens{}, fmt.Errorf("invalid id_token claims: %w", err)
	}
	t.IDToken = raw
	t.Claims = claims
	if t.ExpiresAt.IsZero() {
		t.ExpiresAt = idToken.Expiry
	}
	return t, nil
}

func (c *Client) restore() error {
	data, ok, err := c.cfg.Storage.Get(c.tokensKey())
	if err != nil || !ok {
		return err
	}
	var t Tokens
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	c.mu.Lock()
	c.tokens = t
	c.mu.Unlock()
	return nil
}

func (c *Client) store(t Tokens) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode tokens: %w", err)
	}

	c.mu.Lock()
	c.tokens = t
	c.mu.Unlock()

	if err := c.cfg.Storage.Set(c.tokensKey(), data); err != nil {
		logging.Audit("token_store_failed", "OAuth token storage failed",
			"issuer", c.cfg.Authority, "client_id", c.cfg.ClientID, "error", err.Error())
		return fmt.Errorf("failed to persist tokens: %w", err)
	}
	logging.Audit("token_stored", "OAuth token stored",
		"issuer", c.cfg.Authority,
		"client_id", c.cfg.ClientID,
		"expiry", t.ExpiresAt.Format(time.RFC3339),
		"has_refresh_token", t.RefreshToken != "",
	)
	c.scheduleRenew()
	return nil
}

func (c *Client) clear() {
	c.mu.Lock()
	had := !c.tokens.Empty()
	c.tokens = Tokens{}
	c.stopTimersLocked()
	c.mu.Unlock()

	if err := c.cfg.Storage.Delete(c.tokensKey()); err != nil {
		logging.Warn("OIDC", "Failed to remove stored tokens: %v", err)
	}
	if had {
		logging.Audit("token_removed", "OAuth token removed", "issuer", c.cfg.Authority, "client_id", c.cfg.ClientID)
	}
}

func (c *Client) scheduleRenew() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.tokens.Empty() {
		return
	}
	if c.renewTimer != nil {
		c.renewTimer.Stop()
	}
	delay := c.tokens.ExpiresAt.Sub(c.now()) - c.cfg.RefreshMargin
	if delay < minRenewDelay {
		delay = minRenewDelay
	}
	c.renewTimer = time.AfterFunc(delay, c.autoRenew)

	if c.tickInterval > 0 && c.tickStop == nil {
		stop := make(chan struct{})
		c.tickStop = stop
		go c.tick(stop)
	}
}

func (c *Client) retryRenewLater() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.tokens.Empty() {
		return
	}
	if c.renewTimer != nil {
		c.renewTimer.Stop()
	}
	c.renewTimer = time.AfterFunc(c.renewRetryDelay, c.autoRenew)
}

func (c *Client) autoRenew() {
	c.mu.RLock()
	closed := c.closed
	t := c.tokens
	c.mu.RUnlock()
	if closed || t.Empty() {
		return
	}

	if t.RefreshToken == "" {
		if !t.Valid(c.now()) {
			c.publish(Event{Kind: EventUnknown, Name: "token_expired"})
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), renewTimeout)
	defer cancel()
	if _, err := c.RefreshTokens(ctx); err != nil && !IsSessionLost(err) {
		logging.Warn("OIDC", "Automatic token renewal failed, retrying in %s: %v", c.renewRetryDelay, err)
		c.retryRenewLater()
	}
}

func (c *Client) tick(stop chan struct{}) {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t := c.Tokens()
			c.publish(Event{Kind: EventTimerTick, TimeLeft: t.ExpiresAt.Sub(c.now())})
		}
	}
}

func (c *Client) stopTimersLocked() {
	if c.renewTimer != nil {
		c.renewTimer.Stop()
		c.renewTimer = nil
	}
	if c.tickStop != nil {
		close(c.tickStop)
		c.tickStop = nil
	}
}
