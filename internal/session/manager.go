package session

import (
	"context"
	"fmt"
	"sync"

	"ssc/internal/config"
	"ssc/internal/notify"
	"ssc/internal/oidc"
	"ssc/internal/request"
	"ssc/pkg/logging"
)

const (
	LoginFailedMessage    = "Login failed, please try again"
	RefreshNetworkMessage = "Refreshing your access token failed. Cannot connect to IdP."
	RefreshFailedMessage  = "Refreshing your access token failed. Please make sure you have a working connection to your IdP."
	TokenExpiredMessage   = "Your access token has expired. Please make sure that you have a working internet connection."
)

// Manager owns the session state machine. It subscribes to the OIDC client's
// events for its whole lifetime and drives the login, callback and logout
// handshakes.
//
// userInfo is set if and only if the state is StateAuthenticated.
type Manager struct {
	cfg      config.Config
	client   OIDCClient
	host     Host
	notifier notify.Notifier

	unsubscribe func()

	mu       sync.RWMutex
	state    State
	userInfo oidc.Claims
	pending  notify.Dismiss
	reloaded bool
}

// NewManager creates a Manager in StateLoading and subscribes it to client.
func NewManager(cfg config.Config, client OIDCClient, host Host, n notify.Notifier) *Manager {
	m := &Manager{
		cfg:      cfg,
		client:   client,
		host:     host,
		notifier: n,
		state:    StateLoading,
	}
	m.unsubscribe = client.Subscribe(m.handleEvent)
	return m
}

// Close detaches the manager from the OIDC client.
func (m *Manager) Close() {
	m.unsubscribe()
}

// State returns the current loading state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// UserInfo returns the identity claims of the authenticated user, or nil.
func (m *Manager) UserInfo() oidc.Claims {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.userInfo
}

// Authenticated reports whether a user is logged in.
func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.userInfo != nil && m.state == StateAuthenticated
}

// HasValidTokens reports whether the access token is present and unexpired.
func (m *Manager) HasValidTokens() bool {
	return m.client.HasValidTokens()
}

// AccessToken returns the current access token without any validity guarantee.
func (m *Manager) AccessToken() string {
	return m.client.Tokens().AccessToken
}

// Preflight blocks until the tokens are valid, renewing them if needed. It
// polls the configured number of times before giving up.
func (m *Manager) Preflight(ctx context.Context) error {
	if m.client.HasValidTokens() {
		return nil
	}
	_, err := m.client.WaitForValidTokens(ctx, m.cfg.Session.TokenPollInterval, m.cfg.Session.TokenPollAttempts)
	return err
}

// Load decides the session for the host's current location: it completes an
// OIDC callback, or tries a silent login. Each Load starts like a fresh page,
// so the reload guard is re-armed and leftover notifications are dismissed.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	m.reloaded = false
	dismiss := m.takePendingLocked()
	m.setStateLocked(StateLoading)
	m.mu.Unlock()
	if dismiss != nil {
		dismiss()
	}

	location := m.host.Location()
	if m.cfg.IsCallbackLocation(location) {
		return m.completeCallback(ctx, location)
	}

	m.setState(StateUndecided)
	return m.LoginUser(ctx, false, "")
}

func (m *Manager) completeCallback(ctx context.Context, location string) error {
	// Read before the token exchange, which consumes the stored login state.
	returnPath, returnPathErr := m.client.PendingCallbackPath()

	res, err := m.client.LoginCallback(ctx, location)
	switch {
	case err == nil:
		if res.CallbackPath != "" {
			m.host.Replace(res.CallbackPath)
		}
		return nil
	case oidc.IsLoginRequired(err):
		m.setUnauthenticated()
		if returnPathErr != nil {
			return returnPathErr
		}
		if returnPath != "" {
			m.host.Replace(returnPath)
		}
		return nil
	default:
		m.setState(StateError)
		return err
	}
}

// LoginUser starts a login for postLoginURL, or the current location when it
// is empty. Without require the login is silent and a provider that wants
// user interaction leaves the session unauthenticated.
//
// On success the host usually navigates away, so callers must not rely on
// anything after the call.
func (m *Manager) LoginUser(ctx context.Context, require bool, postLoginURL string) error {
	switch state := m.State(); {
	case state == StateAuthenticated:
		return nil
	case !require && state == StateUnauthenticated:
		return nil
	case state == StateLoading:
		return nil
	}

	path := postLoginURL
	if path == "" {
		path = m.cfg.AppPath(m.host.Location())
	}
	var extras map[string]string
	if !require {
		extras = map[string]string{"prompt": "none"}
	}

	err := m.client.Login(ctx, path, extras)
	if err != nil && !require && oidc.IsLoginRequired(err) {
		m.setUnauthenticated()
		return nil
	}
	return err
}

// LogoutUser ends the session at the provider, which redirects to
// postLogoutURL afterwards. It does nothing when nobody is logged in.
func (m *Manager) LogoutUser(ctx context.Context, postLogoutURL string) error {
	if !m.Authenticated() {
		return nil
	}
	if err := m.client.Logout(ctx, postLogoutURL); err != nil {
		return err
	}
	m.setUnauthenticated()
	return nil
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setStateLocked(s)
}

func (m *Manager) setStateLocked(s State) {
	if m.state != s {
		logging.Debug("Session", "state %s -> %s", m.state, s)
	}
	m.state = s
	if s != StateAuthenticated {
		m.userInfo = nil
	}
}

func (m *Manager) setUnauthenticated() {
	m.setState(StateUnauthenticated)
}

// effects are applied after the state lock is released.
type effects struct {
	dismiss notify.Dismiss
	show    string
	reload  bool
}

func (m *Manager) handleEvent(e oidc.Event) {
	m.mu.Lock()
	fx := m.transitionLocked(e)
	m.mu.Unlock()

	if fx.dismiss != nil {
		fx.dismiss()
	}
	if fx.show != "" {
		dismiss := m.notifier.Error(fx.show, false)
		m.mu.Lock()
		m.pending = dismiss
		m.mu.Unlock()
	}
	if fx.reload {
		m.host.Reload()
	}
}

func (m *Manager) takePendingLocked() notify.Dismiss {
	d := m.pending
	m.pending = nil
	return d
}

func (m *Manager) transitionLocked(e oidc.Event) effects {
	switch e.Kind {
	case oidc.EventTokenAcquired, oidc.EventTokenRenewed:
		claims := e.Claims
		if claims == nil {
			claims = oidc.Claims{}
		}
		m.setStateLocked(StateAuthenticated)
		m.userInfo = claims
		return effects{dismiss: m.takePendingLocked()}

	case oidc.EventLoginCallbackBegin, oidc.EventLoginCallbackEnd,
		oidc.EventRefreshBegin, oidc.EventRefreshEnd, oidc.EventTimerTick:
		return effects{}

	case oidc.EventLoginCallbackError:
		fx := effects{dismiss: m.takePendingLocked()}
		if oidc.IsLoginRequired(e.Err) {
			m.setStateLocked(StateUnauthenticated)
			return fx
		}
		logging.Error("Session", e.Err, "Login callback failed")
		fx.show = LoginFailedMessage
		return fx

	case oidc.EventLogoutFromAnotherTab:
		return m.sessionEndedLocked(e)

	case oidc.EventRefreshError:
		if oidc.IsSessionLost(e.Err) {
			return m.sessionEndedLocked(e)
		}
		logging.Error("Session", e.Err, "Token refresh failed")
		fx := effects{dismiss: m.takePendingLocked(), show: RefreshFailedMessage}
		if request.IsNetwork(e.Err) {
			fx.show = RefreshNetworkMessage
		}
		return fx

	default:
		logging.Warn("Session", "Unhandled session event %q (kind %d, error: %v)", e.Name, e.Kind, e.Err)
		fx := effects{dismiss: m.takePendingLocked()}
		if e.Name == "token_expired" {
			fx.show = TokenExpiredMessage
		} else {
			fx.show = fmt.Sprintf("Unexpected session event %q. Please reload the page.", e.Name)
		}
		return fx
	}
}

func (m *Manager) sessionEndedLocked(e oidc.Event) effects {
	logging.Info("Session", "Session ended (%s)", e.Name)
	m.setStateLocked(StateUnauthenticated)
	fx := effects{reload: !m.reloaded}
	m.reloaded = true
	return fx
}
