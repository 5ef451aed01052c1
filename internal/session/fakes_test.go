package session

import (
	"context"
	"sync"
	"time"

	"ssc/internal/oidc"
)

type loginCall struct {
	path   string
	extras map[string]string
}

// fakeClient imitates the OIDC client's event behaviour without a provider.
type fakeClient struct {
	mu       sync.Mutex
	handlers []oidc.Handler

	logins  []loginCall
	onLogin func(f *fakeClient) error

	pendingPath string
	pendingSet  bool
	callback    *oidc.CallbackResult
	callbackErr error

	logouts   []string
	tokens    oidc.Tokens
	valid     bool
	waitCalls int
	waitArgs  [2]any
	waitErr   error
}

func (f *fakeClient) Subscribe(h oidc.Handler) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, h)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.handlers = nil
	}
}

func (f *fakeClient) publish(e oidc.Event) {
	if e.Name == "" {
		e.Name = e.Kind.String()
	}
	f.mu.Lock()
	handlers := append([]oidc.Handler(nil), f.handlers...)
	f.mu.Unlock()
	for _, h := range handlers {
		h(e)
	}
}

func (f *fakeClient) Login(_ context.Context, path string, extras map[string]string) error {
	f.mu.Lock()
	f.logins = append(f.logins, loginCall{path: path, extras: extras})
	hook := f.onLogin
	f.mu.Unlock()
	if hook != nil {
		return hook(f)
	}
	return nil
}

func (f *fakeClient) LoginCallback(_ context.Context, _ string) (*oidc.CallbackResult, error) {
	// The login state is gone once the exchange was attempted.
	f.mu.Lock()
	f.pendingSet = false
	f.mu.Unlock()

	f.publish(oidc.Event{Kind: oidc.EventLoginCallbackBegin})
	if f.callbackErr != nil {
		f.publish(oidc.Event{Kind: oidc.EventLoginCallbackError, Err: f.callbackErr})
		return nil, f.callbackErr
	}
	f.publish(oidc.Event{Kind: oidc.EventTokenAcquired, Claims: f.callback.Claims})
	f.publish(oidc.Event{Kind: oidc.EventLoginCallbackEnd})
	return f.callback, nil
}

func (f *fakeClient) PendingCallbackPath() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.pendingSet {
		return "", oidc.ErrRedirectURLNotSet
	}
	return f.pendingPath, nil
}

func (f *fakeClient) Logout(_ context.Context, postLogoutURI string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts = append(f.logouts, postLogoutURI)
	return nil
}

func (f *fakeClient) Tokens() oidc.Tokens { return f.tokens }

func (f *fakeClient) HasValidTokens() bool { return f.valid }

func (f *fakeClient) WaitForValidTokens(_ context.Context, interval time.Duration, attempts int) (oidc.Tokens, error) {
	f.waitCalls++
	f.waitArgs = [2]any{interval, attempts}
	return f.tokens, f.waitErr
}

type fakeHost struct {
	mu       sync.Mutex
	location string
	replaced []string
	reloads  int
}

func (h *fakeHost) Location() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.location
}

func (h *fakeHost) Replace(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.replaced = append(h.replaced, path)
}

func (h *fakeHost) Reload() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reloads++
}
