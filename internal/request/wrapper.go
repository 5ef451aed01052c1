package request

import (
	"context"
	"errors"
	"time"

	"ssc/internal/notify"
	"ssc/internal/transport"
	"ssc/pkg/logging"
)

const (
	// DefaultRetryInterval is the wait after a connectivity failure and the
	// fallback wait after a rate limit without a usable hint.
	DefaultRetryInterval = 1500 * time.Millisecond

	// RetryAfterHeader carries the server's rate limit hint in milliseconds.
	RetryAfterHeader = "X-Rate-Limit-Retry-After-Milliseconds"

	// MaxRetryAfter caps the rate limit hint.
	MaxRetryAfter = time.Hour

	NetworkMessage   = "No server connection. Please check your internet connection."
	RateLimitMessage = "The server received too many requests from you. Please wait a moment."
)

// Call performs exactly one HTTP request. It must read any credentials it
// needs at call time, after the preflight ran.
type Call func(ctx context.Context) (*transport.Response, error)

// Preflight runs before every attempt, typically to make sure tokens are valid.
type Preflight func(ctx context.Context) error

// NoPreflight is a Preflight that does nothing.
func NoPreflight(context.Context) error { return nil }

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Wrapper runs calls with transparent retries on connectivity loss and rate limiting.
//
// Both retryable failure classes are retried without an attempt limit. Outages
// and rate limits are expected to pass and the operator cancels (ctx) instead
// of the call timing out. Concurrent Do calls are independent and may each
// show their own notification.
type Wrapper struct {
	notifier      notify.Notifier
	retryInterval time.Duration
	sleep         Sleeper
}

// Option configures a Wrapper.
type Option func(*Wrapper)

// WithRetryInterval overrides DefaultRetryInterval.
func WithRetryInterval(d time.Duration) Option {
	return func(w *Wrapper) {
		if d > 0 {
			w.retryInterval = d
		}
	}
}

// WithSleeper replaces the timer used between attempts.
func WithSleeper(s Sleeper) Option {
	return func(w *Wrapper) { w.sleep = s }
}

// New creates a Wrapper that reports retry conditions through n.
func New(n notify.Notifier, opts ...Option) *Wrapper {
	w := &Wrapper{
		notifier:      n,
		retryInterval: DefaultRetryInterval,
		sleep:         sleepContext,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Do runs preflight and then call until call succeeds or fails with an error
// that is neither a connectivity failure nor HTTP 429. That error is returned
// unchanged.
func (w *Wrapper) Do(ctx context.Context, call Call, preflight Preflight) (*transport.Response, error) {
	if preflight == nil {
		preflight = NoPreflight
	}

	var state retryState
	for attempt := 1; ; attempt++ {
		if state.delayPending {
			if err := w.sleep(ctx, state.nextDelay); err != nil {
				state.dismiss()
				return nil, err
			}
			state = state.delayConsumed()
		}

		resp, err := w.attempt(ctx, call, preflight)
		if err == nil {
			state = state.succeeded()
			return resp, nil
		}

		kind, delay := classify(err, w.retryInterval)
		if kind == kindNone {
			if ctx.Err() != nil {
				// The caller went away, like a page navigation.
				state.dismiss()
			}
			return nil, err
		}

		logging.Debug("Request", "attempt %d failed with %s, retrying in %s: %v", attempt, kind, delay, err)
		state = state.failed(kind, delay, w.show)
	}
}

func (w *Wrapper) attempt(ctx context.Context, call Call, preflight Preflight) (*transport.Response, error) {
	if err := preflight(ctx); err != nil {
		return nil, err
	}
	return call(ctx)
}

func (w *Wrapper) show(kind errorKind) notify.Dismiss {
	switch kind {
	case kindNetwork:
		return w.notifier.Error(NetworkMessage, false)
	case kindRateLimit:
		return w.notifier.Error(RateLimitMessage, false)
	default:
		return notify.Once(nil)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRetryable reports whether Do would retry err.
func IsRetryable(err error) bool {
	kind, _ := classify(err, DefaultRetryInterval)
	return kind != kindNone
}

// IsNetwork reports whether err is a connectivity failure.
func IsNetwork(err error) bool {
	return errors.Is(err, transport.ErrNetwork)
}
