package request

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ssc/internal/notify"
	"ssc/internal/transport"
)

type errorKind int

const (
	kindNone errorKind = iota
	kindNetwork
	kindRateLimit
)

func (k errorKind) String() string {
	switch k {
	case kindNetwork:
		return "NETWORK"
	case kindRateLimit:
		return "RATE_LIMIT"
	default:
		return "NONE"
	}
}

// retryState is the per-call retry context. Every transition returns a new
// value; at most one notification is active at any time.
type retryState struct {
	active       notify.Dismiss
	kind         errorKind
	nextDelay    time.Duration
	delayPending bool
}

func (s retryState) dismiss() {
	if s.active != nil {
		s.active()
	}
}

func (s retryState) delayConsumed() retryState {
	s.nextDelay = 0
	s.delayPending = false
	return s
}

// succeeded clears the active notification, if any.
func (s retryState) succeeded() retryState {
	s.dismiss()
	return retryState{}
}

// failed records a retryable failure of the given kind. A notification of a
// different kind is dismissed first; a notification of the same kind is kept.
func (s retryState) failed(kind errorKind, delay time.Duration, show func(errorKind) notify.Dismiss) retryState {
	if s.active != nil && s.kind != kind {
		s.active()
		s.active = nil
		s.kind = kindNone
	}
	if s.active == nil {
		s.active = show(kind)
		s.kind = kind
	}
	s.nextDelay = delay
	s.delayPending = true
	return s
}

// classify decides whether err is retryable and how long to wait before the next attempt.
func classify(err error, interval time.Duration) (errorKind, time.Duration) {
	if errors.Is(err, transport.ErrNetwork) {
		return kindNetwork, interval
	}
	var respErr *transport.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode() == http.StatusTooManyRequests {
		return kindRateLimit, retryAfter(respErr.Response.Header, interval)
	}
	return kindNone, 0
}

// retryAfter parses the rate limit hint. Missing or non-numeric values fall
// back to interval and hints above MaxRetryAfter are capped.
func retryAfter(h http.Header, interval time.Duration) time.Duration {
	raw := strings.TrimSpace(h.Get(RetryAfterHeader))
	if raw == "" {
		return interval
	}
	ms, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(ms) || math.IsInf(ms, 0) || ms < 0 {
		return interval
	}
	if ms >= float64(MaxRetryAfter/time.Millisecond) {
		return MaxRetryAfter
	}
	return time.Duration(ms * float64(time.Millisecond))
}
