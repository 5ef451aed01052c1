// Package request wraps single HTTP calls with transparent retries.
//
// A Wrapper first runs a preflight hook (usually "make sure the access token is
// valid") and then the call itself. Connectivity failures are retried every
// retry interval, and HTTP 429 answers are retried after the delay in the
// X-Rate-Limit-Retry-After-Milliseconds header. While retrying, exactly one
// persistent notification describes the current condition. It is replaced when
// the condition changes and dismissed once the call succeeds. Every other error
// is returned to the caller on first sight.
package request
