package oidc

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLoginRequired means the identity provider cannot log the user in
	// without interaction. The message carries the OAuth error code.
	ErrLoginRequired = errors.New("login_required: login not possible without user interaction")

	// ErrSessionLost means the refresh token was rejected and the upstream
	// session is gone.
	ErrSessionLost = errors.New("session lost")

	// ErrRedirectURLNotSet means no login was started from this storage.
	ErrRedirectURLNotSet = errors.New("redirect url not set in session storage")

	ErrNoLoginState       = errors.New("no login state found in storage")
	ErrStateMismatch      = errors.New("state parameter does not match the stored login")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrTokenWaitExhausted = errors.New("no valid tokens after waiting")
)

// ProtocolError is an OAuth 2.0 error response from the identity provider.
type ProtocolError struct {
	Code        string
	Description string
}

func (e *ProtocolError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is maps OAuth error codes onto the package sentinels.
func (e *ProtocolError) Is(target error) bool {
	switch target {
	case ErrLoginRequired:
		return e.Code == "login_required" || e.Code == "interaction_required"
	case ErrSessionLost:
		return e.Code == "invalid_grant"
	default:
		return false
	}
}

// IsLoginRequired reports whether err says a login needs user interaction.
func IsLoginRequired(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrLoginRequired) || strings.Contains(err.Error(), "login_required")
}

// IsSessionLost reports whether err says the upstream session ended.
func IsSessionLost(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrSessionLost) || strings.Contains(err.Error(), ErrSessionLost.Error())
}
