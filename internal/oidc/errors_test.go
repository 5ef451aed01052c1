package oidc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProtocolErrorMapsCodes(t *testing.T) {
	tests := []struct {
		code          string
		loginRequired bool
		sessionLost   bool
	}{
		{"login_required", true, false},
		{"interaction_required", true, false},
		{"invalid_grant", false, true},
		{"access_denied", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := fmt.Errorf("callback: %w", &ProtocolError{Code: tt.code})
			assert.Equal(t, tt.loginRequired, IsLoginRequired(err))
			assert.Equal(t, tt.sessionLost, IsSessionLost(err))
		})
	}
}

func TestProtocolErrorMessage(t *testing.T) {
	assert.Equal(t, "access_denied", (&ProtocolError{Code: "access_denied"}).Error())
	assert.Equal(t, "invalid_grant: Token is not active",
		(&ProtocolError{Code: "invalid_grant", Description: "Token is not active"}).Error())
}

func TestErrorPredicatesMatchMessages(t *testing.T) {
	assert.True(t, IsLoginRequired(errors.New("login_required")))
	assert.True(t, IsSessionLost(errors.New("refresh failed: session lost")))
	assert.False(t, IsLoginRequired(nil))
	assert.False(t, IsSessionLost(nil))
	assert.False(t, IsSessionLost(errors.New("connection refused")))
}
