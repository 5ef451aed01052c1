package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerivedURLs(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Keycloak.URL = "https://idp.example.org/"
	cfg.Keycloak.Realm = "acme"
	cfg.Keycloak.ClientID = "self-service-clients"
	cfg.App.BaseURL = "https://ssc.example.org"

	assert.Equal(t, "https://idp.example.org/realms/acme", cfg.IdPURL())
	assert.Equal(t, "https://idp.example.org/admin/acme", cfg.AdminURL())
	assert.Equal(t, "https://idp.example.org/realms/acme/self-service-clients/clients", cfg.ClientsURL())
	assert.Equal(t,
		"https://idp.example.org/realms/acme/account/?referrer=self-service-clients&referrer_uri=https%3A%2F%2Fssc.example.org",
		cfg.AccountConsoleURL())
}

func TestGenerateRedirectURI(t *testing.T) {
	tests := []struct {
		name     string
		mode     RouterMode
		path     string
		expected string
	}{
		{name: "history strips leading slash", mode: RouterModeHistory, path: "/oidc/callback", expected: "http://localhost:3000/oidc/callback"},
		{name: "history relative path", mode: RouterModeHistory, path: "clients", expected: "http://localhost:3000/clients"},
		{name: "hash mode", mode: RouterModeHash, path: "/oidc/callback", expected: "http://localhost:3000/#/oidc/callback"},
		{name: "hash mode empty path", mode: RouterModeHash, path: "", expected: "http://localhost:3000/#/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			cfg.App.RouterMode = tt.mode
			assert.Equal(t, tt.expected, cfg.GenerateRedirectURI(tt.path))
		})
	}
}

func TestIsCallbackLocation(t *testing.T) {
	tests := []struct {
		name     string
		mode     RouterMode
		location string
		expected bool
	}{
		{name: "history exact", mode: RouterModeHistory, location: "http://localhost:3000/oidc/callback", expected: true},
		{name: "history with query", mode: RouterModeHistory, location: "http://localhost:3000/oidc/callback?code=abc&state=xyz", expected: true},
		{name: "history other page", mode: RouterModeHistory, location: "http://localhost:3000/clients", expected: false},
		{name: "history other origin", mode: RouterModeHistory, location: "http://evil.example/oidc/callback", expected: false},
		{name: "hash suffix", mode: RouterModeHash, location: "http://localhost:3000/#/oidc/callback", expected: true},
		{name: "hash with trailing query", mode: RouterModeHash, location: "http://localhost:3000/#/oidc/callback?code=abc", expected: false},
		{name: "hash other page", mode: RouterModeHash, location: "http://localhost:3000/#/clients", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			cfg.App.RouterMode = tt.mode
			assert.Equal(t, tt.expected, cfg.IsCallbackLocation(tt.location))
		})
	}
}

func TestAppPath(t *testing.T) {
	tests := []struct {
		name     string
		mode     RouterMode
		location string
		expected string
	}{
		{"history root", RouterModeHistory, "http://localhost:3000", "/"},
		{"history path", RouterModeHistory, "http://localhost:3000/clients/ssc-demo", "/clients/ssc-demo"},
		{"history query", RouterModeHistory, "http://localhost:3000/clients?page=2", "/clients?page=2"},
		{"hash path", RouterModeHash, "http://localhost:3000/#/clients", "/clients"},
		{"hash without fragment", RouterModeHash, "http://localhost:3000/", "/"},
		{"foreign location", RouterModeHistory, "https://idp.example.org/realms/test", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			cfg.App.BaseURL = "http://localhost:3000"
			cfg.App.RouterMode = tt.mode
			assert.Equal(t, tt.expected, cfg.AppPath(tt.location))
		})
	}
}
