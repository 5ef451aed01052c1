package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWritableClient(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		clientID string
		uris     []string
		wantErr  bool
	}{
		{
			name:     "yaml",
			content:  "clientId: ssc-demo\nredirectUris:\n  - https://demo.example.com/*\n",
			clientID: "ssc-demo",
			uris:     []string{"https://demo.example.com/*"},
		},
		{
			name:     "json",
			content:  `{"clientId":"ssc-json","redirectUris":["https://a.example.com/cb"]}`,
			clientID: "ssc-json",
			uris:     []string{"https://a.example.com/cb"},
		},
		{
			name:     "server fields are ignored",
			content:  "id: 0f6d\nsecret: s3cr3t\nclientId: ssc-demo\n",
			clientID: "ssc-demo",
		},
		{
			name:    "malformed",
			content: "clientId: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "client.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			w, err := readWritableClient(nil, path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.clientID, w.ClientID)
			assert.Equal(t, tt.uris, w.RedirectURIs)
		})
	}
}

func TestReadWritableClientFromStdin(t *testing.T) {
	w, err := readWritableClient(strings.NewReader("clientId: ssc-stdin\n"), "-")
	require.NoError(t, err)
	assert.Equal(t, "ssc-stdin", w.ClientID)
}

func TestReadWritableClientMissingFile(t *testing.T) {
	_, err := readWritableClient(nil, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read client file")
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			got, err := confirm(strings.NewReader(tt.input), &out, "Sure? ")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Sure? ", out.String())
		})
	}
}

func TestFormatExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "unknown", formatExpiry(time.Time{}, now))
	assert.Contains(t, formatExpiry(now.Add(90*time.Second), now), "(in 1m30s)")
	assert.Contains(t, formatExpiry(now.Add(-time.Minute), now), "(expired)")
}
