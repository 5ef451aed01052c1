package host

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"ssc/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	cfg := config.GetDefaultConfig()
	cfg.App.BaseURL = "http://localhost:3000"
	return cfg
}

func TestTerminalLocation(t *testing.T) {
	term := NewTerminal(testConfig(), "/clients")
	assert.Equal(t, "http://localhost:3000/clients", term.Location())

	term.Replace("/clients/ssc-demo")
	assert.Equal(t, "http://localhost:3000/clients/ssc-demo", term.Location())
}

func TestTerminalReload(t *testing.T) {
	term := NewTerminal(testConfig(), "/")
	assert.False(t, term.ReloadRequested())
	term.Reload()
	term.Reload()
	assert.True(t, term.ReloadRequested())
	assert.False(t, term.ReloadRequested())
}

func TestTerminalNavigate(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		openErr    error
		wantOpened bool
		wantArrive bool
		wantPrint  bool
	}{
		{name: "in-app redirect", target: "http://localhost:3000/oidc/callback?error=login_required", wantArrive: true},
		{name: "app root", target: "http://localhost:3000", wantArrive: true},
		{name: "lookalike host", target: "http://localhost:30001/x", wantOpened: true},
		{name: "identity provider", target: "https://keycloak.example.org/realms/test/protocol/openid-connect/auth", wantOpened: true},
		{name: "no browser", target: "https://keycloak.example.org/", openErr: errors.New("no display"), wantOpened: true, wantPrint: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opened []string
			var out bytes.Buffer
			term := NewTerminal(testConfig(), "/",
				WithOutput(&out),
				WithOpener(func(u string) error {
					opened = append(opened, u)
					return tt.openErr
				}))

			require.NoError(t, term.Navigate(context.Background(), tt.target))
			assert.Equal(t, tt.wantOpened, len(opened) == 1)
			assert.Equal(t, tt.wantPrint, bytes.Contains(out.Bytes(), []byte(tt.target)))

			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			loc, err := term.WaitForArrival(ctx)
			if tt.wantArrive {
				require.NoError(t, err)
				assert.Equal(t, tt.target, loc)
				assert.Equal(t, tt.target, term.Location())
			} else {
				assert.ErrorIs(t, err, context.DeadlineExceeded)
			}
		})
	}
}

func TestTerminalKeepsLatestArrival(t *testing.T) {
	term := NewTerminal(testConfig(), "/", WithOpener(func(string) error { return nil }))
	require.NoError(t, term.Navigate(context.Background(), "http://localhost:3000/a"))
	require.NoError(t, term.Navigate(context.Background(), "http://localhost:3000/b"))

	loc, err := term.WaitForArrival(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/b", loc)
}

func TestTerminalListenReceivesCallback(t *testing.T) {
	cfg := testConfig()
	term := NewTerminal(cfg, "/", WithListenAddr("127.0.0.1:0"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, term.Listen(ctx))
	defer term.Close()

	resp, err := http.Get("http://" + term.Addr() + "/oidc/callback?state=s1&code=c1")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Login complete")
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	loc, err := term.WaitForArrival(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/oidc/callback?state=s1&code=c1", loc)
	assert.True(t, cfg.IsCallbackLocation(loc))
}

func TestTerminalListenEscapesProviderErrors(t *testing.T) {
	term := NewTerminal(testConfig(), "/", WithListenAddr("127.0.0.1:0"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, term.Listen(ctx))
	defer term.Close()

	resp, err := http.Get("http://" + term.Addr() + "/oidc/callback?error=access_denied&error_description=%3Cscript%3E")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Contains(t, string(body), "Login failed")
	assert.Contains(t, string(body), "access_denied")
	assert.NotContains(t, string(body), "<script>")
}

func TestTerminalListenRejectsHashRouting(t *testing.T) {
	cfg := testConfig()
	cfg.App.RouterMode = config.RouterModeHash
	term := NewTerminal(cfg, "/")
	assert.ErrorIs(t, term.Listen(context.Background()), ErrHashRouting)
}

func TestTerminalWaitForArrivalCancelled(t *testing.T) {
	term := NewTerminal(testConfig(), "/")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := term.WaitForArrival(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
