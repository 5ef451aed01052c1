package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"ssc/internal/cli"
	"ssc/internal/config"
	"ssc/internal/keycloak"
	"ssc/internal/oidc/oidctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testBrowser plays the user agent: it follows the provider's redirect and
// delivers login callbacks to the loopback listener.
type testBrowser struct {
	provider *oidctest.Provider

	mu     sync.Mutex
	opened []string
}

func (b *testBrowser) open(target string) error {
	b.mu.Lock()
	b.opened = append(b.opened, target)
	b.mu.Unlock()

	hc := *b.provider.HTTPClient()
	hc.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	resp, err := hc.Get(target)
	if err != nil {
		return err
	}
	resp.Body.Close()

	location := resp.Header.Get("Location")
	if !strings.Contains(location, "/oidc/callback") {
		return nil
	}
	resp, err = hc.Get(location)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// fakeClientsAPI serves the self-service clients resource for tokens the
// provider issued.
type fakeClientsAPI struct {
	provider *oidctest.Provider

	mu      sync.Mutex
	clients []keycloak.ClientRecord
}

func (f *fakeClientsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !f.provider.Authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	_, id, _ := strings.Cut(r.URL.Path, "/self-service-clients/clients")
	id = strings.TrimPrefix(id, "/")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case id == "" && r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(f.clients)
	case id == "" && r.Method == http.MethodPost:
		var wc keycloak.WritableClient
		if err := json.NewDecoder(r.Body).Decode(&wc); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		rec := keycloak.ClientRecord{
			WritableClient: wc,
			ID:             fmt.Sprintf("id-%d", len(f.clients)+1),
			Secret:         "generated-secret",
		}
		f.clients = append(f.clients, rec)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(rec)
	case r.Method == http.MethodGet:
		for _, c := range f.clients {
			if c.ID == id {
				_ = json.NewEncoder(w).Encode(c)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Client not found"}`))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type cliEnv struct {
	provider  *oidctest.Provider
	api       *fakeClientsAPI
	browser   *testBrowser
	configDir string
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func setupCLI(t *testing.T) *cliEnv {
	t.Helper()
	for _, key := range []string{config.EnvKeycloakURL, config.EnvRealm, config.EnvClientID, config.EnvAppBaseURL, config.EnvRouterMode} {
		t.Setenv(key, "")
	}

	defaults := config.GetDefaultConfig()
	p := oidctest.StartRealm(t, defaults.Keycloak.Realm, defaults.Keycloak.ClientID)
	api := &fakeClientsAPI{provider: p}
	p.Handle("/self-service-clients/", api)
	b := &testBrowser{provider: p}

	env := &cliEnv{provider: p, api: api, browser: b, configDir: t.TempDir()}
	cfg := fmt.Sprintf("keycloak:\n  url: %s\n  realm: %s\n  clientId: %s\napp:\n  baseUrl: http://127.0.0.1:%d\n",
		p.BaseURL(), defaults.Keycloak.Realm, defaults.Keycloak.ClientID, freePort(t))
	require.NoError(t, os.WriteFile(filepath.Join(env.configDir, "config.yaml"), []byte(cfg), 0o600))

	storageDir := t.TempDir()
	testAppOptions = []appOption{func(o *appOptions) {
		o.httpClient = p.HTTPClient()
		o.opener = b.open
		o.storageDir = storageDir
	}}
	t.Cleanup(func() { testAppOptions = nil })
	return env
}

// run executes the root command and returns stdout and stderr.
func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	clientsOutput, whoamiOutput, clientsFile = "table", "table", ""
	clientsYes, clientsShowSecrets, checkRetry, quiet, debug = false, false, false, false, false

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append(args, "--config-path", e.configDir))
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestCLISessionLifecycle(t *testing.T) {
	env := setupCLI(t)

	out, _, err := env.run(t, "", "auth", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Not authenticated")

	out, _, err = env.run(t, "", "clients", "list")
	var authRequired *cli.AuthRequiredError
	require.ErrorAs(t, err, &authRequired)
	assert.Equal(t, ExitCodeAuthRequired, getExitCode(err))
	assert.Empty(t, out)

	out, _, err = env.run(t, "", "auth", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as")
	assert.Contains(t, out, "Jane Doe")
	require.Len(t, env.browser.opened, 1)
	assert.Contains(t, env.browser.opened[0], "/protocol/openid-connect/auth")

	// The next invocation resumes the stored session without the browser.
	out, _, err = env.run(t, "", "auth", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Already logged in")
	assert.Len(t, env.browser.opened, 1)

	out, _, err = env.run(t, "", "auth", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Authenticated")
	assert.Contains(t, out, "Jane Doe")

	out, _, err = env.run(t, "", "auth", "whoami", "-o", "json")
	require.NoError(t, err)
	var claims map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &claims))
	assert.Equal(t, "jdoe", claims["preferred_username"])

	_, stderr, err := env.run(t, "", "auth", "refresh")
	require.NoError(t, err, stderr)

	out, _, err = env.run(t, "", "auth", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")
	require.Len(t, env.provider.Logouts(), 1)
	assert.NotEmpty(t, env.provider.Logouts()[0].Get("id_token_hint"))

	_, _, err = env.run(t, "", "clients", "list")
	require.ErrorAs(t, err, &authRequired)
}

func TestCLIClients(t *testing.T) {
	env := setupCLI(t)
	_, _, err := env.run(t, "", "auth", "login")
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "client.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`clientId: ssc-demo
name: Demo
enabled: true
redirectUris:
  - https://demo.example.com/*
`), 0o600))

	out, stderr, err := env.run(t, "", "clients", "create", "-f", file, "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Saving successful!")
	var created keycloak.ClientRecord
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, "id-1", created.ID)
	assert.Equal(t, "ssc-demo", created.ClientID)

	out, _, err = env.run(t, "", "clients", "list", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "clientId: ssc-demo")

	out, _, err = env.run(t, "", "clients", "get", "id-1")
	require.NoError(t, err)
	assert.Contains(t, out, "ssc-demo")
	assert.NotContains(t, out, "generated-secret")

	_, _, err = env.run(t, "", "clients", "get", "missing")
	require.Error(t, err)
	assert.Equal(t, `Network request failed with "Client not found" (Status code 404). For more information see dev console.`, errorMessage(err))

	require.NoError(t, os.WriteFile(file, []byte("clientId: demo\n"), 0o600))
	_, _, err = env.run(t, "", "clients", "create", "-f", file)
	require.ErrorIs(t, err, keycloak.ErrInvalidClient)
	env.api.mu.Lock()
	assert.Len(t, env.api.clients, 1)
	env.api.mu.Unlock()

	out, _, err = env.run(t, "n\n", "clients", "delete", "id-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")
}

func TestCLICheck(t *testing.T) {
	env := setupCLI(t)

	out, _, err := env.run(t, "", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "is reachable")

	env.provider.Stop()
	_, stderr, err := env.run(t, "", "check")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(errorMessage(err), "Network request failed with"), errorMessage(err))
	assert.Contains(t, stderr, "ssc check --retry")
}

func TestCLIURLs(t *testing.T) {
	env := setupCLI(t)

	out, _, err := env.run(t, "", "urls")
	require.NoError(t, err)
	assert.Contains(t, out, env.provider.Issuer())
	assert.Contains(t, out, env.provider.BaseURL()+"/admin/")
	assert.Contains(t, out, "/account/?referrer=")
}

func TestCLIConfigInit(t *testing.T) {
	env := setupCLI(t)
	env.configDir = filepath.Join(t.TempDir(), "fresh")

	out, _, err := env.run(t, "", "config", "init")
	require.NoError(t, err)
	path := filepath.Join(env.configDir, "config.yaml")
	assert.Contains(t, out, path)

	cfg, err := config.LoadConfig(env.configDir)
	require.NoError(t, err)
	assert.Equal(t, config.GetDefaultConfig().Keycloak, cfg.Keycloak)

	_, _, err = env.run(t, "", "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestCLISilentLoginRedirectedToBroker(t *testing.T) {
	env := setupCLI(t)
	env.provider.Handle("/protocol/openid-connect/auth", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://sso.example.net/broker/login", http.StatusFound)
	}))

	_, _, err := env.run(t, "", "clients", "list")
	var authRequired *cli.AuthRequiredError
	require.ErrorAs(t, err, &authRequired)
	assert.Empty(t, env.browser.opened, "a silent login must not open the browser")
}
