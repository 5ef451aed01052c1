package host

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"ssc/internal/config"
	"ssc/pkg/logging"
)

// ErrHashRouting is returned by Listen in hash router mode: browsers never
// send the fragment, so the callback cannot be received over HTTP.
var ErrHashRouting = errors.New("hash routing cannot receive redirects on a loopback listener, use history mode")

const callbackPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>ssc</title>
<style>body{font-family:sans-serif;margin:4em;color:#333}h1{font-size:1.4em}</style></head>
<body>
{{if .Error}}<h1>Login failed</h1><p>{{.Error}}{{if .Description}}: {{.Description}}{{end}}</p>
{{else}}<h1>Login complete</h1>{{end}}
<p>You can close this window and return to the terminal.</p>
</body>
</html>
`

var callbackTemplate = template.Must(template.New("callback").Parse(callbackPage))

// Terminal hosts a session in a CLI process. It keeps the current location in
// memory, opens external URLs in the system browser and receives redirects
// back to the app on a loopback listener.
type Terminal struct {
	cfg        config.Config
	opener     func(string) error
	out        io.Writer
	listenAddr string

	mu       sync.Mutex
	location string
	reload   bool
	arrivals chan string
	server   *http.Server
	listener net.Listener
}

// Option configures a Terminal.
type Option func(*Terminal)

// WithOpener replaces OpenBrowser.
func WithOpener(open func(string) error) Option {
	return func(t *Terminal) { t.opener = open }
}

// WithOutput sets where URLs are printed when no browser can be opened.
func WithOutput(w io.Writer) Option {
	return func(t *Terminal) { t.out = w }
}

// WithListenAddr overrides the listen address derived from the app base URL.
func WithListenAddr(addr string) Option {
	return func(t *Terminal) { t.listenAddr = addr }
}

// NewTerminal creates a Terminal whose location is the app path startPath.
func NewTerminal(cfg config.Config, startPath string, opts ...Option) *Terminal {
	t := &Terminal{
		cfg:      cfg,
		opener:   OpenBrowser,
		out:      os.Stderr,
		location: cfg.GenerateRedirectURI(startPath),
		arrivals: make(chan string, 1),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Location returns the current location.
func (t *Terminal) Location() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.location
}

// Replace moves to an in-app path.
func (t *Terminal) Replace(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.location = t.cfg.GenerateRedirectURI(path)
	logging.Debug("Host", "replaced location with %s", path)
}

// Reload asks the command loop to start the session over.
func (t *Terminal) Reload() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reload = true
}

// ReloadRequested reports and clears a pending Reload.
func (t *Terminal) ReloadRequested() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.reload
	t.reload = false
	return r
}

// Navigate follows a redirect. URLs inside the app become arrivals, anything
// else is opened in the browser.
func (t *Terminal) Navigate(_ context.Context, target string) error {
	if t.isAppURL(target) {
		t.arrive(target)
		return nil
	}

	logging.Debug("Host", "opening browser")
	if err := t.opener(target); err != nil {
		logging.Warn("Host", "Could not open a browser: %v", err)
		fmt.Fprintf(t.out, "Open this URL in your browser to continue:\n\n  %s\n\n", target)
	}
	return nil
}

func (t *Terminal) isAppURL(target string) bool {
	base := strings.TrimRight(t.cfg.App.BaseURL, "/")
	return target == base || strings.HasPrefix(target, base+"/")
}

func (t *Terminal) arrive(location string) {
	t.mu.Lock()
	t.location = location
	t.mu.Unlock()

	// Only the latest arrival matters.
	select {
	case <-t.arrivals:
	default:
	}
	t.arrivals <- location
}

// WaitForArrival blocks until the user agent arrives back in the app.
func (t *Terminal) WaitForArrival(ctx context.Context) (string, error) {
	select {
	case loc := <-t.arrivals:
		return loc, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Listen serves the redirect URI until ctx is done or Close is called.
func (t *Terminal) Listen(ctx context.Context) error {
	if t.cfg.App.RouterMode == config.RouterModeHash {
		return ErrHashRouting
	}
	base, err := url.Parse(t.cfg.App.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid app base URL: %w", err)
	}

	addr := t.listenAddr
	if addr == "" {
		port := base.Port()
		if port == "" {
			port = "80"
		}
		addr = net.JoinHostPort("127.0.0.1", port)
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start callback listener on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(strings.TrimRight(base.Path, "/")+t.cfg.App.CallbackPath, t.handleCallback)
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	t.mu.Lock()
	t.server, t.listener = server, listener
	t.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Host", err, "Callback listener stopped")
		}
	}()
	go func() {
		<-ctx.Done()
		t.Close()
	}()

	logging.Debug("Host", "listening for callbacks on %s", listener.Addr())
	return nil
}

// Addr returns the listener address, or "" before Listen.
func (t *Terminal) Addr() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener == nil {
		return ""
	}
	return t.listener.Addr().String()
}

func (t *Terminal) handleCallback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'unsafe-inline'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	query := r.URL.Query()
	data := map[string]string{
		"Error":       query.Get("error"),
		"Description": query.Get("error_description"),
	}
	if err := callbackTemplate.Execute(w, data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}

	t.arrive(strings.TrimRight(t.cfg.App.BaseURL, "/") + strings.TrimPrefix(r.URL.RequestURI(), t.basePath()))
}

func (t *Terminal) basePath() string {
	base, err := url.Parse(t.cfg.App.BaseURL)
	if err != nil {
		return ""
	}
	return strings.TrimRight(base.Path, "/")
}

// Close stops the listener.
func (t *Terminal) Close() {
	t.mu.Lock()
	server, listener := t.server, t.listener
	t.server, t.listener = nil, nil
	t.mu.Unlock()

	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
	if listener != nil {
		_ = listener.Close()
	}
}
