package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"ssc/internal/cli"
	"ssc/internal/config"
	"ssc/internal/host"
	"ssc/internal/keycloak"
	"ssc/internal/notify"
	"ssc/internal/oidc"
	"ssc/internal/request"
	"ssc/internal/session"
	"ssc/internal/transport"
	"ssc/pkg/logging"

	"github.com/spf13/cobra"
)

// defaultLoginTimeout bounds how long an interactive login waits for the browser.
const defaultLoginTimeout = 5 * time.Minute

// appOptions replace the parts of the app that talk to the outside world.
type appOptions struct {
	httpClient *http.Client
	opener     func(string) error
	storageDir string
	listenAddr string
}

type appOption func(*appOptions)

// testAppOptions are applied to every app built by a command.
var testAppOptions []appOption

// app wires one command invocation: the session, its host and the API client.
type app struct {
	cfg      config.Config
	notifier notify.Notifier
	host     *host.Terminal
	oidc     *oidc.Client
	session  *session.Manager
	keycloak *keycloak.Client

	stopWatch context.CancelFunc
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return buildApp(cmd.Context(), cfg, cmd.ErrOrStderr(), testAppOptions...)
}

func buildApp(ctx context.Context, cfg config.Config, errOut io.Writer, opts ...appOption) (*app, error) {
	o := appOptions{opener: host.OpenBrowser}
	for _, opt := range opts {
		opt(&o)
	}

	n := notify.NewTerminal(notify.WithWriter(errOut), notify.WithQuiet(quiet))

	storage, err := oidc.NewFileStorage(o.storageDir)
	if err != nil {
		return nil, err
	}

	h := host.NewTerminal(cfg, "/",
		host.WithOpener(o.opener),
		host.WithOutput(errOut),
		host.WithListenAddr(o.listenAddr))

	var oidcOpts []oidc.Option
	transportOpts := []transport.Option{transport.WithUserAgent("ssc/" + GetVersion())}
	if o.httpClient != nil {
		oidcOpts = append(oidcOpts, oidc.WithHTTPClient(o.httpClient))
		transportOpts = append(transportOpts, transport.WithHTTPClient(o.httpClient))
	}

	client, err := session.NewOIDCClient(cfg, storage, h, oidcOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC client: %w", err)
	}
	mgr := session.NewManager(cfg, client, h, n)
	wrapper := request.New(n, request.WithRetryInterval(cfg.Request.RetryInterval))

	a := &app{
		cfg:      cfg,
		notifier: n,
		host:     h,
		oidc:     client,
		session:  mgr,
		keycloak: keycloak.NewClient(cfg, transport.New(transportOpts...), wrapper, mgr),
	}

	watchCtx, cancel := context.WithCancel(ctx)
	a.stopWatch = cancel
	if err := client.WatchStorage(watchCtx); err != nil {
		logging.Warn("CLI", "Logouts by other ssc processes will not be noticed: %v", err)
	}
	return a, nil
}

// Close releases the session and the callback listener.
func (a *app) Close() {
	a.stopWatch()
	a.session.Close()
	a.oidc.Close()
	a.host.Close()
}

// settle loads the session and follows in-app redirects until it is decided.
// A reload requested by the session starts over.
func (a *app) settle(ctx context.Context) error {
	for {
		if err := a.session.Load(ctx); err != nil {
			return err
		}
		for a.session.State() == session.StateUndecided {
			if _, err := a.host.WaitForArrival(ctx); err != nil {
				return err
			}
			if err := a.session.Load(ctx); err != nil {
				return err
			}
		}
		if !a.host.ReloadRequested() {
			return nil
		}
		logging.Debug("CLI", "session requested a reload")
		if a.cfg.IsCallbackLocation(a.host.Location()) {
			a.host.Replace("/")
		}
	}
}

// requireSession settles the session and fails unless a user is logged in.
func (a *app) requireSession(ctx context.Context) error {
	if err := a.settle(ctx); err != nil {
		return err
	}
	if !a.session.Authenticated() {
		return &cli.AuthRequiredError{Issuer: a.cfg.IdPURL()}
	}
	return nil
}

// login runs the interactive login in the browser and waits for the callback.
func (a *app) login(ctx context.Context, out io.Writer, timeout time.Duration) error {
	if err := a.host.Listen(ctx); err != nil {
		return err
	}

	printf(out, "Opening your browser to log in to %s...\n", a.cfg.IdPURL())
	if err := a.session.LoginUser(ctx, true, "/"); err != nil {
		return &cli.AuthFailedError{Issuer: a.cfg.IdPURL(), Reason: err}
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if _, err := a.host.WaitForArrival(waitCtx); err != nil {
		return &cli.AuthFailedError{Issuer: a.cfg.IdPURL(), Reason: fmt.Errorf("no login callback received: %w", err)}
	}
	if err := a.session.Load(ctx); err != nil {
		return &cli.AuthFailedError{Issuer: a.cfg.IdPURL(), Reason: err}
	}
	if !a.session.Authenticated() {
		return &cli.AuthFailedError{Issuer: a.cfg.IdPURL(), Reason: fmt.Errorf("session is %s", a.session.State())}
	}
	return nil
}

// withApp builds the app for cmd, runs fn and closes the app.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}
