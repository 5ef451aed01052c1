package keycloak

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"ssc/internal/config"
	"ssc/internal/request"
	"ssc/internal/transport"
	"ssc/pkg/logging"

	"golang.org/x/sync/errgroup"
)

// resolveConcurrency bounds parallel requests in ResolveClients.
const resolveConcurrency = 4

// Session supplies the bearer token. AccessToken is read at request time,
// after Preflight made sure it is valid.
type Session interface {
	AccessToken() string
	Preflight(ctx context.Context) error
}

// Client is the self-service clients REST API of one realm.
type Client struct {
	cfg     config.Config
	doer    transport.Doer
	wrapper *request.Wrapper
	session Session
}

// NewClient creates a Client. Every call goes through wrapper with the
// session's preflight.
func NewClient(cfg config.Config, doer transport.Doer, wrapper *request.Wrapper, session Session) *Client {
	return &Client{cfg: cfg, doer: doer, wrapper: wrapper, session: session}
}

// TestConnection fetches the realm's discovery document. Without retry it is
// a single unauthenticated attempt. With retry it goes through the wrapper
// without a token preflight, since checking tokens may itself need the
// connection being tested.
func (c *Client) TestConnection(ctx context.Context, retry bool) error {
	call := func(ctx context.Context) (*transport.Response, error) {
		return c.doer.Do(ctx, transport.Request{
			Method:  http.MethodGet,
			URL:     c.cfg.IdPURL() + "/.well-known/openid-configuration",
			Timeout: c.cfg.Request.Timeout,
		})
	}
	var err error
	if retry {
		_, err = c.wrapper.Do(ctx, call, request.NoPreflight)
	} else {
		_, err = call(ctx)
	}
	return err
}

func (c *Client) clientURL(id string) string {
	return c.cfg.ClientsURL() + "/" + url.PathEscape(id)
}

func (c *Client) authorized(method, target string, body any) request.Call {
	return func(ctx context.Context) (*transport.Response, error) {
		header := http.Header{}
		header.Set("Authorization", "Bearer "+c.session.AccessToken())
		return c.doer.Do(ctx, transport.Request{
			Method:  method,
			URL:     target,
			Header:  header,
			Body:    body,
			Timeout: c.cfg.Request.Timeout,
		})
	}
}

func (c *Client) do(ctx context.Context, method, target string, body any) (*transport.Response, error) {
	return c.wrapper.Do(ctx, c.authorized(method, target, body), c.session.Preflight)
}

// GetClients lists the clients the user manages.
func (c *Client) GetClients(ctx context.Context) ([]ClientRecord, error) {
	resp, err := c.do(ctx, http.MethodGet, c.cfg.ClientsURL(), nil)
	if err != nil {
		return nil, err
	}
	var out []ClientRecord
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetClient fetches one client by its internal id.
func (c *Client) GetClient(ctx context.Context, id string) (*ClientRecord, error) {
	resp, err := c.do(ctx, http.MethodGet, c.clientURL(id), nil)
	if err != nil {
		return nil, err
	}
	var out ClientRecord
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateClient validates w and creates it.
func (c *Client) CreateClient(ctx context.Context, w WritableClient) (*ClientRecord, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodPost, c.cfg.ClientsURL(), w.Cleaned())
	if err != nil {
		return nil, err
	}
	var out ClientRecord
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, err
	}
	logging.Info("Keycloak", "Created client %s (%s)", out.ClientID, out.ID)
	return &out, nil
}

// UpdateClient replaces the writable fields of client id. The clientId
// itself cannot change.
func (c *Client) UpdateClient(ctx context.Context, id string, w WritableClient) error {
	if err := w.Validate(); err != nil {
		return err
	}
	current, err := c.GetClient(ctx, id)
	if err != nil {
		return err
	}
	if current.ClientID != w.ClientID {
		return fmt.Errorf("%w: %q would become %q", ErrClientIDImmutable, current.ClientID, w.ClientID)
	}
	if _, err := c.do(ctx, http.MethodPut, c.clientURL(id), w.Cleaned()); err != nil {
		return err
	}
	logging.Info("Keycloak", "Updated client %s", id)
	return nil
}

// RegenerateSecret issues a new client secret and returns the updated client.
func (c *Client) RegenerateSecret(ctx context.Context, id string) (*ClientRecord, error) {
	resp, err := c.do(ctx, http.MethodPost, c.clientURL(id)+"/secret/regenerate", struct{}{})
	if err != nil {
		return nil, err
	}
	var out ClientRecord
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, err
	}
	logging.Info("Keycloak", "Regenerated secret of client %s", id)
	return &out, nil
}

// DeleteClient removes client id.
func (c *Client) DeleteClient(ctx context.Context, id string) error {
	if _, err := c.do(ctx, http.MethodDelete, c.clientURL(id), nil); err != nil {
		return err
	}
	logging.Info("Keycloak", "Deleted client %s", id)
	return nil
}

// ResolveClients fetches several clients in parallel and returns them in the
// order of ids. The first failure cancels the rest.
func (c *Client) ResolveClients(ctx context.Context, ids []string) ([]ClientRecord, error) {
	out := make([]ClientRecord, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			rec, err := c.GetClient(gctx, id)
			if err != nil {
				return fmt.Errorf("client %s: %w", id, err)
			}
			out[i] = *rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
