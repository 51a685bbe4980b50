// Package api implements the HTTP core for the Carmot dashboard backend:
// base configuration, bearer credential attachment, and the 401
// refresh-and-retry protocol. Every service wrapper in this module goes
// through a single *Client; the client is the only component that reads or
// writes the persisted credential.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	defaultTimeout = 10 * time.Second
	refreshPath    = "/auth/refresh"
)

// Config holds client construction parameters.
type Config struct {
	// BaseURL is the backend root, e.g. "http://127.0.0.1:8000/api".
	BaseURL string
	// Credentials persists the bearer credential. Required.
	Credentials CredentialStore
	// HTTPClient overrides the underlying transport. Optional.
	HTTPClient *http.Client
	// Logger receives diagnostic events. Optional.
	Logger *zerolog.Logger
	// Metrics instruments the client. Optional.
	Metrics *Metrics
	// OnSessionInvalid runs after a failed refresh has cleared the
	// credential. The SPA equivalent is the forced navigation to /login.
	OnSessionInvalid func()
}

// Client dispatches requests against the backend.
type Client struct {
	baseURL          string
	httpc            *http.Client
	creds            CredentialStore
	log              zerolog.Logger
	metrics          *Metrics
	refreshGroup     singleflight.Group
	onSessionInvalid func()
}

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("api.New: BaseURL is required")
	}
	if cfg.Credentials == nil {
		return nil, errors.New("api.New: Credentials store is required")
	}
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: defaultTimeout}
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Client{
		baseURL:          strings.TrimSuffix(cfg.BaseURL, "/"),
		httpc:            httpc,
		creds:            cfg.Credentials,
		log:              logger,
		metrics:          cfg.Metrics,
		onSessionInvalid: cfg.OnSessionInvalid,
	}, nil
}

// Credentials exposes the credential store. Session bookkeeping needs to
// know whether a credential is persisted without issuing a request.
func (c *Client) Credentials() CredentialStore { return c.creds }

// Get issues a GET and returns the decoded envelope.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Envelope, error) {
	return c.send(ctx, http.MethodGet, path, query, nil)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.send(ctx, http.MethodPost, path, nil, body)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.send(ctx, http.MethodPut, path, nil, body)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) (*Envelope, error) {
	return c.send(ctx, http.MethodDelete, path, nil, nil)
}

// PostRaw issues a POST and returns the raw response body. Used for binary
// endpoints such as the dashboard PDF export.
func (c *Client) PostRaw(ctx context.Context, path string, body any) ([]byte, error) {
	resp, err := c.dispatch(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return nil, err
	}
	return resp.body, nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any) (*Envelope, error) {
	resp, err := c.dispatch(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}
	env := parseEnvelope(resp.body)
	if env == nil {
		env = &Envelope{}
	}
	return env, nil
}

type response struct {
	status int
	header http.Header
	body   []byte
}

// dispatch runs the full request lifecycle. A 401 on a first attempt
// triggers one coalesced refresh followed by at most one resend; a 401 on
// the resend is surfaced as a final auth failure.
func (c *Client) dispatch(ctx context.Context, method, path string, query url.Values, body any) (*response, error) {
	usedToken := c.currentAccessToken()

	resp, err := c.roundTrip(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusUnauthorized && usedToken != "" {
		// Another request may have finished a refresh while this one was in
		// flight; only refresh when the failing credential is still current.
		if c.currentAccessToken() == usedToken {
			if refreshErr := c.refresh(ctx); refreshErr != nil {
				return nil, c.invalidateSession(refreshErr)
			}
		}
		resp, err = c.roundTrip(ctx, method, path, query, body)
		if err != nil {
			return nil, err
		}
	}
	return c.classify(method, path, resp)
}

// roundTrip performs a single HTTP exchange: build, authorize, send, read.
// The bearer, when one is persisted, is always attached; the refresh
// endpoint itself authenticates with the expiring credential.
func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body any) (*response, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindDecode, err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok, err := c.creds.Load(); err == nil && tok != nil {
		req.Header.Set("Authorization", bearerValue(tok))
	}

	c.metrics.requestStarted()
	defer c.metrics.requestFinished()

	c.log.Debug().Str("method", method).Str("path", path).Msg("api request")
	httpResp, err := c.httpc.Do(req)
	if err != nil {
		c.metrics.observeRequest(method, 0)
		c.log.Error().Err(err).Str("method", method).Str("path", path).Msg("api network failure")
		return nil, networkError(err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		c.metrics.observeRequest(method, 0)
		return nil, networkError(err)
	}
	c.metrics.observeRequest(method, httpResp.StatusCode)
	return &response{status: httpResp.StatusCode, header: httpResp.Header, body: data}, nil
}

// classify turns non-2xx responses into typed errors. Statuses other than
// 401 pass through unmodified apart from diagnostic logging.
func (c *Client) classify(method, path string, resp *response) (*response, error) {
	if resp.status < 400 {
		return resp, nil
	}
	apiErr := statusError(resp.status, parseEnvelope(resp.body))
	event := c.log.Warn()
	if apiErr.Kind == KindServer {
		event = c.log.Error()
	}
	event.Str("method", method).Str("path", path).
		Int("status", resp.status).Str("kind", apiErr.Kind.String()).
		Msg("api error response")
	return nil, apiErr
}

// Refresh exchanges the current credential for a new one. Concurrent
// callers coalesce onto a single in-flight exchange; every caller observes
// that exchange's outcome.
func (c *Client) Refresh(ctx context.Context) error {
	_, err, shared := c.refreshGroup.Do("refresh", func() (any, error) {
		return nil, c.performRefresh(ctx)
	})
	if shared {
		c.metrics.observeCoalesced()
	}
	return err
}

func (c *Client) refresh(ctx context.Context) error {
	return c.Refresh(ctx)
}

func (c *Client) performRefresh(ctx context.Context) error {
	c.metrics.observeRefresh()

	current, err := c.creds.Load()
	if err != nil || current == nil {
		return ErrSessionInvalid
	}

	resp, err := c.roundTrip(ctx, http.MethodPost, refreshPath, nil, nil)
	if err != nil {
		return err
	}
	if resp.status != http.StatusOK {
		return statusError(resp.status, parseEnvelope(resp.body))
	}

	env := parseEnvelope(resp.body)
	if env == nil {
		return ErrSessionInvalid
	}
	var payload struct {
		Token       string `json:"token"`
		AccessToken string `json:"access_token"`
	}
	if err := env.Decode(&payload); err != nil {
		return err
	}
	newToken := payload.Token
	if newToken == "" {
		newToken = payload.AccessToken
	}
	if newToken == "" {
		return ErrSessionInvalid
	}

	tokenType := current.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	if err := c.creds.Store(&oauth2.Token{AccessToken: newToken, TokenType: tokenType}); err != nil {
		return err
	}
	c.log.Info().Msg("credential refreshed")
	return nil
}

// invalidateSession clears the credential and notifies the host that the
// session can no longer be recovered.
func (c *Client) invalidateSession(cause error) error {
	if err := c.creds.Clear(); err != nil {
		c.log.Warn().Err(err).Msg("clearing credential after failed refresh")
	}
	c.log.Warn().Err(cause).Msg("session invalidated")
	if c.onSessionInvalid != nil {
		c.onSessionInvalid()
	}
	return &Error{Kind: KindAuth, Status: http.StatusUnauthorized, err: ErrSessionInvalid}
}

func (c *Client) currentAccessToken() string {
	tok, err := c.creds.Load()
	if err != nil || tok == nil {
		return ""
	}
	return tok.AccessToken
}

func bearerValue(tok *oauth2.Token) string {
	tokenType := tok.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return tokenType + " " + tok.AccessToken
}
