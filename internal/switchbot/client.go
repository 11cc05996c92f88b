package switchbot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the API v1.1 root.
	DefaultBaseURL = "https://api.switch-bot.com/v1.1"

	// DefaultCallTimeout bounds a single HTTP exchange.
	DefaultCallTimeout = 10 * time.Second

	// maxResponseSize caps how much of a response body is read.
	maxResponseSize = 4 << 20
)

var (
	// errCredentialsRequired is returned when token, secret or nonce is missing.
	errCredentialsRequired = errors.New("switchbot: token, secret and nonce must be provided")
	// errEmptyName is returned when a lookup is attempted with an empty name.
	errEmptyName = errors.New("switchbot: name must not be empty")
)

// Client calls the SwitchBot API. It is safe for concurrent use.
type Client struct {
	// baseURL is the API root without trailing slash.
	baseURL string
	// token, secret and nonce are the signing credentials.
	token  string
	secret string
	nonce  string

	// httpClient performs the requests.
	httpClient *http.Client
	// callTimeout bounds each request, zero disables the bound.
	callTimeout time.Duration
	// now supplies the signing timestamp.
	now func() time.Time
}

// Option configures client behaviour.
type Option func(*Client)

// WithBaseURL overrides the API root.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithCallTimeout sets the per-request timeout.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithClock replaces the time source used for signing.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a client for the given credentials.
func New(token, secret, nonce string, opts ...Option) (*Client, error) {
	if token == "" || secret == "" || nonce == "" {
		return nil, errCredentialsRequired
	}

	client := &Client{
		baseURL:     DefaultBaseURL,
		token:       token,
		secret:      secret,
		nonce:       nonce,
		httpClient:  &http.Client{},
		callTimeout: DefaultCallTimeout,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// do performs one signed request and decodes the envelope body into out.
// out may be nil when the body is not needed.
//
//nolint:cyclop // Each failure mode maps to its own RemoteAPIError.
func (c *Client) do(ctx context.Context, op, method, path string, out any) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, method, c.baseURL+path, http.NoBody)
	if err != nil {
		return &RemoteAPIError{Op: op, Err: err}
	}

	// A fresh signature per request, never shared between calls.
	NewAuthContext(c.token, c.secret, c.nonce, c.now()).Apply(req.Header)

	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RemoteAPIError{Op: op, Err: err}
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &RemoteAPIError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return &RemoteAPIError{Op: op, StatusCode: resp.StatusCode, Err: ErrUnexpectedStatus}
	}

	var env envelope
	if err = json.Unmarshal(payload, &env); err != nil {
		return &RemoteAPIError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	if env.StatusCode != statusSuccess {
		return &RemoteAPIError{
			Op:         op,
			StatusCode: resp.StatusCode,
			APIStatus:  env.StatusCode,
			Err:        fmt.Errorf("%w: %s", ErrAPIStatus, env.Message),
		}
	}

	if out == nil || len(env.Body) == 0 {
		return nil
	}

	if err = json.Unmarshal(env.Body, out); err != nil {
		return &RemoteAPIError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode body: %w", err)}
	}

	return nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
