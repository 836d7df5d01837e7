package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrNoOrigin is returned when a relative URL is fetched by a client without an origin.
var ErrNoOrigin = errors.New("relative URL requires an origin")

// Client implements ports.Fetcher over net/http.
// Cookies set by the server are kept in a jar and sent only with
// CredentialsInclude requests.
type Client struct {
	origin *url.URL
	jar    http.CookieJar

	withCreds    *http.Client
	withoutCreds *http.Client
}

var _ ports.Fetcher = (*Client)(nil)

type clientOptions struct {
	transport http.RoundTripper
}

// ClientOption configures the Client.
type ClientOption func(*clientOptions)

// WithTransport replaces the base round tripper (default: http.DefaultTransport).
// It is still wrapped for tracing.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(o *clientOptions) {
		if rt != nil {
			o.transport = rt
		}
	}
}

// NewClient creates a Client resolving relative URLs against origin.
// An empty origin only accepts absolute URLs.
func NewClient(origin string, opts ...ClientOption) (*Client, error) {
	o := clientOptions{transport: http.DefaultTransport}
	for _, opt := range opts {
		opt(&o)
	}

	var base *url.URL
	if origin != "" {
		u, err := url.Parse(origin)
		if err != nil {
			return nil, fmt.Errorf("invalid origin %q: %w", origin, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid origin %q: scheme and host are required", origin)
		}
		base = u
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	rt := otelhttp.NewTransport(o.transport)

	return &Client{
		origin:       base,
		jar:          jar,
		withCreds:    &http.Client{Transport: rt, Jar: jar},
		withoutCreds: &http.Client{Transport: rt},
	}, nil
}

// Fetch issues req once. Any status code settles as a Response; only transport
// failures and unreadable bodies are errors.
func (c *Client) Fetch(ctx context.Context, req ports.FetchRequest) (*ports.Response, error) {
	target, err := c.resolve(req.URL)
	if err != nil {
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if req.Form != nil {
		body = strings.NewReader(req.Form.Encode())
	}

	hreq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	hreq.Header.Set("Accept", "application/json")
	if req.Form != nil {
		hreq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	hc := c.withCreds
	if req.Credentials == ports.CredentialsOmit {
		hc = c.withoutCreds
	}
	resp, err := hc.Do(hreq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target.Redacted(), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return &ports.Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (c *Client) resolve(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.IsAbs() {
		return u, nil
	}
	if c.origin == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoOrigin, raw)
	}
	return c.origin.ResolveReference(u), nil
}

// Register creates an account on the backend.
func (c *Client) Register(ctx context.Context, username, password string) (domain.User, error) {
	return c.account(ctx, "/api/register", username, password, http.StatusCreated)
}

// Login opens a session; the token cookie is kept for later CredentialsInclude requests.
func (c *Client) Login(ctx context.Context, username, password string) (domain.User, error) {
	return c.account(ctx, "/api/login", username, password, http.StatusOK)
}

func (c *Client) account(ctx context.Context, path, username, password string, want int) (domain.User, error) {
	resp, err := c.Fetch(ctx, ports.FetchRequest{
		Method:      http.MethodPost,
		URL:         path,
		Form:        url.Values{"username": {username}, "password": {password}},
		Credentials: ports.CredentialsInclude,
	})
	if err != nil {
		return domain.User{}, err
	}
	if resp.StatusCode != want {
		return domain.User{}, APIError(resp)
	}
	var u domain.User
	if err := resp.JSON(&u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// APIError turns an error response of the backend into an error wrapping the
// matching domain sentinel.
func APIError(resp *ports.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(resp.Body))
	if err := json.Unmarshal(resp.Body, &body); err == nil && body.Error != "" {
		msg = body.Error
	}

	var sentinel error
	switch resp.StatusCode {
	case http.StatusNotFound:
		sentinel = domain.ErrNotFound
	case http.StatusBadRequest:
		sentinel = domain.ErrInvalidInput
	case http.StatusUnauthorized:
		sentinel = domain.ErrUnauthorized
	case http.StatusForbidden:
		sentinel = domain.ErrForbidden
	default:
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg)
	}
	return fmt.Errorf("%w (%d): %s", sentinel, resp.StatusCode, msg)
}
