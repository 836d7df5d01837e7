package lattice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/internal/runtime"
	"github.com/aretw0/lattice/pkg/actions"
	httpadapter "github.com/aretw0/lattice/pkg/adapters/http"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"go.opentelemetry.io/otel/trace"
)

// Listener is notified after every state transition.
type Listener = runtime.Listener

// Client is the high-level entry point: a store wired to a transport and the
// standard action creators.
type Client struct {
	store   *runtime.Store
	fetcher ports.Fetcher

	origin      string
	base        *string
	credentials ports.CredentialsMode
	tracer      trace.TracerProvider
	initial     *domain.Snapshot
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
}

// Option defines a functional option for configuring the Client.
type Option func(*Client)

// WithFetcher injects the transport. By default an HTTP client is built for the origin.
func WithFetcher(f ports.Fetcher) Option {
	return func(c *Client) {
		c.fetcher = f
	}
}

// WithOrigin sets the scheme://host relative endpoint URLs resolve against.
func WithOrigin(origin string) Option {
	return func(c *Client) {
		c.origin = origin
	}
}

// WithBase overrides the endpoint prefix chosen by the build's debug switch.
func WithBase(base string) Option {
	return func(c *Client) {
		c.base = &base
	}
}

// WithCredentials states whether requests carry the session cookie (default: include).
func WithCredentials(mode ports.CredentialsMode) Option {
	return func(c *Client) {
		c.credentials = mode
	}
}

// WithTracerProvider sets the provider for fetch spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracer = tp
	}
}

// WithInitialState starts the store from s instead of the empty snapshot.
func WithInitialState(s *domain.Snapshot) Option {
	return func(c *Client) {
		c.initial = s
	}
}

// WithLifecycleHooks registers observability hooks for dispatches and fetches.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Client) {
		c.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client.
func New(opts ...Option) (*Client, error) {
	c := &Client{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}

	if c.fetcher == nil {
		hc, err := httpadapter.NewClient(c.origin)
		if err != nil {
			return nil, fmt.Errorf("failed to create transport: %w", err)
		}
		c.fetcher = hc
	}

	c.store = runtime.NewStore(c.initial,
		runtime.WithLogger(c.logger),
		runtime.WithLifecycleHooks(c.hooks),
	)
	return c, nil
}

func (c *Client) actionOptions() []actions.Option {
	opts := []actions.Option{
		actions.WithCredentials(c.credentials),
		actions.WithHooks(c.hooks),
	}
	if c.base != nil {
		opts = append(opts, actions.WithBase(*c.base))
	}
	if c.tracer != nil {
		opts = append(opts, actions.WithTracerProvider(c.tracer))
	}
	return opts
}

// State returns the current snapshot. Treat it as read-only.
func (c *Client) State() *domain.Snapshot {
	return c.store.GetState()
}

// Subscribe registers fn and returns its unsubscribe function.
func (c *Client) Subscribe(fn Listener) func() {
	return c.store.Subscribe(fn)
}

// Dispatch forwards an Action or Thunk to the store.
func (c *Client) Dispatch(ctx context.Context, d domain.Dispatchable) error {
	return c.store.Dispatch(ctx, d)
}

// FetchPosts starts loading the posts. It returns once the request is under way.
func (c *Client) FetchPosts(ctx context.Context) error {
	return c.store.Dispatch(ctx, actions.GetPosts(c.fetcher, c.actionOptions()...))
}

// FetchComments starts loading comments, optionally for a single post.
func (c *Client) FetchComments(ctx context.Context, postID *int64) error {
	return c.store.Dispatch(ctx, actions.GetComments(c.fetcher, postID, c.actionOptions()...))
}

// SubmitComment starts posting a comment; on success the server's copy is appended.
func (c *Client) SubmitComment(ctx context.Context, draft domain.CommentDraft) error {
	return c.store.Dispatch(ctx, actions.PostComment(c.fetcher, draft, c.actionOptions()...))
}

// ClearError resets the error of one slice.
func (c *Client) ClearError(ctx context.Context, d domain.Domain) error {
	return c.store.Dispatch(ctx, actions.ClearError(d))
}

// Wait blocks until every operation started so far has settled.
func (c *Client) Wait() {
	c.store.Wait()
}

// Fetcher returns the transport used by the action creators.
func (c *Client) Fetcher() ports.Fetcher {
	return c.fetcher
}
