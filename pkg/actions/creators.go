package actions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/aretw0/lattice/pkg/actions"

var (
	// ErrPanicked wraps a panic raised while a creator was running.
	ErrPanicked = errors.New("action creator panicked")

	// ErrNoResponse is reported when a Fetcher returns neither a response nor an error.
	ErrNoResponse = errors.New("transport returned no response")

	// ErrNotCreated is reported when a submission reply does not carry the created entity.
	ErrNotCreated = errors.New("response carries no created entity")
)

type config struct {
	base        string
	credentials ports.CredentialsMode
	tracer      trace.Tracer
	hooks       domain.LifecycleHooks
}

// Option configures an action creator.
type Option func(*config)

// WithBase overrides the URL prefix (default: DefaultBase()).
func WithBase(base string) Option {
	return func(c *config) {
		c.base = base
	}
}

// WithCredentials states whether session cookies go with the request (default: include).
func WithCredentials(mode ports.CredentialsMode) Option {
	return func(c *config) {
		c.credentials = mode
	}
}

// WithTracerProvider sets the provider used for the request span (default: the global one).
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithHooks registers fetch observability hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(c *config) {
		c.hooks = hooks
	}
}

func newConfig(opts []Option) config {
	c := config{
		base:        DefaultBase(),
		credentials: ports.CredentialsInclude,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}
	return c
}

// GetPosts fetches the full list of posts.
// Success dispatches FetchSucceeded(posts); any failure dispatches FetchFailed(posts).
func GetPosts(f ports.Fetcher, opts ...Option) domain.Thunk {
	c := newConfig(opts)
	req := ports.FetchRequest{
		Method:      http.MethodGet,
		URL:         c.base + PathPosts,
		Credentials: c.credentials,
	}
	return c.list(f, domain.DomainPosts, req)
}

// GetComments fetches comments, all of them when postID is nil.
// Success dispatches FetchSucceeded(comments); any failure dispatches FetchFailed(comments).
func GetComments(f ports.Fetcher, postID *int64, opts ...Option) domain.Thunk {
	c := newConfig(opts)
	req := ports.FetchRequest{
		Method:      http.MethodGet,
		URL:         commentsURL(c.base, postID),
		Credentials: c.credentials,
	}
	return c.list(f, domain.DomainComments, req)
}

// PostComment submits a new comment. The server's copy of the created comment is
// appended with ItemAppended(comments); any failure dispatches SubmitFailed(comments).
func PostComment(f ports.Fetcher, draft domain.CommentDraft, opts ...Option) domain.Thunk {
	c := newConfig(opts)
	req := ports.FetchRequest{
		Method: http.MethodPost,
		URL:    c.base + PathComments,
		Form: url.Values{
			"body":      {draft.Body},
			"post_id":   {strconv.FormatInt(draft.PostID, 10)},
			"author_id": {strconv.FormatInt(draft.AuthorID, 10)},
		},
		Credentials: c.credentials,
	}
	d := domain.DomainComments
	return func(ctx context.Context, dispatch domain.DispatchFunc) {
		c.settle(ctx, f, d, req, dispatch,
			func(resp *ports.Response) (domain.Action, error) {
				var item domain.Entity
				if err := resp.JSON(&item); err != nil {
					return nil, err
				}
				if item.ID() == "" {
					return nil, rejected(resp, item)
				}
				return domain.ItemAppended(d, item), nil
			},
			func(err error) domain.Action { return domain.SubmitFailed(d, err) },
		)
	}
}

// ClearError returns the descriptor that resets the error of d.
func ClearError(d domain.Domain) domain.Action {
	return domain.ErrorCleared(d)
}

func (c config) list(f ports.Fetcher, d domain.Domain, req ports.FetchRequest) domain.Thunk {
	return func(ctx context.Context, dispatch domain.DispatchFunc) {
		c.settle(ctx, f, d, req, dispatch,
			func(resp *ports.Response) (domain.Action, error) {
				items, err := domain.DecodeEntities(resp.Body)
				if err != nil {
					return nil, err
				}
				return domain.FetchSucceeded(d, items), nil
			},
			func(err error) domain.Action { return domain.FetchFailed(d, err) },
		)
	}
}

// settle issues req once and dispatches exactly one action: onOK's result, or
// onErr's when the request, the decode step or onOK itself fails.
func (c config) settle(
	ctx context.Context,
	f ports.Fetcher,
	d domain.Domain,
	req ports.FetchRequest,
	dispatch domain.DispatchFunc,
	onOK func(*ports.Response) (domain.Action, error),
	onErr func(error) domain.Action,
) {
	ctx, span := c.tracer.Start(ctx, "lattice.fetch "+string(d),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("lattice.domain", string(d)),
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", req.URL),
			attribute.String("lattice.credentials", req.Credentials.String()),
		),
	)
	defer span.End()

	event := &domain.FetchEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventFetchStart},
		Domain:    d,
		Method:    req.Method,
		Path:      req.URL,
	}
	if c.hooks.OnFetchStart != nil {
		c.hooks.OnFetchStart(ctx, event)
	}
	start := time.Now()

	action, err := attempt(ctx, f, req, onOK)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		action = onErr(err)
	}

	if c.hooks.OnFetchSettle != nil {
		c.hooks.OnFetchSettle(ctx, &domain.FetchEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventFetchSettle},
			Domain:    d,
			Method:    req.Method,
			Path:      req.URL,
			Duration:  time.Since(start),
			Err:       err,
		})
	}

	span.SetAttributes(attribute.String("lattice.action", string(action.Kind())))
	if derr := dispatch(ctx, action); derr != nil {
		span.RecordError(derr)
	}
}

// rejected builds the failure for a reply that decoded but holds no entity,
// keeping the server's {"error": ...} message when there is one.
func rejected(resp *ports.Response, body domain.Entity) error {
	if msg, ok := body["error"].(string); ok && msg != "" {
		return fmt.Errorf("%w: status %d: %s", ErrNotCreated, resp.StatusCode, msg)
	}
	return fmt.Errorf("%w: status %d", ErrNotCreated, resp.StatusCode)
}

func attempt(
	ctx context.Context,
	f ports.Fetcher,
	req ports.FetchRequest,
	onOK func(*ports.Response) (domain.Action, error),
) (action domain.Action, err error) {
	defer func() {
		if r := recover(); r != nil {
			action, err = nil, fmt.Errorf("%w: %v", ErrPanicked, r)
		}
	}()

	resp, err := f.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, ErrNoResponse
	}
	return onOK(resp)
}
