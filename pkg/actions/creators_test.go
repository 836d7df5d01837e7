package actions_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aretw0/lattice/pkg/actions"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type recorder struct {
	actions  []domain.Action
	requests []ports.FetchRequest
}

func (r *recorder) dispatch(ctx context.Context, d domain.Dispatchable) error {
	a, ok := d.(domain.Action)
	if !ok {
		return errors.New("creators must dispatch plain actions")
	}
	r.actions = append(r.actions, a)
	return nil
}

func (r *recorder) reply(status int, body string) ports.Fetcher {
	return ports.FetcherFunc(func(ctx context.Context, req ports.FetchRequest) (*ports.Response, error) {
		r.requests = append(r.requests, req)
		return &ports.Response{StatusCode: status, Body: []byte(body)}, nil
	})
}

func (r *recorder) fail(err error) ports.Fetcher {
	return ports.FetcherFunc(func(ctx context.Context, req ports.FetchRequest) (*ports.Response, error) {
		r.requests = append(r.requests, req)
		return nil, err
	})
}

func TestGetPosts_Success(t *testing.T) {
	rec := &recorder{}
	thunk := actions.GetPosts(rec.reply(http.StatusOK, `[{"id":1,"title":"a"},{"id":2,"title":"b"}]`),
		actions.WithBase("http://api.test"))

	thunk(context.Background(), rec.dispatch)

	require.Len(t, rec.requests, 1, "exactly one request")
	req := rec.requests[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "http://api.test/api/post", req.URL)
	assert.Equal(t, ports.CredentialsInclude, req.Credentials)

	require.Len(t, rec.actions, 1, "exactly one dispatch")
	ok, isOK := rec.actions[0].(domain.FetchOK)
	require.True(t, isOK)
	assert.Equal(t, domain.DomainPosts, ok.Domain)
	require.Len(t, ok.Items, 2)
	assert.Equal(t, json.Number("1"), ok.Items[0]["id"])
	assert.Equal(t, "b", ok.Items[1]["title"])
}

func TestGetPosts_EmptyBody(t *testing.T) {
	rec := &recorder{}
	actions.GetPosts(rec.reply(http.StatusOK, `[]`))(context.Background(), rec.dispatch)

	require.Len(t, rec.actions, 1)
	ok := rec.actions[0].(domain.FetchOK)
	assert.NotNil(t, ok.Items)
	assert.Empty(t, ok.Items)
}

func TestGetPosts_TransportFailure(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("connection refused")
	actions.GetPosts(rec.fail(boom))(context.Background(), rec.dispatch)

	require.Len(t, rec.actions, 1)
	fail, ok := rec.actions[0].(domain.FetchErr)
	require.True(t, ok)
	assert.Equal(t, domain.DomainPosts, fail.Domain)
	assert.ErrorIs(t, fail.Err, boom)
}

func TestGetPosts_DecodeFailure(t *testing.T) {
	rec := &recorder{}
	actions.GetPosts(rec.reply(http.StatusOK, `<html>oops</html>`))(context.Background(), rec.dispatch)

	require.Len(t, rec.actions, 1)
	assert.Equal(t, domain.KindFetchErr, rec.actions[0].Kind())
}

func TestGetPosts_StatusIsNotInspected(t *testing.T) {
	rec := &recorder{}
	actions.GetPosts(rec.reply(http.StatusInternalServerError, `[{"id":3}]`))(context.Background(), rec.dispatch)

	require.Len(t, rec.actions, 1)
	assert.Equal(t, domain.KindFetchOK, rec.actions[0].Kind(), "a decodable body is success whatever the status")

	rec = &recorder{}
	actions.GetPosts(rec.reply(http.StatusNotFound, `{"error":"not found"}`))(context.Background(), rec.dispatch)
	require.Len(t, rec.actions, 1)
	assert.Equal(t, domain.KindFetchErr, rec.actions[0].Kind())
}

func TestGetPosts_NilResponse(t *testing.T) {
	rec := &recorder{}
	f := ports.FetcherFunc(func(context.Context, ports.FetchRequest) (*ports.Response, error) {
		return nil, nil
	})
	actions.GetPosts(f)(context.Background(), rec.dispatch)

	require.Len(t, rec.actions, 1)
	assert.ErrorIs(t, rec.actions[0].(domain.FetchErr).Err, actions.ErrNoResponse)
}

func TestGetPosts_PanicBecomesFailure(t *testing.T) {
	rec := &recorder{}
	f := ports.FetcherFunc(func(context.Context, ports.FetchRequest) (*ports.Response, error) {
		panic("transport exploded")
	})

	require.NotPanics(t, func() {
		actions.GetPosts(f)(context.Background(), rec.dispatch)
	})
	require.Len(t, rec.actions, 1)
	fail := rec.actions[0].(domain.FetchErr)
	assert.ErrorIs(t, fail.Err, actions.ErrPanicked)
	assert.Contains(t, fail.Err.Error(), "transport exploded")
}

func TestGetComments_URL(t *testing.T) {
	rec := &recorder{}
	actions.GetComments(rec.reply(http.StatusOK, `[]`), nil, actions.WithBase(""))(context.Background(), rec.dispatch)

	id := int64(7)
	actions.GetComments(rec.reply(http.StatusOK, `[]`), &id, actions.WithBase(""))(context.Background(), rec.dispatch)

	require.Len(t, rec.requests, 2)
	assert.Equal(t, "/api/comment", rec.requests[0].URL)
	assert.Equal(t, "/api/comment?post_id=7", rec.requests[1].URL)

	require.Len(t, rec.actions, 2)
	for _, a := range rec.actions {
		assert.Equal(t, domain.DomainComments, a.Target())
		assert.Equal(t, domain.KindFetchOK, a.Kind())
	}
}

func TestGetComments_Failure(t *testing.T) {
	rec := &recorder{}
	actions.GetComments(rec.fail(errors.New("down")), nil)(context.Background(), rec.dispatch)

	require.Len(t, rec.actions, 1)
	assert.Equal(t, domain.KindFetchErr, rec.actions[0].Kind())
	assert.Equal(t, domain.DomainComments, rec.actions[0].Target())
}

func TestPostComment(t *testing.T) {
	rec := &recorder{}
	draft := domain.CommentDraft{Body: "hello", PostID: 4, AuthorID: 2}
	f := rec.reply(http.StatusCreated, `{"id":11,"post_id":4,"author_id":2,"body":"hello","username":"ann"}`)

	actions.PostComment(f, draft, actions.WithBase(""), actions.WithCredentials(ports.CredentialsOmit))(context.Background(), rec.dispatch)

	require.Len(t, rec.requests, 1)
	req := rec.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/comment", req.URL)
	assert.Equal(t, ports.CredentialsOmit, req.Credentials)
	assert.Equal(t, "hello", req.Form.Get("body"))
	assert.Equal(t, "4", req.Form.Get("post_id"))
	assert.Equal(t, "2", req.Form.Get("author_id"))

	require.Len(t, rec.actions, 1)
	app, ok := rec.actions[0].(domain.Append)
	require.True(t, ok)
	assert.Equal(t, domain.DomainComments, app.Domain)
	assert.Equal(t, "11", app.Item.ID())
	assert.Equal(t, "ann", app.Item["username"])
}

func TestPostComment_FailureIsSubmitError(t *testing.T) {
	rec := &recorder{}
	actions.PostComment(rec.fail(errors.New("offline")), domain.CommentDraft{Body: "x", PostID: 1})(context.Background(), rec.dispatch)

	require.Len(t, rec.actions, 1)
	fail, ok := rec.actions[0].(domain.SubmitErr)
	require.True(t, ok)
	assert.Equal(t, "offline", fail.Err.Error())

	rec = &recorder{}
	actions.PostComment(rec.reply(http.StatusCreated, `null`), domain.CommentDraft{Body: "x"})(context.Background(), rec.dispatch)
	require.Len(t, rec.actions, 1)
	assert.Equal(t, domain.KindSubmitErr, rec.actions[0].Kind())
}

func TestPostComment_ErrorBodyIsSubmitError(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"unauthorized: please login"}`, "unauthorized: please login"},
		{"not found", http.StatusNotFound, `{"error":"not found"}`, "not found"},
		{"object without id", http.StatusCreated, `{"body":"hello"}`, "status 201"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recorder{}
			draft := domain.CommentDraft{Body: "hello", PostID: 4}
			actions.PostComment(rec.reply(tc.status, tc.body), draft)(context.Background(), rec.dispatch)

			require.Len(t, rec.actions, 1)
			fail, ok := rec.actions[0].(domain.SubmitErr)
			require.True(t, ok, "got %s", domain.Describe(rec.actions[0]))
			assert.ErrorIs(t, fail.Err, actions.ErrNotCreated)
			assert.Contains(t, fail.Err.Error(), tc.want)
		})
	}
}

func TestClearError(t *testing.T) {
	a := actions.ClearError(domain.DomainPosts)
	assert.Equal(t, domain.KindClearErr, a.Kind())
	assert.Equal(t, domain.DomainPosts, a.Target())
}

func TestCreators_Hooks(t *testing.T) {
	rec := &recorder{}
	var started, settled []*domain.FetchEvent
	hooks := domain.LifecycleHooks{
		OnFetchStart:  func(_ context.Context, e *domain.FetchEvent) { started = append(started, e) },
		OnFetchSettle: func(_ context.Context, e *domain.FetchEvent) { settled = append(settled, e) },
	}
	boom := errors.New("boom")

	actions.GetPosts(rec.reply(http.StatusOK, `[]`), actions.WithHooks(hooks))(context.Background(), rec.dispatch)
	actions.GetComments(rec.fail(boom), nil, actions.WithHooks(hooks))(context.Background(), rec.dispatch)

	require.Len(t, started, 2)
	require.Len(t, settled, 2)
	assert.Equal(t, domain.EventFetchStart, started[0].Type)
	assert.Equal(t, domain.DomainPosts, settled[0].Domain)
	assert.NoError(t, settled[0].Err)
	assert.Equal(t, domain.EventFetchSettle, settled[1].Type)
	assert.ErrorIs(t, settled[1].Err, boom)
}

func TestCreators_Tracing(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	rec := &recorder{}

	actions.GetPosts(rec.reply(http.StatusOK, `[]`), actions.WithTracerProvider(tp))(context.Background(), rec.dispatch)
	actions.PostComment(rec.fail(errors.New("nope")), domain.CommentDraft{}, actions.WithTracerProvider(tp))(context.Background(), rec.dispatch)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "lattice.fetch posts", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, "lattice.fetch comments", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "nope", spans[1].Status().Description)
}
