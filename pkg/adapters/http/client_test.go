package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Origin(t *testing.T) {
	_, err := NewClient("localhost:5000")
	assert.Error(t, err, "origin needs a scheme")

	_, err = NewClient("http://")
	assert.Error(t, err)

	c, err := NewClient("")
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), ports.FetchRequest{URL: "/api/post"})
	assert.ErrorIs(t, err, ErrNoOrigin)
}

func TestClient_Fetch(t *testing.T) {
	var got *http.Request
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`[{"id":1}]`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	resp, err := c.Fetch(context.Background(), ports.FetchRequest{
		Method: http.MethodPost,
		URL:    "/api/comment?x=1",
		Form:   url.Values{"body": {"hello world"}},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode, "status codes are passed through")
	assert.Equal(t, `[{"id":1}]`, string(resp.Body))

	require.NotNil(t, got)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/api/comment", got.URL.Path)
	assert.Equal(t, "1", got.URL.Query().Get("x"))
	assert.Equal(t, "application/x-www-form-urlencoded", got.Header.Get("Content-Type"))
	assert.Equal(t, "body=hello+world", gotBody)

	resp, err = c.Fetch(context.Background(), ports.FetchRequest{URL: srv.URL + "/abs"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, got.Method, "method defaults to GET")
	assert.Equal(t, "/abs", got.URL.Path)
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c, err := NewClient(addr)
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), ports.FetchRequest{URL: "/api/post"})
	assert.Error(t, err)
}

func TestClient_CredentialsMode(t *testing.T) {
	var cookies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/set" {
			http.SetCookie(w, &http.Cookie{Name: CookieName, Value: "abc", Path: "/"})
			return
		}
		c, err := r.Cookie(CookieName)
		if err != nil {
			cookies = append(cookies, "")
			return
		}
		cookies = append(cookies, c.Value)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.Fetch(ctx, ports.FetchRequest{URL: "/set"})
	require.NoError(t, err)
	_, err = c.Fetch(ctx, ports.FetchRequest{URL: "/check", Credentials: ports.CredentialsInclude})
	require.NoError(t, err)
	_, err = c.Fetch(ctx, ports.FetchRequest{URL: "/check", Credentials: ports.CredentialsOmit})
	require.NoError(t, err)

	assert.Equal(t, []string{"abc", ""}, cookies)
}

func TestAPIError(t *testing.T) {
	err := APIError(&ports.Response{StatusCode: http.StatusNotFound, Body: []byte(`{"error":"no post with that ID"}`)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "no post with that ID")

	err = APIError(&ports.Response{StatusCode: http.StatusBadGateway, Body: []byte("upstream down")})
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream down")
}
