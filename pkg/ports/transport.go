package ports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// CredentialsMode states whether ambient credentials (session cookies) go with a request.
type CredentialsMode int

const (
	// CredentialsInclude attaches the session cookies held by the transport.
	CredentialsInclude CredentialsMode = iota
	// CredentialsOmit sends the request without any session cookie.
	CredentialsOmit
)

func (m CredentialsMode) String() string {
	if m == CredentialsOmit {
		return "omit"
	}
	return "include"
}

// FetchRequest is a single request issued by an action creator.
type FetchRequest struct {
	Method string
	// URL may be relative ("/api/post"); the transport resolves it against its origin.
	URL         string
	Form        url.Values
	Credentials CredentialsMode
}

// Response is a settled response. The body has already been read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON decodes the body into v. Numbers decode as json.Number.
func (r *Response) JSON(v any) error {
	dec := json.NewDecoder(bytes.NewReader(r.Body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// Fetcher issues one request and settles to either a Response or an error.
// It performs no retries.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (*Response, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, req FetchRequest) (*Response, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, req FetchRequest) (*Response, error) {
	return f(ctx, req)
}
