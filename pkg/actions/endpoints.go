package actions

import (
	"net/url"
	"strconv"
)

// DevOrigin is the base used by debug builds.
const DevOrigin = "http://localhost:5000"

// Endpoint paths of the remote resource.
const (
	PathPosts    = "/api/post"
	PathComments = "/api/comment"
)

// Base returns the URL prefix for endpoints: DevOrigin when debug is on, "" (same origin) otherwise.
func Base(debug bool) string {
	if debug {
		return DevOrigin
	}
	return ""
}

// DefaultBase is Base(Debug).
func DefaultBase() string {
	return Base(Debug)
}

func commentsURL(base string, postID *int64) string {
	u := base + PathComments
	if postID != nil {
		u += "?" + url.Values{"post_id": {strconv.FormatInt(*postID, 10)}}.Encode()
	}
	return u
}
