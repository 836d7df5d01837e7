package tui

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosts(t *testing.T) {
	s := &domain.Slice{Items: []domain.Entity{
		{"id": json.Number("2"), "title": "Second", "body": "hello", "username": "admin", "created": "2024-05-01T10:00:00Z"},
		{"id": json.Number("1"), "title": "First", "body": "world"},
	}}

	out := Posts(s)
	assert.Contains(t, out, "## Second")
	assert.Contains(t, out, "*#2 by admin on 2024-05-01 10:00*")
	assert.Contains(t, out, "*#1 by unknown*")
	assert.Less(t, bytes.Index([]byte(out), []byte("Second")), bytes.Index([]byte(out), []byte("First")))
}

func TestPosts_EmptyAndFailed(t *testing.T) {
	assert.Contains(t, Posts(domain.InitialSlice()), "No posts yet")

	failed := &domain.Slice{Items: []domain.Entity{}, Error: "boom", Cause: errors.New("boom")}
	out := Posts(failed)
	assert.Contains(t, out, PostsUnavailable)
	assert.NotContains(t, out, "boom")
}

func TestViews_NilSlice(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.Contains(t, Posts(nil), "No posts yet")
		assert.Contains(t, Comments(nil), "No comments")
	})
}

func TestComments(t *testing.T) {
	s := &domain.Slice{Items: []domain.Entity{
		{"id": json.Number("5"), "post_id": json.Number("2"), "body": "nice", "username": "ann"},
	}}
	assert.Contains(t, Comments(s), "- **ann** on post 2: nice")

	failed := &domain.Slice{Items: []domain.Entity{}, Error: "x"}
	assert.Contains(t, Comments(failed), CommentsUnavailable)
}

func TestRenderer(t *testing.T) {
	r, err := NewRenderer(false, 80)
	require.NoError(t, err)

	out, err := r(Posts(&domain.Slice{Items: []domain.Entity{{"id": 1, "title": "Hello"}}}))
	require.NoError(t, err)
	assert.Contains(t, out, "Hello")

	plain, err := Plain("# x")
	require.NoError(t, err)
	assert.Equal(t, "# x", plain)
}

func TestBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|_|")

	buf.Reset()
	Fail(&buf, "nope")
	assert.Contains(t, buf.String(), "nope")
}
