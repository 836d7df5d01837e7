package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
)

// Messages shown in place of a slice whose last fetch failed.
const (
	PostsUnavailable    = "The posts could not be fetched at this time."
	CommentsUnavailable = "The comments could not be fetched at this time."
)

// Posts renders the posts slice as markdown, newest first as received.
func Posts(s *domain.Slice) string {
	if s == nil {
		s = domain.InitialSlice()
	}
	var b strings.Builder
	b.WriteString("# Posts\n\n")
	if s.Failed() {
		fmt.Fprintf(&b, "> %s\n", PostsUnavailable)
		return b.String()
	}
	if len(s.Items) == 0 {
		b.WriteString("_No posts yet._\n")
		return b.String()
	}
	for _, e := range s.Items {
		var p domain.Post
		if err := e.Decode(&p); err != nil {
			fmt.Fprintf(&b, "- unreadable post %s\n", e.ID())
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", p.Title)
		at := ""
		if !p.Created.IsZero() {
			at = p.Created.Format(" on 2006-01-02 15:04")
		}
		fmt.Fprintf(&b, "*#%d by %s%s*\n\n", p.ID, orUnknown(p.Username), at)
		fmt.Fprintf(&b, "%s\n\n", p.Body)
	}
	return b.String()
}

// Comments renders the comments slice as markdown.
func Comments(s *domain.Slice) string {
	if s == nil {
		s = domain.InitialSlice()
	}
	var b strings.Builder
	b.WriteString("# Comments\n\n")
	if s.Failed() {
		fmt.Fprintf(&b, "> %s\n", CommentsUnavailable)
		return b.String()
	}
	if len(s.Items) == 0 {
		b.WriteString("_No comments._\n")
		return b.String()
	}
	for _, e := range s.Items {
		var c domain.Comment
		if err := e.Decode(&c); err != nil {
			fmt.Fprintf(&b, "- unreadable comment %s\n", e.ID())
			continue
		}
		fmt.Fprintf(&b, "- **%s** on post %d: %s\n", orUnknown(c.Username), c.PostID, c.Body)
	}
	return b.String()
}

func orUnknown(name string) string {
	if name == "" {
		return "unknown"
	}
	return name
}
