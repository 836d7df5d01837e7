package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// KeyID is the payload field that identifies an Entity.
const KeyID = "id"

// Entity is a record received from the remote resource.
// Its fields are passed through verbatim; numbers are kept as json.Number.
type Entity map[string]any

// ID returns the remote identifier as a string, or "" when the entity has none.
func (e Entity) ID() string {
	v, ok := e[KeyID]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Decode copies the entity fields into a typed view such as Post or Comment.
// Field names follow the json tags of the target.
func (e Entity) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(e)); err != nil {
		return fmt.Errorf("failed to decode entity %q: %w", e.ID(), err)
	}
	return nil
}

// DecodeEntities parses a JSON array of objects into entities, preserving numbers verbatim.
func DecodeEntities(data []byte) ([]Entity, error) {
	var items []Entity
	if err := unmarshalNumbers(data, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []Entity{}
	}
	return items, nil
}

// ToEntity converts a typed value (Post, Comment, ...) into its Entity form.
func ToEntity(v any) (Entity, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	var e Entity
	if err := unmarshalNumbers(data, &e); err != nil {
		return nil, err
	}
	return e, nil
}

// Post is the typed view of a post entity.
type Post struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	Created  time.Time `json:"created"`
	AuthorID int64     `json:"author_id"`
	Username string    `json:"username"`
}

// Comment is the typed view of a comment entity.
type Comment struct {
	ID       int64     `json:"id"`
	PostID   int64     `json:"post_id"`
	AuthorID int64     `json:"author_id"`
	Created  time.Time `json:"created"`
	Body     string    `json:"body"`
	Username string    `json:"username"`
}

// User is an account known to the backend. Hash is never serialized.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Hash     string `json:"-"`
}

// PostDraft holds the fields needed to create a post.
type PostDraft struct {
	Title    string
	Body     string
	AuthorID int64
}

// CommentDraft holds the fields needed to create a comment.
type CommentDraft struct {
	Body     string
	PostID   int64
	AuthorID int64
}

func unmarshalNumbers(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("failed to decode json: %w", err)
	}
	return nil
}
