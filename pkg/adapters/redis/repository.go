package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Repository implements ports.Repository using Redis hashes.
//
// Layout (with the default prefix):
//
//	lattice:seq        counter shared by every record
//	lattice:users      id -> user JSON
//	lattice:usernames  username -> id
//	lattice:posts      id -> post JSON
//	lattice:comments   id -> comment JSON
type Repository struct {
	client *backend.Client
	prefix string
	now    func() time.Time
}

// Option configures a Redis adapter.
type Option func(*options)

type options struct {
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithTTL sets the default expiration used by the TokenStore when Put receives a zero ttl.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithClock overrides the time source used for the created field.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func newOptions(opts []Option) options {
	o := options{prefix: "lattice:", now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewClient creates a go-redis client for the given address.
func NewClient(address, password string, db int) *backend.Client {
	return backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
}

// NewRepository creates a repository from an existing client.
func NewRepository(client *backend.Client, opts ...Option) *Repository {
	o := newOptions(opts)
	return &Repository{client: client, prefix: o.prefix, now: o.now}
}

// userRecord keeps the hash, which domain.User never serializes.
type userRecord struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Hash     string `json:"hash"`
}

func (r *Repository) key(name string) string {
	return r.prefix + name
}

func (r *Repository) nextID(ctx context.Context) (int64, error) {
	id, err := r.client.Incr(ctx, r.key("seq")).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate id: %w", err)
	}
	return id, nil
}

func (r *Repository) put(ctx context.Context, hash string, id int64, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := r.client.HSet(ctx, r.key(hash), strconv.FormatInt(id, 10), data).Err(); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

func (r *Repository) get(ctx context.Context, hash string, id int64, out any) error {
	val, err := r.client.HGet(ctx, r.key(hash), strconv.FormatInt(id, 10)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to get from redis: %w", err)
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return nil
}

func (r *Repository) del(ctx context.Context, hash string, id int64) error {
	n, err := r.client.HDel(ctx, r.key(hash), strconv.FormatInt(id, 10)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func values[T any](ctx context.Context, r *Repository, hash string) ([]T, error) {
	vals, err := r.client.HVals(ctx, r.key(hash)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", hash, err)
	}
	out := make([]T, 0, len(vals))
	for _, v := range vals {
		var item T
		if err := json.Unmarshal([]byte(v), &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s record: %w", hash, err)
		}
		out = append(out, item)
	}
	return out, nil
}

// usernames resolves author IDs to usernames in one round trip.
func (r *Repository) usernames(ctx context.Context) (map[int64]string, error) {
	users, err := values[userRecord](ctx, r, "users")
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names, nil
}

func (r *Repository) username(ctx context.Context, id int64) string {
	var u userRecord
	if err := r.get(ctx, "users", id, &u); err != nil {
		return ""
	}
	return u.Username
}

// ListPosts returns every post, newest first.
func (r *Repository) ListPosts(ctx context.Context) ([]domain.Post, error) {
	posts, err := values[domain.Post](ctx, r, "posts")
	if err != nil {
		return nil, err
	}
	names, err := r.usernames(ctx)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Username = names[posts[i].AuthorID]
	}
	domain.SortPosts(posts)
	return posts, nil
}

// GetPost returns one post.
func (r *Repository) GetPost(ctx context.Context, id int64) (domain.Post, error) {
	var p domain.Post
	if err := r.get(ctx, "posts", id, &p); err != nil {
		return domain.Post{}, err
	}
	p.Username = r.username(ctx, p.AuthorID)
	return p, nil
}

// CreatePost stores a new post.
func (r *Repository) CreatePost(ctx context.Context, draft domain.PostDraft) (domain.Post, error) {
	id, err := r.nextID(ctx)
	if err != nil {
		return domain.Post{}, err
	}
	p := domain.Post{
		ID:       id,
		Title:    draft.Title,
		Body:     draft.Body,
		Created:  r.now().UTC(),
		AuthorID: draft.AuthorID,
	}
	if err := r.put(ctx, "posts", id, p); err != nil {
		return domain.Post{}, err
	}
	p.Username = r.username(ctx, p.AuthorID)
	return p, nil
}

// DeletePost removes a post.
func (r *Repository) DeletePost(ctx context.Context, id int64) error {
	return r.del(ctx, "posts", id)
}

// ListComments returns comments oldest first, optionally filtered by post.
func (r *Repository) ListComments(ctx context.Context, postID *int64) ([]domain.Comment, error) {
	all, err := values[domain.Comment](ctx, r, "comments")
	if err != nil {
		return nil, err
	}
	names, err := r.usernames(ctx)
	if err != nil {
		return nil, err
	}
	comments := make([]domain.Comment, 0, len(all))
	for _, c := range all {
		if postID != nil && c.PostID != *postID {
			continue
		}
		c.Username = names[c.AuthorID]
		comments = append(comments, c)
	}
	domain.SortComments(comments)
	return comments, nil
}

// GetComment returns one comment.
func (r *Repository) GetComment(ctx context.Context, id int64) (domain.Comment, error) {
	var c domain.Comment
	if err := r.get(ctx, "comments", id, &c); err != nil {
		return domain.Comment{}, err
	}
	c.Username = r.username(ctx, c.AuthorID)
	return c, nil
}

// CreateComment stores a new comment.
func (r *Repository) CreateComment(ctx context.Context, draft domain.CommentDraft) (domain.Comment, error) {
	id, err := r.nextID(ctx)
	if err != nil {
		return domain.Comment{}, err
	}
	c := domain.Comment{
		ID:       id,
		PostID:   draft.PostID,
		AuthorID: draft.AuthorID,
		Created:  r.now().UTC(),
		Body:     draft.Body,
	}
	if err := r.put(ctx, "comments", id, c); err != nil {
		return domain.Comment{}, err
	}
	c.Username = r.username(ctx, c.AuthorID)
	return c, nil
}

// DeleteComment removes a comment.
func (r *Repository) DeleteComment(ctx context.Context, id int64) error {
	return r.del(ctx, "comments", id)
}

// CreateUser stores a new user. The username index is claimed with HSETNX,
// so two concurrent registrations of the same name cannot both succeed.
func (r *Repository) CreateUser(ctx context.Context, username, hash string) (domain.User, error) {
	id, err := r.nextID(ctx)
	if err != nil {
		return domain.User{}, err
	}
	claimed, err := r.client.HSetNX(ctx, r.key("usernames"), username, id).Result()
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to reserve username: %w", err)
	}
	if !claimed {
		return domain.User{}, domain.ErrConflict
	}
	rec := userRecord{ID: id, Username: username, Hash: hash}
	if err := r.put(ctx, "users", id, rec); err != nil {
		return domain.User{}, err
	}
	return rec.user(), nil
}

// FindUser looks a user up by name.
func (r *Repository) FindUser(ctx context.Context, username string) (domain.User, error) {
	id, err := r.client.HGet(ctx, r.key("usernames"), username).Int64()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("failed to get from redis: %w", err)
	}
	return r.GetUser(ctx, id)
}

// GetUser looks a user up by ID.
func (r *Repository) GetUser(ctx context.Context, id int64) (domain.User, error) {
	var rec userRecord
	if err := r.get(ctx, "users", id, &rec); err != nil {
		return domain.User{}, err
	}
	return rec.user(), nil
}

// ListUsers returns every user ordered by ID.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	recs, err := values[userRecord](ctx, r, "users")
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(recs))
	for _, rec := range recs {
		users = append(users, rec.user())
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// DeleteUser removes a user and releases the username.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	u, err := r.GetUser(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.HDel(ctx, r.key("users"), strconv.FormatInt(id, 10))
	pipe.HDel(ctx, r.key("usernames"), u.Username)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// Close closes the redis client.
func (r *Repository) Close() error {
	return r.client.Close()
}

func (u userRecord) user() domain.User {
	return domain.User{ID: u.ID, Username: u.Username, Hash: u.Hash}
}
