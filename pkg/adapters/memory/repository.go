package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
)

// Repository implements ports.Repository in memory.
// Safe for concurrent use.
type Repository struct {
	mu       sync.RWMutex
	seq      int64
	now      func() time.Time
	users    map[int64]domain.User
	posts    map[int64]domain.Post
	comments map[int64]domain.Comment
}

// Option configures the Repository.
type Option func(*Repository)

// WithClock overrides the time source used for the created field.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// NewRepository creates an empty in-memory repository.
func NewRepository(opts ...Option) *Repository {
	r := &Repository{
		now:      time.Now,
		users:    make(map[int64]domain.User),
		posts:    make(map[int64]domain.Post),
		comments: make(map[int64]domain.Comment),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) nextID() int64 {
	r.seq++
	return r.seq
}

func (r *Repository) username(id int64) string {
	return r.users[id].Username
}

// ListPosts returns every post, newest first.
func (r *Repository) ListPosts(ctx context.Context) ([]domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	posts := make([]domain.Post, 0, len(r.posts))
	for _, p := range r.posts {
		p.Username = r.username(p.AuthorID)
		posts = append(posts, p)
	}
	domain.SortPosts(posts)
	return posts, nil
}

// GetPost returns one post.
func (r *Repository) GetPost(ctx context.Context, id int64) (domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.posts[id]
	if !ok {
		return domain.Post{}, domain.ErrNotFound
	}
	p.Username = r.username(p.AuthorID)
	return p, nil
}

// CreatePost stores a new post.
func (r *Repository) CreatePost(ctx context.Context, draft domain.PostDraft) (domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := domain.Post{
		ID:       r.nextID(),
		Title:    draft.Title,
		Body:     draft.Body,
		Created:  r.now().UTC(),
		AuthorID: draft.AuthorID,
	}
	r.posts[p.ID] = p
	p.Username = r.username(p.AuthorID)
	return p, nil
}

// DeletePost removes a post.
func (r *Repository) DeletePost(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

// ListComments returns comments oldest first, optionally filtered by post.
func (r *Repository) ListComments(ctx context.Context, postID *int64) ([]domain.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	comments := make([]domain.Comment, 0, len(r.comments))
	for _, c := range r.comments {
		if postID != nil && c.PostID != *postID {
			continue
		}
		c.Username = r.username(c.AuthorID)
		comments = append(comments, c)
	}
	domain.SortComments(comments)
	return comments, nil
}

// GetComment returns one comment.
func (r *Repository) GetComment(ctx context.Context, id int64) (domain.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.comments[id]
	if !ok {
		return domain.Comment{}, domain.ErrNotFound
	}
	c.Username = r.username(c.AuthorID)
	return c, nil
}

// CreateComment stores a new comment.
func (r *Repository) CreateComment(ctx context.Context, draft domain.CommentDraft) (domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := domain.Comment{
		ID:       r.nextID(),
		PostID:   draft.PostID,
		AuthorID: draft.AuthorID,
		Created:  r.now().UTC(),
		Body:     draft.Body,
	}
	r.comments[c.ID] = c
	c.Username = r.username(c.AuthorID)
	return c, nil
}

// DeleteComment removes a comment.
func (r *Repository) DeleteComment(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.comments[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.comments, id)
	return nil
}

// CreateUser stores a new user; usernames are unique.
func (r *Repository) CreateUser(ctx context.Context, username, hash string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == username {
			return domain.User{}, domain.ErrConflict
		}
	}
	u := domain.User{ID: r.nextID(), Username: username, Hash: hash}
	r.users[u.ID] = u
	return u, nil
}

// FindUser looks a user up by name.
func (r *Repository) FindUser(ctx context.Context, username string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

// GetUser looks a user up by ID.
func (r *Repository) GetUser(ctx context.Context, id int64) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

// ListUsers returns every user ordered by ID.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// DeleteUser removes a user.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.users, id)
	return nil
}
