package ports

import (
	"context"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
)

// Repository stores the resources served by the development backend.
// Lookups of missing records return domain.ErrNotFound.
type Repository interface {
	// ListPosts returns every post, newest first.
	ListPosts(ctx context.Context) ([]domain.Post, error)
	GetPost(ctx context.Context, id int64) (domain.Post, error)
	CreatePost(ctx context.Context, draft domain.PostDraft) (domain.Post, error)
	DeletePost(ctx context.Context, id int64) error

	// ListComments returns comments oldest first; a non-nil postID filters by post.
	ListComments(ctx context.Context, postID *int64) ([]domain.Comment, error)
	GetComment(ctx context.Context, id int64) (domain.Comment, error)
	CreateComment(ctx context.Context, draft domain.CommentDraft) (domain.Comment, error)
	DeleteComment(ctx context.Context, id int64) error

	// CreateUser returns domain.ErrConflict when the username is taken.
	CreateUser(ctx context.Context, username, hash string) (domain.User, error)
	FindUser(ctx context.Context, username string) (domain.User, error)
	GetUser(ctx context.Context, id int64) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// TokenStore maps opaque session tokens to user IDs.
type TokenStore interface {
	// Put stores the token. A zero ttl means no expiration.
	Put(ctx context.Context, token string, userID int64, ttl time.Duration) error
	// Get returns domain.ErrNotFound for unknown or expired tokens.
	Get(ctx context.Context, token string) (int64, error)
	Delete(ctx context.Context, token string) error
}
