package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRepositoryContract runs a suite of tests to verify that a Repository implementation
// adheres to the defined interface contract. The repository must start empty.
func RunRepositoryContract(t *testing.T, repo Repository) {
	ctx := context.Background()

	var admin domain.User
	t.Run("Users", func(t *testing.T) {
		var err error
		admin, err = repo.CreateUser(ctx, "admin", "hash-a")
		require.NoError(t, err)
		assert.NotZero(t, admin.ID)
		assert.Equal(t, "admin", admin.Username)

		_, err = repo.CreateUser(ctx, "admin", "other")
		assert.ErrorIs(t, err, domain.ErrConflict, "usernames must be unique")

		found, err := repo.FindUser(ctx, "admin")
		require.NoError(t, err)
		assert.Equal(t, admin.ID, found.ID)
		assert.Equal(t, "hash-a", found.Hash, "hash must survive storage")

		byID, err := repo.GetUser(ctx, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, "admin", byID.Username)

		_, err = repo.FindUser(ctx, "nobody")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	var first, second domain.Post
	t.Run("Posts Newest First", func(t *testing.T) {
		var err error
		first, err = repo.CreatePost(ctx, domain.PostDraft{Title: "one", Body: "b1", AuthorID: admin.ID})
		require.NoError(t, err)
		second, err = repo.CreatePost(ctx, domain.PostDraft{Title: "two", Body: "b2", AuthorID: admin.ID})
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)
		assert.Equal(t, "admin", second.Username)

		posts, err := repo.ListPosts(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, second.ID, posts[0].ID)
		assert.Equal(t, first.ID, posts[1].ID)

		got, err := repo.GetPost(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "one", got.Title)
	})

	t.Run("Comments Oldest First And Filtered", func(t *testing.T) {
		c1, err := repo.CreateComment(ctx, domain.CommentDraft{Body: "c1", PostID: first.ID, AuthorID: admin.ID})
		require.NoError(t, err)
		c2, err := repo.CreateComment(ctx, domain.CommentDraft{Body: "c2", PostID: second.ID, AuthorID: admin.ID})
		require.NoError(t, err)
		c3, err := repo.CreateComment(ctx, domain.CommentDraft{Body: "c3", PostID: first.ID, AuthorID: admin.ID})
		require.NoError(t, err)

		all, err := repo.ListComments(ctx, nil)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []int64{c1.ID, c2.ID, c3.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

		onFirst, err := repo.ListComments(ctx, &first.ID)
		require.NoError(t, err)
		require.Len(t, onFirst, 2)
		assert.Equal(t, c1.ID, onFirst[0].ID)
		assert.Equal(t, c3.ID, onFirst[1].ID)
		assert.Equal(t, "admin", onFirst[0].Username)

		got, err := repo.GetComment(ctx, c2.ID)
		require.NoError(t, err)
		assert.Equal(t, "c2", got.Body)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.DeletePost(ctx, first.ID))
		_, err := repo.GetPost(ctx, first.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, repo.DeletePost(ctx, first.ID), domain.ErrNotFound)

		comments, err := repo.ListComments(ctx, &second.ID)
		require.NoError(t, err)
		require.Len(t, comments, 1)
		require.NoError(t, repo.DeleteComment(ctx, comments[0].ID))
		_, err = repo.GetComment(ctx, comments[0].ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Users Listing And Delete", func(t *testing.T) {
		bob, err := repo.CreateUser(ctx, "bob", "hash-b")
		require.NoError(t, err)

		users, err := repo.ListUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 2)

		require.NoError(t, repo.DeleteUser(ctx, bob.ID))
		_, err = repo.FindUser(ctx, "bob")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, repo.DeleteUser(ctx, bob.ID), domain.ErrNotFound)
	})
}

// RunTokenStoreContract verifies the TokenStore contract.
func RunTokenStoreContract(t *testing.T, store TokenStore) {
	ctx := context.Background()
	token := "contract-token-" + time.Now().Format("20060102150405")

	t.Run("Put and Get", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, token, 42, time.Hour))
		id, err := store.Get(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
	})

	t.Run("Unknown Token", func(t *testing.T) {
		_, err := store.Get(ctx, "missing-"+token)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, token))
		_, err := store.Get(ctx, token)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
