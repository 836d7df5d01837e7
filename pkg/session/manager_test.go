package session_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newManager(t *testing.T) (*session.Manager, *memory.Repository, *memory.TokenStore) {
	t.Helper()
	repo := memory.NewRepository()
	tokens := memory.NewTokenStore()
	n := 0
	m := session.NewManager(repo, tokens,
		session.WithHashCost(bcrypt.MinCost),
		session.WithTokenGenerator(func() string {
			n++
			return fmt.Sprintf("tok-%d", n)
		}),
	)
	return m, repo, tokens
}

func TestManager_Register(t *testing.T) {
	m, repo, _ := newManager(t)
	ctx := context.Background()

	u, err := m.Register(ctx, "ann", "secret")
	require.NoError(t, err)
	assert.Equal(t, "ann", u.Username)

	stored, err := repo.FindUser(ctx, "ann")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", stored.Hash, "passwords are stored hashed")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Hash), []byte("secret")))

	_, err = m.Register(ctx, "ann", "again")
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), "ann is already registered")

	_, err = m.Register(ctx, " ", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = m.Register(ctx, "bob", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestManager_LoginAndAuthenticate(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()

	ann, err := m.Register(ctx, "ann", "secret")
	require.NoError(t, err)

	_, _, err = m.Login(ctx, "ann", "wrong")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, _, err = m.Login(ctx, "nobody", "secret")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	token, u, err := m.Login(ctx, "ann", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, ann.ID, u.ID)

	got, err := m.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, ann.ID, got.ID)

	_, err = m.Authenticate(ctx, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = m.Authenticate(ctx, "forged")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	require.NoError(t, m.Logout(ctx, token))
	_, err = m.Authenticate(ctx, token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestManager_DeletedUserInvalidatesToken(t *testing.T) {
	m, repo, tokens := newManager(t)
	ctx := context.Background()

	u, err := m.Register(ctx, "ann", "secret")
	require.NoError(t, err)
	token, _, err := m.Login(ctx, "ann", "secret")
	require.NoError(t, err)

	require.NoError(t, repo.DeleteUser(ctx, u.ID))
	_, err = m.Authenticate(ctx, token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = tokens.Get(ctx, token)
	assert.ErrorIs(t, err, domain.ErrNotFound, "orphaned token is dropped")
}

func TestManager_RequireAdmin(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()

	_, err := m.EnsureUser(ctx, session.AdminUsername, "root")
	require.NoError(t, err)
	_, err = m.Register(ctx, "ann", "secret")
	require.NoError(t, err)

	adminToken, _, err := m.Login(ctx, session.AdminUsername, "root")
	require.NoError(t, err)
	annToken, _, err := m.Login(ctx, "ann", "secret")
	require.NoError(t, err)

	admin, err := m.RequireAdmin(ctx, adminToken)
	require.NoError(t, err)
	assert.Equal(t, session.AdminUsername, admin.Username)

	_, err = m.RequireAdmin(ctx, annToken)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = m.RequireAdmin(ctx, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestManager_EnsureUserIsIdempotent(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()

	first, err := m.EnsureUser(ctx, "admin", "one")
	require.NoError(t, err)
	second, err := m.EnsureUser(ctx, "admin", "two")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, _, err = m.Login(ctx, "admin", "one")
	assert.NoError(t, err, "existing password is kept")
}
