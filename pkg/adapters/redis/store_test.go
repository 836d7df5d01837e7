package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/lattice/pkg/adapters/redis"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisRepository_Contract(t *testing.T) {
	_, client := setup(t)
	ports.RunRepositoryContract(t, redis.NewRepository(client))
}

func TestRedisTokenStore_Contract(t *testing.T) {
	_, client := setup(t)
	ports.RunTokenStoreContract(t, redis.NewTokenStore(client))
}

func TestRedisRepository_Prefix(t *testing.T) {
	mr, client := setup(t)
	repo := redis.NewRepository(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	_, err := repo.CreatePost(ctx, domain.PostDraft{Title: "t", Body: "b"})
	require.NoError(t, err)

	assert.True(t, mr.Exists("custom:app:posts"), "Expected posts hash with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:seq"), "Expected sequence with custom prefix to exist")
}

func TestRedisRepository_CreatedUsesClock(t *testing.T) {
	_, client := setup(t)
	fixed := time.Date(2019, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := redis.NewRepository(client, redis.WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	c, err := repo.CreateComment(ctx, domain.CommentDraft{Body: "hi", PostID: 1})
	require.NoError(t, err)

	got, err := repo.GetComment(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, fixed.Equal(got.Created))
}

func TestRedisTokenStore_TTL_Expiration(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewTokenStore(client, redis.WithTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "tok", 3, 0))
	id, err := store.Get(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)

	mr.FastForward(2 * time.Second)

	_, err = store.Get(ctx, "tok")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
