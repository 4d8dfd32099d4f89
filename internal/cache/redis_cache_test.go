package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenon0777/payever-backend-assessment/internal/config"
	"github.com/zenon0777/payever-backend-assessment/internal/domain"
)

var (
	_ AvatarCache = (*RedisAvatarCache)(nil)
	_ AvatarCache = NoopAvatarCache{}
)

func newTestCache(t *testing.T) (*RedisAvatarCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisAvatarCache(config.RedisConfig{Address: mr.Addr()}, "user")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestRedisAvatarCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	_, err := c.Get(ctx, "1")
	require.ErrorIs(t, err, ErrCacheMiss)

	in := &domain.Avatar{ID: "a1", UserID: "1", Hash: "abc", Image: "aW1n"}
	require.NoError(t, c.Set(ctx, in, time.Minute))
	assert.True(t, mr.Exists("user:avatar:1"))

	out, err := c.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, in.Image, out.Image)
	assert.Equal(t, in.Hash, out.Hash)

	require.NoError(t, c.Delete(ctx, "1"))
	_, err = c.Get(ctx, "1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisAvatarCache_Expires(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, c.Set(ctx, &domain.Avatar{UserID: "2", Image: "x"}, time.Second))
	mr.FastForward(2 * time.Second)

	_, err := c.Get(ctx, "2")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisAvatarCache_CorruptEntry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisAvatarCacheWithClient(client, "p")
	defer c.Close()

	require.NoError(t, mr.Set("p:avatar:3", "not json"))

	_, err := c.Get(context.Background(), "3")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestNewRedisAvatarCache_Unreachable(t *testing.T) {
	_, err := NewRedisAvatarCache(config.RedisConfig{Address: "127.0.0.1:1"}, "p")
	assert.Error(t, err)
}

func TestNoopAvatarCache(t *testing.T) {
	var c NoopAvatarCache
	_, err := c.Get(context.Background(), "1")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, c.Set(context.Background(), &domain.Avatar{}, time.Minute))
	assert.NoError(t, c.Delete(context.Background(), "1"))
}
