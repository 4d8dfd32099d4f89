package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zenon0777/payever-backend-assessment/internal/config"
	"github.com/zenon0777/payever-backend-assessment/internal/domain"
)

type RedisAvatarCache struct {
	client *redis.Client
	prefix string
}

func NewRedisAvatarCache(cfg config.RedisConfig, prefix string) (*RedisAvatarCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisAvatarCacheWithClient(client, prefix), nil
}

// NewRedisAvatarCacheWithClient wraps an existing client.
func NewRedisAvatarCacheWithClient(client *redis.Client, prefix string) *RedisAvatarCache {
	return &RedisAvatarCache{
		client: client,
		prefix: prefix,
	}
}

func (c *RedisAvatarCache) BuildKey(userID string) string {
	return fmt.Sprintf("%s:avatar:%s", c.prefix, userID)
}

func (c *RedisAvatarCache) Get(ctx context.Context, userID string) (*domain.Avatar, error) {
	data, err := c.client.Get(ctx, c.BuildKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var avatar domain.Avatar
	if err := json.Unmarshal(data, &avatar); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}

	return &avatar, nil
}

func (c *RedisAvatarCache) Set(ctx context.Context, avatar *domain.Avatar, ttl time.Duration) error {
	data, err := json.Marshal(avatar)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := c.client.Set(ctx, c.BuildKey(avatar.UserID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}

	return nil
}

func (c *RedisAvatarCache) Delete(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, c.BuildKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}

	return nil
}

func (c *RedisAvatarCache) Close() error {
	return c.client.Close()
}
