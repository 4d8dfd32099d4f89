package cache

import (
	"context"
	"errors"
	"time"

	"github.com/zenon0777/payever-backend-assessment/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// AvatarCache is a read-through cache in front of the avatar store.
type AvatarCache interface {
	Get(ctx context.Context, userID string) (*domain.Avatar, error)
	Set(ctx context.Context, avatar *domain.Avatar, ttl time.Duration) error
	Delete(ctx context.Context, userID string) error
	Close() error
}

// NoopAvatarCache always misses. Used when caching is disabled.
type NoopAvatarCache struct{}

func (NoopAvatarCache) Get(context.Context, string) (*domain.Avatar, error) {
	return nil, ErrCacheMiss
}

func (NoopAvatarCache) Set(context.Context, *domain.Avatar, time.Duration) error { return nil }

func (NoopAvatarCache) Delete(context.Context, string) error { return nil }

func (NoopAvatarCache) Close() error { return nil }
