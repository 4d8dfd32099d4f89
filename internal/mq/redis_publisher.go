package mq

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zenon0777/payever-backend-assessment/internal/domain"
)

// RedisStreamPublisher appends user_created events to a Redis stream.
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
}

// NewRedisStreamPublisher connects to the Redis server at addr.
func NewRedisStreamPublisher(addr, stream string) (*RedisStreamPublisher, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStreamPublisher{client: client, stream: stream}, nil
}

// PublishUserCreated adds one entry to the stream.
func (p *RedisStreamPublisher) PublishUserCreated(ctx context.Context, user *domain.User) error {
	value, err := encodeUserCreated(user, time.Now())
	if err != nil {
		return err
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"event": domain.EventUserCreated,
			"key":   user.ID,
			"data":  value,
		},
	}
	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Close closes the Redis client.
func (p *RedisStreamPublisher) Close() error {
	return p.client.Close()
}
