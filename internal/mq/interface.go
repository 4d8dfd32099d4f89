package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zenon0777/payever-backend-assessment/internal/config"
	"github.com/zenon0777/payever-backend-assessment/internal/domain"
)

// UserEventPublisher abstracts the broker that receives user_created events.
// PublishUserCreated returns once the client has accepted the message;
// it does not wait for any consumer.
type UserEventPublisher interface {
	PublishUserCreated(ctx context.Context, user *domain.User) error
	Close() error
}

// NewPublisher builds the publisher selected by cfg.Driver.
func NewPublisher(cfg config.MQConfig) (UserEventPublisher, error) {
	switch cfg.Driver {
	case "redis":
		return NewRedisStreamPublisher(cfg.URI, cfg.Queue)
	case "kafka", "":
		return NewKafkaPublisher(cfg.URI, cfg.Queue)
	default:
		return nil, fmt.Errorf("unsupported mq driver: %s", cfg.Driver)
	}
}

// encodeUserCreated renders the wire form of a user_created event.
func encodeUserCreated(user *domain.User, at time.Time) ([]byte, error) {
	value, err := json.Marshal(domain.NewUserCreatedEvent(user, at))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user created event: %w", err)
	}
	return value, nil
}
