package repository

import (
	"context"
	"errors"

	"github.com/zenon0777/payever-backend-assessment/internal/domain"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrEmailExists    = errors.New("email already exists")
	ErrAvatarNotFound = errors.New("avatar not found")
	ErrAvatarExists   = errors.New("avatar already exists")
)

// UserRepository defines the interface for user data persistence.
type UserRepository interface {
	// Create assigns user.ID and user.CreatedAt and stores the record.
	// A duplicate email yields ErrEmailExists.
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// AvatarRepository defines the interface for avatar data persistence.
type AvatarRepository interface {
	// Create stores a new avatar. A second avatar for the same user yields
	// ErrAvatarExists.
	Create(ctx context.Context, avatar *domain.Avatar) error
	GetByUserID(ctx context.Context, userID string) (*domain.Avatar, error)
	DeleteByUserID(ctx context.Context, userID string) error
}
