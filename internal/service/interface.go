package service

import (
	"context"

	"github.com/zenon0777/payever-backend-assessment/internal/domain"
)

// UserService defines the interface for user business logic.
type UserService interface {
	CreateUser(ctx context.Context, req *domain.CreateUserRequest) (*domain.CreateUserResult, error)
	// GetUser resolves a user from the external directory.
	GetUser(ctx context.Context, userID string) (*domain.DirectoryUser, error)
	// GetUserAvatar returns the base64 avatar of a directory user, fetching
	// and storing it on first access.
	GetUserAvatar(ctx context.Context, userID string) (string, error)
	DeleteUserAvatar(ctx context.Context, userID string) error
}

// DirectoryClient is the subset of the directory client the service needs.
type DirectoryClient interface {
	GetUser(ctx context.Context, userID string) (*domain.DirectoryUser, error)
	FetchAvatar(ctx context.Context, avatarURL string) ([]byte, error)
}
