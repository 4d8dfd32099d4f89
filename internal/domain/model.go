package domain

import (
	"encoding/json"
	"time"
)

// User is a locally registered user.
type User struct {
	ID         string    `json:"_id"`
	ExternalID *int64    `json:"id,omitempty"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Job        string    `json:"job"`
	CreatedAt  time.Time `json:"created_at"`
}

// Avatar is the cached avatar of a directory user. Hash is the hex SHA-256
// of Image, where Image is the base64 text of the downloaded bytes.
type Avatar struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"userId"`
	Hash      string    `json:"hash"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateUserRequest represents a create user request.
type CreateUserRequest struct {
	ID    *int64 `json:"id"`
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"required"`
	Job   string `json:"job" binding:"required"`
}

// Side effects whose failure is reported as an Advisory.
const (
	EffectWelcomeEmail = "welcome_email"
)

// Advisory records a failed side effect that did not abort the operation.
type Advisory struct {
	Effect string
	Err    error
}

// CreateUserResult is the outcome of a successful user creation.
type CreateUserResult struct {
	User       *User
	Advisories []Advisory
}

// Degraded reports whether any non-critical side effect failed.
func (r *CreateUserResult) Degraded() bool {
	return len(r.Advisories) > 0
}

// DirectoryUser is a user resolved from the external directory. Raw holds
// the directory's response body verbatim.
type DirectoryUser struct {
	Raw  json.RawMessage
	Data DirectoryUserData
}

// DirectoryUserData is the "data" object of a directory response.
type DirectoryUserData struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar"`
}

// EventUserCreated is the name of the event emitted after a user is stored.
const EventUserCreated = "user_created"

// UserCreatedEvent is the message published for EventUserCreated.
type UserCreatedEvent struct {
	Pattern   string `json:"pattern"`
	Data      *User  `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

// NewUserCreatedEvent wraps user in the user_created envelope.
func NewUserCreatedEvent(user *User, at time.Time) *UserCreatedEvent {
	return &UserCreatedEvent{
		Pattern:   EventUserCreated,
		Data:      user,
		Timestamp: at.UnixMilli(),
	}
}
