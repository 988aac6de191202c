package events

import (
	"time"

	"github.com/jlr/user-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered      EventType = "user_registered"
	EventUserLoggedIn        EventType = "user_logged_in"
	EventUserLoggedOut       EventType = "user_logged_out"
	EventUserDeactivated     EventType = "user_deactivated"
	EventUserPasswordChanged EventType = "user_password_changed"
)

// Actor identifies who caused an event.
type Actor struct {
	UserID   int64       `json:"user_id,omitempty"`
	Username string      `json:"username,omitempty"`
	Role     domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    int64       `json:"user_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email    string      `json:"email"`
	Role     domain.Role `json:"role"`
	DealerID *string     `json:"dealer_id,omitempty"`
}

// UserLoggedInPayload payload.
type UserLoggedInPayload struct {
	AccessTokenID string    `json:"access_token_id"`
	ExpiresAt     time.Time `json:"expires_at"`
}
