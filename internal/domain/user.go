package domain

import "time"

// User is the persisted account record.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role
	DealerID     *string
	PhoneNumber  *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
}

// Principal returns the request-scoped identity for the user.
func (u *User) Principal() Principal {
	return Principal{
		ID:       u.ID,
		Username: u.Email,
		Role:     u.Role,
		Active:   u.Active,
	}
}
