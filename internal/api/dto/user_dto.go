package dto

import (
	"errors"
	"time"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/jlr/user-service/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Role        string  `json:"role"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
	DealerID    *string `json:"dealerId,omitempty"`
}

// Validate checks the registration payload.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required.Error("email is required"), is.Email.Error("email should be valid")),
		validation.Field(&r.Password, passwordRules()...),
		validation.Field(&r.FirstName, validation.Required.Error("first name is required"), validation.Length(0, 50)),
		validation.Field(&r.LastName, validation.Required.Error("last name is required"), validation.Length(0, 50)),
		validation.Field(&r.Role, validation.Required.Error("user role is required"), validation.In(roleValues()...)),
		validation.Field(&r.PhoneNumber, validation.Length(0, 20)),
	)
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the login payload.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// UpdateProfileRequest payload for PUT /api/users/me.
type UpdateProfileRequest struct {
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
}

// Validate checks the profile payload.
func (r UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(0, 50)),
		validation.Field(&r.LastName, validation.Required, validation.Length(0, 50)),
		validation.Field(&r.PhoneNumber, validation.Length(0, 20)),
	)
}

// ChangePasswordRequest payload for POST /api/users/me/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Validate checks the password change payload.
func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, passwordRules()...),
	)
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID          int64       `json:"id"`
	Email       string      `json:"email"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	Role        domain.Role `json:"role"`
	DealerID    *string     `json:"dealerId,omitempty"`
	PhoneNumber *string     `json:"phoneNumber,omitempty"`
	Active      bool        `json:"active"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// NewUserResponse maps a domain user, dropping the password hash.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        u.Role,
		DealerID:    u.DealerID,
		PhoneNumber: u.PhoneNumber,
		Active:      u.Active,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// NewUserResponses maps a list of users.
func NewUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}

// LoginResponse is returned by a successful login. No token appears in the
// body; the access token travels only in the HttpOnly cookie.
type LoginResponse struct {
	Message   string      `json:"message"`
	UserID    int64       `json:"userId"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

func passwordRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("password is required"),
		validation.Length(8, 0).Error("password must be minimum 8 characters"),
		validation.By(passwordComplexity),
	}
}

var errWeakPassword = errors.New("password must contain uppercase, lowercase, digit, and a special character")

func passwordComplexity(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	var upper, lower, digit, special bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return errWeakPassword
	}
	return nil
}

func roleValues() []interface{} {
	values := make([]interface{}, 0, len(domain.Roles))
	for _, role := range domain.Roles {
		values = append(values, string(role))
	}
	return values
}
