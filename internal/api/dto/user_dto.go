package dto

import (
	"net/mail"
	"strings"
	"time"

	"github.com/spec-kit/marketplace-service/internal/domain"
)

const minNameLen = 3

// RegisterRequest payload for new users.
type RegisterRequest struct {
	FirstName      string `json:"first_name"`
	SecondName     string `json:"second_name"`
	LastName       string `json:"last_name"`
	SecondLastName string `json:"second_last_name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
}

// Validate returns field-level error messages, empty when valid.
func (r RegisterRequest) Validate() map[string]any {
	details := map[string]any{}
	checkName(details, "first_name", r.FirstName)
	checkName(details, "second_name", r.SecondName)
	checkName(details, "last_name", r.LastName)
	checkName(details, "second_last_name", r.SecondLastName)
	if !validEmail(r.Email) {
		details["email"] = "valid email is required"
	}
	if len(r.Password) < 10 {
		details["password"] = "password must be at least 10 characters"
	}
	return details
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UpdateUserRequest carries a partial profile update; absent fields are left
// unchanged.
type UpdateUserRequest struct {
	FirstName      *string `json:"first_name"`
	SecondName     *string `json:"second_name"`
	LastName       *string `json:"last_name"`
	SecondLastName *string `json:"second_last_name"`
	Email          *string `json:"email"`
}

// Validate returns field-level error messages, empty when valid.
func (r UpdateUserRequest) Validate() map[string]any {
	details := map[string]any{}
	if r.FirstName != nil {
		checkName(details, "first_name", *r.FirstName)
	}
	if r.SecondName != nil {
		checkName(details, "second_name", *r.SecondName)
	}
	if r.LastName != nil {
		checkName(details, "last_name", *r.LastName)
	}
	if r.SecondLastName != nil {
		checkName(details, "second_last_name", *r.SecondLastName)
	}
	if r.Email != nil && !validEmail(*r.Email) {
		details["email"] = "valid email is required"
	}
	return details
}

// Patch converts the request to a domain patch.
func (r UpdateUserRequest) Patch() domain.UserPatch {
	return domain.UserPatch{
		FirstName:      r.FirstName,
		SecondName:     r.SecondName,
		LastName:       r.LastName,
		SecondLastName: r.SecondLastName,
		Email:          r.Email,
	}
}

// UserResponse is the public user representation.
type UserResponse struct {
	ID             int64           `json:"id"`
	FirstName      string          `json:"first_name"`
	SecondName     string          `json:"second_name"`
	LastName       string          `json:"last_name"`
	SecondLastName string          `json:"second_last_name"`
	Email          string          `json:"email"`
	Role           domain.UserRole `json:"role"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:             user.ID,
		FirstName:      user.FirstName,
		SecondName:     user.SecondName,
		LastName:       user.LastName,
		SecondLastName: user.SecondLastName,
		Email:          user.Email,
		Role:           user.Role,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func checkName(details map[string]any, field, value string) {
	if len(strings.TrimSpace(value)) < minNameLen {
		details[field] = field + " must be at least 3 characters"
	}
}

func validEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
