package domain

import "time"

// UserRole enumerates access levels for marketplace users.
type UserRole string

const (
	UserRoleAdmin   UserRole = "ADMIN"
	UserRoleRegular UserRole = "REGULAR"
)

// User is the domain model for registered marketplace users.
type User struct {
	ID             int64
	FirstName      string
	SecondName     string
	LastName       string
	SecondLastName string
	Email          string
	PasswordHash   string
	Role           UserRole
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// Active reports whether the user has not been soft-deleted.
func (u *User) Active() bool {
	return u != nil && u.DeletedAt == nil
}

// UserPatch carries a partial user update. Nil fields are left unchanged.
type UserPatch struct {
	FirstName      *string
	SecondName     *string
	LastName       *string
	SecondLastName *string
	Email          *string
	PasswordHash   *string
}

// Empty reports whether the patch carries no changes.
func (p UserPatch) Empty() bool {
	return p.FirstName == nil && p.SecondName == nil && p.LastName == nil &&
		p.SecondLastName == nil && p.Email == nil && p.PasswordHash == nil
}
