package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	RoleAdmin      = "admin"
	RoleStudent    = "student"
	RoleInstructor = "instructor"
)

// User is a notebook account. Passwords are stored as-is: this is a
// classroom tool persisting into a per-instance local store, not a
// multi-tenant credential system.
type User struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name" validate:"required"`
	Email     string    `json:"email" db:"email" validate:"required,email"`
	Role      string    `json:"role" db:"role" validate:"required,oneof=admin student instructor"`
	Password  string    `json:"password" db:"password" validate:"required"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

func (u *User) Validate() error {
	validate := validator.New()
	return validate.Struct(u)
}

// UserUpdate carries the fields an admin may change on an existing
// account. Nil fields are left untouched.
type UserUpdate struct {
	Name     *string `json:"name,omitempty"`
	Role     *string `json:"role,omitempty"`
	Password *string `json:"password,omitempty"`
	Active   *bool   `json:"active,omitempty"`
}

// Session is the subset of a User carried by a login token. It is passed
// explicitly into every permission predicate; there is no process-wide
// current user.
type Session struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

func (s *Session) IsInstructor() bool {
	return s != nil && s.Role == RoleInstructor
}
