package domain

import (
	"context"
	"time"
)

// User represents a domain user object
type User struct {
	ID          string
	Email       string
	Name        string
	IsStaff     bool
	IsSuperuser bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewUser creates a new User instance
func NewUser(id, email, name string) *User {
	now := time.Now()
	return &User{
		ID:        id,
		Email:     email,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate validates the user
func (u *User) Validate() error {
	if u.ID == "" {
		return NewInvalidInputError("id is required")
	}
	if u.Email == "" {
		return NewInvalidInputError("email is required")
	}
	return nil
}

// Requester returns the identity the user makes requests with.
func (u *User) Requester() Requester {
	return Requester{UserID: u.ID, IsStaff: u.IsStaff, IsSuperuser: u.IsSuperuser}
}

// UserRepository defines the interface for user data persistence.
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, userID string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}
