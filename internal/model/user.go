package model

import (
	"errors"
	"time"
)

// User is a row of the users table. Created on registration and never
// edited afterwards.
type User struct {
	ID        string    `db:"id" json:"id"`
	AccountID string    `db:"account_id" json:"account_id"`
	Email     string    `db:"email" json:"email"`
	Username  string    `db:"username" json:"username"`
	Avatar    string    `db:"avatar" json:"avatar"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RegisterRequest is the body of POST /account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// LoginRequest is the body of POST /account/sessions/email.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned after registration and sign in.
type AuthResponse struct {
	User      *User     `json:"user,omitempty"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

var (
	// ErrUserNotFound is returned when a user row cannot be found
	ErrUserNotFound = errors.New("user not found")
)
