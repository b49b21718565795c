// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
)

// NewID returns a fresh random identifier for users, threads, segments and collections.
func NewID() string {
	return uuid.NewString()
}

// User represents a signed-in ThreadSpire user.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// RegisteredUser is a user record together with its credential hash.
// The password itself is never persisted.
type RegisteredUser struct {
	User
	PasswordHash string `json:"passwordHash"`
}

// Session describes the authentication slice of the application state.
type Session struct {
	User            *User `json:"user"`
	IsAuthenticated bool  `json:"isAuthenticated"`
	Loading         bool  `json:"loading"`
}
