// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Identity comparisons elsewhere in the codebase (is this the ride's rider?
// the assigned driver? an existing sharer?) are plain equality on ID, so the
// ID is the only thing authorization code ever needs from a User.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"` // unique login name
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"` // bcrypt hash, never serialized
	Name         string    `json:"name"      db:"name"`          // display name (may be empty)
	IsAdmin      bool      `json:"isAdmin"   db:"is_admin"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
