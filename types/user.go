package types

import "time"

// Role is a user's authorization level.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	// RoleCounter marks stock counters. They have the same rights as RoleUser.
	RoleCounter Role = "counter"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleCounter:
		return true
	}
	return false
}

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's unique email address, used to log in.
	Email string `json:"email" db:"email"`

	// Role indicates the user's authorization level.
	Role Role `json:"role" db:"role"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
