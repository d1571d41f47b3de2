package model

import "time"

// User mirrors the `users` table. Email is the sole identity key and is
// never reassigned; the role column is restricted to the Role enum at
// write time.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email (unique)
	PasswordHash string    // users.password_hash
	Role         Role      // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
