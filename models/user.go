package models

import (
	"strconv"
	"time"
)

// User represents an account in the system.
// It maps to the `users` table; PasswordHash never leaves the server.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// DisplayName returns the name, or a synthesized label when the name is empty.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return "user " + strconv.FormatInt(u.ID, 10)
}
