package models

import "time"

// PasswordReset is a single-use token letting a user set a new password.
type PasswordReset struct {
	ID        string
	UserID    string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}
