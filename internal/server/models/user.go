// Package models defines server-side domain records.
package models

import "time"

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	Avatar       string
	Phone        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
