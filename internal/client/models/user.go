// Package models defines client-side domain types for the session engine.
package models

import "time"

// User is the denormalized snapshot of the authenticated identity as cached
// locally. It is replaced as a whole record, never patched field by field.
type User struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Avatar    string         `json:"avatar,omitempty"`
	Phone     string         `json:"phone,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// TokenPair holds the opaque bearer tokens issued by the backend.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResponse is the payload of successful login/register calls.
type AuthResponse struct {
	User         *User     `json:"user"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// SavedCredentials is the opt-in "remember me" record used exclusively as a
// fallback login path when the network is unavailable.
type SavedCredentials struct {
	Email    string    `json:"email"`
	Password string    `json:"password"`
	SavedAt  time.Time `json:"savedAt"`
}
