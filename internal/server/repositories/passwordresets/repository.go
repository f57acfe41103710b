// Package passwordresets declares the repository contract for single-use
// password reset tokens.
package passwordresets

import (
	"context"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

// Repository defines operations for issuing and consuming password reset tokens.
type Repository interface {
	// Create stores a new reset token for userID with an expiry of now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Find looks up a reset token by its opaque token string.
	// Implementations should return a not-found error when the token is absent.
	Find(ctx context.Context, token string) (*models.PasswordReset, error)

	// Delete removes a reset token, making it unusable. Deleting a
	// non-existent token should not be considered an error.
	Delete(ctx context.Context, token string) error
}
