package client

import (
	"context"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/models"
)

// Client is the typed contract over the remote auth gateway. Each call
// returns a decoded result or nil on an empty payload and raises a
// categorized *NetworkError on gateway failure or a *SessionError on a
// domain rejection. No retries at this layer; retry policy lives in the
// session repository.
type Client interface {
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Register(ctx context.Context, name, email, password string) (*models.AuthResponse, error)
	Logout(ctx context.Context) error
	GetCurrentUser(ctx context.Context) (*models.User, error)
	RefreshToken(ctx context.Context) (*models.TokenPair, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	Close() error
}

// TokenSource supplies the stored bearer tokens for outbound requests.
// Implemented by the local session store; the client never persists tokens
// itself.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
}
