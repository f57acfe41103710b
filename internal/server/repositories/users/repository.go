package users

import (
	"context"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, userID string, hash []byte) error
	UpdateAvatar(ctx context.Context, userID string, avatar string) error
}
