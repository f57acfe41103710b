// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, password recovery, and
// issuing/refreshing JWTs plus server-stored refresh tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/dbx"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/config"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// deliverResetToken is a seam for testing password reset delivery. In a
// production deployment this is where an email provider would be invoked.
var deliverResetToken = func(ctx context.Context, log logging.Logger, email string, token string) {
	log.Info(ctx, "password reset token issued", "email", email, "token", token)
}

// UserService provides authentication-related operations:
// - Register: create users and mint an initial token pair
// - Login: verify credentials and mint tokens
// - RefreshToken: rotate refresh tokens and mint new access tokens
// - ForgotPassword / ResetPassword: single-use password recovery tokens
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	log                          logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	resetTokenValidityDuration   time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		log:                          log,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		resetTokenValidityDuration:   cfg.ResetTokenValidityDuration,
	}
}

// Register creates a new user account and signs it in, returning the created
// user together with an initial token pair. A duplicate email yields
// common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, *TokenPair, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, common.ErrorInternal
	}

	userRepo := s.repomanager.Users(s.db)

	if _, err := userRepo.GetByEmail(ctx, email); err == nil {
		return nil, nil, common.ErrorAlreadyExists
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, nil, common.ErrorInternal
	}

	user := &models.User{ID: uuid.NewString(), Name: name, Email: email, PasswordHash: hash}
	u, err := userRepo.Create(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating user: %w", err)
	}

	pair, err := s.generateTokenPair(ctx, u.ID, s.db)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

// Login verifies the provided credentials and, on success, returns the user
// and a new TokenPair. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, common.ErrorInternal
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, nil, common.ErrorUnauthorized
	}
	pair, err := s.generateTokenPair(ctx, user.ID, s.db)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. An expired token yields ErrRefreshTokenExpired,
// an unknown one ErrorUnauthorized. Either way the presented token is spent.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(time.Now()) {
		_ = repo.Delete(ctx, refreshToken)
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.RefreshTokens(tx)
		if err := repoTx.Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, token.UserID, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revokes every refresh token issued to the user. The access token
// stays valid until its natural expiry.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	repo := s.repomanager.RefreshTokens(s.db)
	if err := repo.DeleteForUser(ctx, userID); err != nil {
		return common.ErrorInternal
	}
	return nil
}

// GetCurrentUser returns the account record for the authenticated user.
func (s *UserService) GetCurrentUser(ctx context.Context, userID string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	return user, nil
}

// ForgotPassword issues a single-use reset token for the account registered
// under email. Unknown emails are silently ignored so that the endpoint does
// not reveal which addresses exist.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	userRepo := s.repomanager.Users(s.db)
	user, err := userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return common.ErrorInternal
	}

	token, err := common.MakeRandHexString(32)
	if err != nil {
		return common.ErrorInternal
	}

	resetRepo := s.repomanager.PasswordResets(s.db)
	if err := resetRepo.Create(ctx, user.ID, token, s.resetTokenValidityDuration); err != nil {
		return common.ErrorInternal
	}

	deliverResetToken(ctx, s.log, email, token)
	return nil
}

// ResetPassword consumes a reset token and sets a new password. On success
// every refresh token of the user is revoked, forcing all sessions to
// re-authenticate. Expired tokens yield ErrResetTokenExpired.
func (s *UserService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	resetRepo := s.repomanager.PasswordResets(s.db)

	reset, err := resetRepo.Find(ctx, resetToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidToken
		}
		return common.ErrorInternal
	}
	if reset.Expires.Before(time.Now()) {
		_ = resetRepo.Delete(ctx, resetToken)
		return common.ErrResetTokenExpired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return common.ErrorInternal
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.PasswordResets(tx).Delete(ctx, resetToken); err != nil {
			return fmt.Errorf("error deleting reset token: %w", err)
		}
		if err := s.repomanager.Users(tx).UpdatePasswordHash(ctx, reset.UserID, hash); err != nil {
			return fmt.Errorf("error updating password: %w", err)
		}
		if err := s.repomanager.RefreshTokens(tx).DeleteForUser(ctx, reset.UserID); err != nil {
			return fmt.Errorf("error revoking sessions: %w", err)
		}
		return nil
	})
}

// --- helpers below ---

func (s *UserService) generateAccessToken(userID string) (string, error) {
	return auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *UserService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *UserService) generateTokenPair(ctx context.Context, userID string, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.generateAccessToken(userID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}
	refreshRepo := s.repomanager.RefreshTokens(tx)
	if err := refreshRepo.Create(ctx, userID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(s.accessTokenValidityDuration),
	}, nil
}
