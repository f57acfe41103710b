package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/sessionkeeper/internal/dbx"
)

// Storage keys are a stable namespace; renaming any of them requires a
// migration.
const (
	keyAccessToken      = "access_token"
	keyRefreshToken     = "refresh_token"
	keyCachedUser       = "cached_user"
	keySavedCredentials = "saved_credentials"
	keyIsLoggedIn       = "is_logged_in"
)

// Store is the typed local session store over the key/value metadata
// repository: tokens, the cached user snapshot, opt-in saved credentials,
// and the login-status flag. All failures surface as *StorageError.
type Store struct {
	db   *sql.DB
	repo metadata.Repository
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, repo: metadata.NewSQLiteRepository(db)}
}

func (s *Store) getString(ctx context.Context, key string) (string, error) {
	v, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", &StorageError{Op: "get", Key: key, Err: err}
	}
	return string(v), nil
}

func (s *Store) setString(ctx context.Context, key, value string) error {
	if err := s.repo.Set(ctx, key, []byte(value)); err != nil {
		return &StorageError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// AccessToken returns the stored access token, or "" when absent.
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	return s.getString(ctx, keyAccessToken)
}

func (s *Store) SaveAccessToken(ctx context.Context, token string) error {
	return s.setString(ctx, keyAccessToken, token)
}

// RefreshToken returns the stored refresh token, or "" when absent.
func (s *Store) RefreshToken(ctx context.Context) (string, error) {
	return s.getString(ctx, keyRefreshToken)
}

func (s *Store) SaveRefreshToken(ctx context.Context, token string) error {
	return s.setString(ctx, keyRefreshToken, token)
}

// ClearTokens deletes both tokens and resets the login-status flag as a
// single transactional unit. Logout paths must use this instead of deleting
// the keys one by one.
func (s *Store) ClearTokens(ctx context.Context) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Delete(ctx, keyAccessToken); err != nil {
			return err
		}
		if err := repo.Delete(ctx, keyRefreshToken); err != nil {
			return err
		}
		return repo.Set(ctx, keyIsLoggedIn, []byte(strconv.FormatBool(false)))
	})
	if err != nil {
		return &StorageError{Op: "clear_tokens", Err: err}
	}
	return nil
}

// CachedUser returns the cached user snapshot, or nil when absent.
func (s *Store) CachedUser(ctx context.Context) (*models.User, error) {
	data, err := s.repo.Get(ctx, keyCachedUser)
	if err != nil {
		return nil, &StorageError{Op: "get", Key: keyCachedUser, Err: err}
	}
	if data == nil {
		return nil, nil
	}
	user := &models.User{}
	if err := json.Unmarshal(data, user); err != nil {
		return nil, &StorageError{Op: "decode", Key: keyCachedUser, Err: err}
	}
	return user, nil
}

// CacheUser replaces the cached user snapshot as a whole record.
func (s *Store) CacheUser(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return &StorageError{Op: "encode", Key: keyCachedUser, Err: err}
	}
	if err := s.repo.Set(ctx, keyCachedUser, data); err != nil {
		return &StorageError{Op: "set", Key: keyCachedUser, Err: err}
	}
	return nil
}

func (s *Store) ClearCachedUser(ctx context.Context) error {
	if err := s.repo.Delete(ctx, keyCachedUser); err != nil {
		return &StorageError{Op: "delete", Key: keyCachedUser, Err: err}
	}
	return nil
}

// SaveCredentials persists the opt-in "remember me" fallback record.
func (s *Store) SaveCredentials(ctx context.Context, email, password string) error {
	creds := &models.SavedCredentials{Email: email, Password: password, SavedAt: time.Now()}
	data, err := json.Marshal(creds)
	if err != nil {
		return &StorageError{Op: "encode", Key: keySavedCredentials, Err: err}
	}
	if err := s.repo.Set(ctx, keySavedCredentials, data); err != nil {
		return &StorageError{Op: "set", Key: keySavedCredentials, Err: err}
	}
	return nil
}

// SavedCredentials returns the saved fallback credentials, or nil when the
// caller never opted in.
func (s *Store) SavedCredentials(ctx context.Context) (*models.SavedCredentials, error) {
	data, err := s.repo.Get(ctx, keySavedCredentials)
	if err != nil {
		return nil, &StorageError{Op: "get", Key: keySavedCredentials, Err: err}
	}
	if data == nil {
		return nil, nil
	}
	creds := &models.SavedCredentials{}
	if err := json.Unmarshal(data, creds); err != nil {
		return nil, &StorageError{Op: "decode", Key: keySavedCredentials, Err: err}
	}
	return creds, nil
}

func (s *Store) ClearSavedCredentials(ctx context.Context) error {
	if err := s.repo.Delete(ctx, keySavedCredentials); err != nil {
		return &StorageError{Op: "delete", Key: keySavedCredentials, Err: err}
	}
	return nil
}

// SetLoginStatus writes the raw login-status flag. Only the session
// repository may call it, as part of a larger sequenced operation.
func (s *Store) SetLoginStatus(ctx context.Context, loggedIn bool) error {
	return s.setString(ctx, keyIsLoggedIn, strconv.FormatBool(loggedIn))
}

// LoginStatus returns the raw persisted flag, without the token conjunction.
func (s *Store) LoginStatus(ctx context.Context) (bool, error) {
	v, err := s.getString(ctx, keyIsLoggedIn)
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

// IsLoggedIn recomputes the invariant flag && accessToken != "" on every
// call; the conjunction is never stored.
func (s *Store) IsLoggedIn(ctx context.Context) (bool, error) {
	flag, err := s.LoginStatus(ctx)
	if err != nil || !flag {
		return false, err
	}
	token, err := s.AccessToken(ctx)
	if err != nil {
		return false, err
	}
	return token != "", nil
}
