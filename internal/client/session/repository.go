// Package session implements the client's session engine: a typed local
// store over the durable key/value repository and the repository
// orchestrating remote auth calls against it, including the offline
// credential fallback and the refresh-failure logout cascade.
package session

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/client"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
)

// Repository is the sole writer of session state. Write paths (the login
// persistence sequence, the logout cascade, refresh rotation) are serialized
// behind a session-write lock; reads proceed without it.
type Repository struct {
	client client.Client
	store  *Store
	log    logging.Logger
	mu     sync.Mutex
}

func NewRepository(c client.Client, store *Store, log logging.Logger) *Repository {
	return &Repository{client: c, store: store, log: log}
}

// persistSession commits the session in a fixed order, each step's success
// gating the next: access token, refresh token, cached user, then the
// login-status flag. The flag is never written before the tokens.
func (r *Repository) persistSession(ctx context.Context, resp *models.AuthResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.SaveAccessToken(ctx, resp.AccessToken); err != nil {
		return err
	}
	if err := r.store.SaveRefreshToken(ctx, resp.RefreshToken); err != nil {
		return err
	}
	if err := r.store.CacheUser(ctx, resp.User); err != nil {
		return err
	}
	return r.store.SetLoginStatus(ctx, true)
}

// offlineLogin is the fallback path for a network outage: it succeeds only
// when the caller previously opted into "remember me", the presented
// credentials match the saved ones exactly, and a cached user exists.
// The returned session is degraded: no new tokens are issued.
func (r *Repository) offlineLogin(ctx context.Context, email, password string) (*models.User, error) {
	saved, err := r.store.SavedCredentials(ctx)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, common.ErrorUnauthorized
	}

	emailOK := subtle.ConstantTimeCompare([]byte(saved.Email), []byte(email)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(saved.Password), []byte(password)) == 1
	if !emailOK || !passwordOK {
		return nil, common.ErrorUnauthorized
	}

	user, err := r.store.CachedUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, common.ErrorNotFound
	}
	return user, nil
}

// Login authenticates against the backend and commits the session locally.
// On a network failure it attempts the offline fallback; any other failure
// is returned as-is.
func (r *Repository) Login(ctx context.Context, email, password string, rememberMe bool) (*models.User, error) {
	resp, err := r.client.Login(ctx, email, password)
	if err != nil {
		if client.IsNetworkError(err) {
			user, fallbackErr := r.offlineLogin(ctx, email, password)
			if fallbackErr == nil {
				r.log.Warn(ctx, "network unavailable, using cached session", "email", email)
				return user, nil
			}
			r.log.Warn(ctx, "offline fallback failed", "error", fallbackErr)
		}
		return nil, err
	}
	if resp == nil || resp.User == nil {
		return nil, &client.SessionError{Message: "empty auth response"}
	}

	if err := r.persistSession(ctx, resp); err != nil {
		return nil, &client.SessionError{Message: "failed to persist session", Err: err}
	}

	if rememberMe {
		// Best effort: a failure here must not fail the login.
		if err := r.store.SaveCredentials(ctx, email, password); err != nil {
			r.log.Warn(ctx, "failed to save credentials", "error", err)
		}
	}

	return resp.User, nil
}

// Register creates an account and commits the session with the same ordered
// persistence as Login. There is no offline equivalent for registration.
func (r *Repository) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	resp, err := r.client.Register(ctx, name, email, password)
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.User == nil {
		return nil, &client.SessionError{Message: "empty auth response"}
	}

	if err := r.persistSession(ctx, resp); err != nil {
		return nil, &client.SessionError{Message: "failed to persist session", Err: err}
	}

	return resp.User, nil
}

// Logout tears the session down. The remote call is best effort; the local
// clear always runs, so logout succeeds locally even when the server is
// unreachable.
func (r *Repository) Logout(ctx context.Context) error {
	if err := r.client.Logout(ctx); err != nil {
		r.log.Warn(ctx, "remote logout failed", "error", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	if err := r.store.ClearTokens(ctx); err != nil {
		firstErr = err
	}
	if err := r.store.ClearCachedUser(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := r.store.ClearSavedCredentials(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// GetCurrentUser is the cache-first, refresh-through identity read. With a
// warm cache a remote failure silently yields the stale record; with a cold
// cache a remote failure means no session and yields nil.
func (r *Repository) GetCurrentUser(ctx context.Context) (*models.User, error) {
	cached, err := r.store.CachedUser(ctx)
	if err != nil {
		return nil, err
	}

	fresh, remoteErr := r.client.GetCurrentUser(ctx)

	if cached != nil {
		if remoteErr != nil || fresh == nil {
			r.log.Warn(ctx, "profile refresh failed, returning cached user", "error", remoteErr)
			return cached, nil
		}
		r.mu.Lock()
		cacheErr := r.store.CacheUser(ctx, fresh)
		r.mu.Unlock()
		if cacheErr != nil {
			r.log.Warn(ctx, "failed to refresh cached user", "error", cacheErr)
		}
		return fresh, nil
	}

	if remoteErr != nil || fresh == nil {
		return nil, nil
	}
	r.mu.Lock()
	cacheErr := r.store.CacheUser(ctx, fresh)
	r.mu.Unlock()
	if cacheErr != nil {
		return nil, cacheErr
	}
	return fresh, nil
}

// IsLoggedIn checks the persisted flag and access token. A raised flag with
// a missing access token is a race/corruption case; the check self-heals by
// attempting a token refresh and returning its result.
func (r *Repository) IsLoggedIn(ctx context.Context) bool {
	flag, err := r.store.LoginStatus(ctx)
	if err != nil {
		r.log.Warn(ctx, "login status read failed", "error", err)
		return false
	}
	if !flag {
		return false
	}

	token, err := r.store.AccessToken(ctx)
	if err != nil {
		r.log.Warn(ctx, "access token read failed", "error", err)
		return false
	}
	if token == "" {
		return r.RefreshToken(ctx)
	}
	return true
}

// RefreshToken rotates the token pair. Without a stored refresh token it
// returns false without any remote call. Any remote failure is treated as a
// hard failure: the full logout cascade runs and the session ends.
func (r *Repository) RefreshToken(ctx context.Context) bool {
	stored, err := r.store.RefreshToken(ctx)
	if err != nil {
		r.log.Warn(ctx, "refresh token read failed", "error", err)
		return false
	}
	if stored == "" {
		return false
	}

	pair, err := r.client.RefreshToken(ctx)
	if err != nil || pair == nil || pair.AccessToken == "" {
		if err != nil {
			r.log.Warn(ctx, "token refresh rejected", "error", err)
		}
		if logoutErr := r.Logout(ctx); logoutErr != nil {
			r.log.Error(ctx, "logout cascade failed", "error", logoutErr)
		}
		return false
	}

	if err := r.persistTokenPair(ctx, pair); err != nil {
		r.log.Error(ctx, "failed to persist rotated tokens", "error", err)
		if logoutErr := r.Logout(ctx); logoutErr != nil {
			r.log.Error(ctx, "logout cascade failed", "error", logoutErr)
		}
		return false
	}
	return true
}

func (r *Repository) persistTokenPair(ctx context.Context, pair *models.TokenPair) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.SaveAccessToken(ctx, pair.AccessToken); err != nil {
		return err
	}
	return r.store.SaveRefreshToken(ctx, pair.RefreshToken)
}

// ForgotPassword asks the backend to start the password-reset flow.
func (r *Repository) ForgotPassword(ctx context.Context, email string) error {
	if err := r.client.ForgotPassword(ctx, email); err != nil {
		return fmt.Errorf("forgot password error: %w", err)
	}
	return nil
}

// ResetPassword completes the password-reset flow with an emailed token.
func (r *Repository) ResetPassword(ctx context.Context, token, password string) error {
	if err := r.client.ResetPassword(ctx, token, password); err != nil {
		return fmt.Errorf("reset password error: %w", err)
	}
	return nil
}
