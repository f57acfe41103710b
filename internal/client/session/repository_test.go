package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/client"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
)

// fakeClient implements client.Client for repository unit tests.
type fakeClient struct {
	LoginResp  *models.AuthResponse
	LoginErr   error
	LoginCalls int

	RegisterResp *models.AuthResponse
	RegisterErr  error

	LogoutErr   error
	LogoutCalls int

	UserResp  *models.User
	UserErr   error
	UserCalls int

	RefreshPair  *models.TokenPair
	RefreshErr   error
	RefreshCalls int

	ForgotErr error
	ResetErr  error
}

func (f *fakeClient) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	f.LoginCalls++
	return f.LoginResp, f.LoginErr
}

func (f *fakeClient) Register(ctx context.Context, name, email, password string) (*models.AuthResponse, error) {
	return f.RegisterResp, f.RegisterErr
}

func (f *fakeClient) Logout(ctx context.Context) error {
	f.LogoutCalls++
	return f.LogoutErr
}

func (f *fakeClient) GetCurrentUser(ctx context.Context) (*models.User, error) {
	f.UserCalls++
	return f.UserResp, f.UserErr
}

func (f *fakeClient) RefreshToken(ctx context.Context) (*models.TokenPair, error) {
	f.RefreshCalls++
	return f.RefreshPair, f.RefreshErr
}

func (f *fakeClient) ForgotPassword(ctx context.Context, email string) error { return f.ForgotErr }

func (f *fakeClient) ResetPassword(ctx context.Context, token, password string) error {
	return f.ResetErr
}

func (f *fakeClient) Close() error { return nil }

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func authResponse(id string) *models.AuthResponse {
	now := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	return &models.AuthResponse{
		User:         &models.User{ID: id, Name: "Alice", Email: "a@x.com", CreatedAt: now, UpdatedAt: now},
		AccessToken:  "AT1",
		RefreshToken: "RT1",
		ExpiresAt:    now.Add(time.Hour),
	}
}

func outageErr() error {
	return &client.NetworkError{Kind: client.NetworkErrorConnection}
}

func newRepo(t *testing.T, fc *fakeClient) (*Repository, *Store) {
	t.Helper()
	store := NewStore(setupDB(t))
	return NewRepository(fc, store, testLogger()), store
}

func TestLogin_PersistsSession(t *testing.T) {
	fc := &fakeClient{LoginResp: authResponse("1")}
	repo, store := newRepo(t, fc)
	ctx := context.Background()

	user, err := repo.Login(ctx, "a@x.com", "p1", false)
	require.NoError(t, err)
	require.Equal(t, "1", user.ID)

	require.True(t, repo.IsLoggedIn(ctx))

	cached, err := store.CachedUser(ctx)
	require.NoError(t, err)
	require.Equal(t, "1", cached.ID)

	access, err := store.AccessToken(ctx)
	require.NoError(t, err)
	require.Equal(t, "AT1", access)

	// remember=false must not leave credentials behind
	creds, err := store.SavedCredentials(ctx)
	require.NoError(t, err)
	require.Nil(t, creds)
}

func TestLogin_RememberMeSavesCredentials(t *testing.T) {
	fc := &fakeClient{LoginResp: authResponse("1")}
	repo, store := newRepo(t, fc)
	ctx := context.Background()

	_, err := repo.Login(ctx, "a@x.com", "p1", true)
	require.NoError(t, err)

	creds, err := store.SavedCredentials(ctx)
	require.NoError(t, err)
	require.Equal(t, "a@x.com", creds.Email)
	require.Equal(t, "p1", creds.Password)
}

func TestLogin_OfflineFallback(t *testing.T) {
	fc := &fakeClient{LoginResp: authResponse("1")}
	repo, store := newRepo(t, fc)
	ctx := context.Background()

	_, err := repo.Login(ctx, "a@x.com", "p1", true)
	require.NoError(t, err)

	// total network outage
	fc.LoginResp = nil
	fc.LoginErr = outageErr()

	user, err := repo.Login(ctx, "a@x.com", "p1", true)
	require.NoError(t, err)
	require.Equal(t, "1", user.ID)

	// degraded session: no new tokens were issued
	access, err := store.AccessToken(ctx)
	require.NoError(t, err)
	require.Equal(t, "AT1", access)

	// wrong password under the same outage: no credential match, no fallback
	_, err = repo.Login(ctx, "a@x.com", "wrong", true)
	require.Error(t, err)
	require.True(t, client.IsNetworkError(err))
}

func TestLogin_NoFallbackWithoutSavedCredentials(t *testing.T) {
	fc := &fakeClient{LoginErr: outageErr()}
	repo, _ := newRepo(t, fc)

	_, err := repo.Login(context.Background(), "a@x.com", "p1", false)
	require.True(t, client.IsNetworkError(err))
}

func TestLogin_DomainRejectionSkipsFallback(t *testing.T) {
	fc := &fakeClient{LoginResp: authResponse("1")}
	repo, _ := newRepo(t, fc)
	ctx := context.Background()

	_, err := repo.Login(ctx, "a@x.com", "p1", true)
	require.NoError(t, err)

	fc.LoginResp = nil
	fc.LoginErr = &client.SessionError{Message: "invalid credentials"}

	// saved credentials match, but a server rejection is not a network
	// failure and must surface unchanged
	_, err = repo.Login(ctx, "a@x.com", "p1", true)
	var sessionErr *client.SessionError
	require.ErrorAs(t, err, &sessionErr)
	require.Equal(t, "invalid credentials", sessionErr.Message)
}

func TestRegister_PersistsSessionNoFallback(t *testing.T) {
	fc := &fakeClient{RegisterResp: authResponse("2")}
	repo, store := newRepo(t, fc)
	ctx := context.Background()

	user, err := repo.Register(ctx, "Alice", "a@x.com", "p1")
	require.NoError(t, err)
	require.Equal(t, "2", user.ID)
	require.True(t, repo.IsLoggedIn(ctx))

	fc.RegisterResp = nil
	fc.RegisterErr = outageErr()
	_, err = repo.Register(ctx, "Bob", "b@x.com", "p2")
	require.True(t, client.IsNetworkError(err))

	// session of the earlier registration is untouched
	cached, err := store.CachedUser(ctx)
	require.NoError(t, err)
	require.Equal(t, "2", cached.ID)
}

func TestLogout_AlwaysClearsLocally(t *testing.T) {
	fc := &fakeClient{LoginResp: authResponse("1"), LogoutErr: outageErr()}
	repo, store := newRepo(t, fc)
	ctx := context.Background()

	_, err := repo.Login(ctx, "a@x.com", "p1", true)
	require.NoError(t, err)

	// remote logout fails, local teardown must still happen
	require.NoError(t, repo.Logout(ctx))

	require.False(t, repo.IsLoggedIn(ctx))

	cached, err := store.CachedUser(ctx)
	require.NoError(t, err)
	require.Nil(t, cached)

	creds, err := store.SavedCredentials(ctx)
	require.NoError(t, err)
	require.Nil(t, creds)
}

func TestGetCurrentUser_ColdCache(t *testing.T) {
	fc := &fakeClient{UserResp: &models.User{ID: "1", Name: "Alice"}}
	repo, store := newRepo(t, fc)
	ctx := context.Background()

	user, err := repo.GetCurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, "1", user.ID)

	// remote success populated the cache
	cached, err := store.CachedUser(ctx)
	require.NoError(t, err)
	require.Equal(t, "1", cached.ID)
}

func TestGetCurrentUser_ColdCacheRemoteFailureMeansNoSession(t *testing.T) {
	fc := &fakeClient{UserErr: outageErr()}
	repo, _ := newRepo(t, fc)

	user, err := repo.GetCurrentUser(context.Background())
	require.NoError(t, err)
	require.Nil(t, user)
}

func TestGetCurrentUser_WarmCacheRefreshThrough(t *testing.T) {
	fc := &fakeClient{}
	repo, store := newRepo(t, fc)
	ctx := context.Background()

	require.NoError(t, store.CacheUser(ctx, &models.User{ID: "1", Name: "Stale"}))

	// remote failure: silently fall back to the stale record
	fc.UserErr = outageErr()
	user, err := repo.GetCurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, "Stale", user.Name)

	// remote success: overwrite the cache with the fresh record
	fc.UserErr = nil
	fc.UserResp = &models.User{ID: "1", Name: "Fresh"}
	user, err = repo.GetCurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, "Fresh", user.Name)

	cached, err := store.CachedUser(ctx)
	require.NoError(t, err)
	require.Equal(t, "Fresh", cached.Name)
}

func TestRefreshToken_NoStoredTokenSkipsRemoteCall(t *testing.T) {
	fc := &fakeClient{}
	repo, _ := newRepo(t, fc)

	require.False(t, repo.RefreshToken(context.Background()))
	require.Equal(t, 0, fc.RefreshCalls)
}

func TestRefreshToken_SuccessPersistsRotatedPair(t *testing.T) {
	fc := &fakeClient{LoginResp: authResponse("1")}
	repo, store := newRepo(t, fc)
	ctx := context.Background()

	_, err := repo.Login(ctx, "a@x.com", "p1", false)
	require.NoError(t, err)

	fc.RefreshPair = &models.TokenPair{AccessToken: "AT2", RefreshToken: "RT2"}
	require.True(t, repo.RefreshToken(ctx))
	require.Equal(t, 1, fc.RefreshCalls)

	access, err := store.AccessToken(ctx)
	require.NoError(t, err)
	require.Equal(t, "AT2", access)

	refresh, err := store.RefreshToken(ctx)
	require.NoError(t, err)
	require.Equal(t, "RT2", refresh)
}

func TestRefreshToken_FailureCascadesToLogout(t *testing.T) {
	fc := &fakeClient{LoginResp: authResponse("1")}
	repo, store := newRepo(t, fc)
	ctx := context.Background()

	_, err := repo.Login(ctx, "a@x.com", "p1", true)
	require.NoError(t, err)

	fc.RefreshErr = &client.SessionError{Message: "refresh token expired"}
	require.False(t, repo.RefreshToken(ctx))

	// cascade completeness: the whole session is gone
	require.False(t, repo.IsLoggedIn(ctx))
	require.Equal(t, 1, fc.LogoutCalls)

	cached, err := store.CachedUser(ctx)
	require.NoError(t, err)
	require.Nil(t, cached)
}

func TestIsLoggedIn_SelfHealsMissingAccessToken(t *testing.T) {
	fc := &fakeClient{RefreshPair: &models.TokenPair{AccessToken: "AT2", RefreshToken: "RT2"}}
	repo, store := newRepo(t, fc)
	ctx := context.Background()

	// flag raised but the access token is gone, refresh token still present
	require.NoError(t, store.SaveRefreshToken(ctx, "RT1"))
	require.NoError(t, store.SetLoginStatus(ctx, true))

	require.True(t, repo.IsLoggedIn(ctx))
	require.Equal(t, 1, fc.RefreshCalls)

	access, err := store.AccessToken(ctx)
	require.NoError(t, err)
	require.Equal(t, "AT2", access)
}

func TestIsLoggedIn_SelfHealFailureEndsSession(t *testing.T) {
	fc := &fakeClient{RefreshErr: outageErr()}
	repo, store := newRepo(t, fc)
	ctx := context.Background()

	require.NoError(t, store.SaveRefreshToken(ctx, "RT1"))
	require.NoError(t, store.SetLoginStatus(ctx, true))

	require.False(t, repo.IsLoggedIn(ctx))
	require.False(t, repo.IsLoggedIn(ctx)) // stays false afterwards
}

// A storage failure in the middle of the ordered commit must fail the login
// as a whole: no later step runs, and the login-status flag is never raised
// without the tokens already on disk.
func TestLogin_PartialPersistFailsWholeOperation(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	setQ := `(?s)^\s*INSERT\s+INTO\s+metadata\s*\(key,\s*value\)\s*VALUES\s*\(\?,\s*\?\)\s*ON\s+CONFLICT\(key\)\s+DO\s+UPDATE\s+SET\s+value\s*=\s*excluded\.value\s*$`

	// Access token write succeeds, refresh token write fails. Nothing after
	// that may touch the store; sqlmock rejects any unscripted statement.
	mock.ExpectExec(setQ).
		WithArgs("access_token", []byte("AT1")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(setQ).
		WithArgs("refresh_token", []byte("RT1")).
		WillReturnError(errors.New("disk full"))

	fc := &fakeClient{LoginResp: authResponse("1")}
	repo := NewRepository(fc, NewStore(db), testLogger())

	_, err = repo.Login(context.Background(), "a@x.com", "p1", false)

	var sessionErr *client.SessionError
	require.ErrorAs(t, err, &sessionErr)
	require.NoError(t, mock.ExpectationsWereMet(), "the flag must never be written after a failed step")
}
