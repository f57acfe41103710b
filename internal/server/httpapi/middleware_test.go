package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/auth"
)

func authProtectedEcho(secret []byte) *echo.Echo {
	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		return c.String(http.StatusOK, GetUserID(c))
	}, RequireAuth(secret))
	return e
}

func TestRequireAuth_ValidToken(t *testing.T) {
	secret := []byte("secret")
	e := authProtectedEcho(secret)

	token, err := auth.GenerateToken("u-1", secret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-1", rec.Body.String())
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	e := authProtectedEcho([]byte("secret"))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	secret := []byte("secret")
	e := authProtectedEcho(secret)

	token, err := auth.GenerateToken("u-1", secret, -1*time.Second)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_WrongSecret(t *testing.T) {
	e := authProtectedEcho([]byte("right"))

	token, err := auth.GenerateToken("u-1", []byte("wrong"), time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
