package httpapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/auth"
)

const userIDContextKey = "userID"

// RequireAuth validates the Bearer access token and stores the user ID on
// the request context for downstream handlers.
func RequireAuth(secretKey []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) {
				return errorJSON(c, http.StatusUnauthorized, "authorization required")
			}

			userID, err := auth.GetUserIDFromToken(strings.TrimPrefix(header, prefix), secretKey)
			if err != nil {
				return errorJSON(c, http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(userIDContextKey, userID)
			return next(c)
		}
	}
}

// GetUserID returns the authenticated user ID stored by RequireAuth, or ""
// for unauthenticated requests.
func GetUserID(c echo.Context) string {
	if id, ok := c.Get(userIDContextKey).(string); ok {
		return id
	}
	return ""
}
