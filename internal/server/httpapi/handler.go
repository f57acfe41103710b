// Package httpapi exposes the authentication backend over HTTP/JSON using echo.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/services"
)

// UserBackend is the slice of UserService consumed by the handlers.
type UserBackend interface {
	Register(ctx context.Context, name, email, password string) (*models.User, *services.TokenPair, error)
	Login(ctx context.Context, email, password string) (*models.User, *services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	GetCurrentUser(ctx context.Context, userID string) (*models.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
}

// AvatarBackend is the slice of AvatarService consumed by the handlers.
type AvatarBackend interface {
	GetUploadURL(ctx context.Context, userID string) (string, string, error)
	GetDownloadURL(ctx context.Context, userID string) (string, error)
}

// Handler binds the service layer to echo routes.
type Handler struct {
	users   UserBackend
	avatars AvatarBackend
}

// NewHandler constructs a Handler over the given backends.
func NewHandler(users UserBackend, avatars AvatarBackend) *Handler {
	return &Handler{users: users, avatars: avatars}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type authResponse struct {
	User         *userResponse `json:"user"`
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	ExpiresAt    time.Time     `json:"expiresAt"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func toUserResponse(u *models.User) *userResponse {
	return &userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Avatar:    u.Avatar,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// serviceError translates service-layer sentinel errors into HTTP responses.
func serviceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		return errorJSON(c, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, common.ErrorAlreadyExists):
		return errorJSON(c, http.StatusConflict, "email already registered")
	case errors.Is(err, common.ErrorNotFound):
		return errorJSON(c, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return errorJSON(c, http.StatusUnauthorized, "refresh token expired")
	case errors.Is(err, common.ErrInvalidToken):
		return errorJSON(c, http.StatusBadRequest, "invalid token")
	case errors.Is(err, common.ErrResetTokenExpired):
		return errorJSON(c, http.StatusBadRequest, "reset token expired")
	default:
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}
}

// Register creates an account and signs the new user in.
func (h *Handler) Register(c echo.Context) error {
	req := &registerRequest{}
	if err := c.Bind(req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "malformed request")
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return errorJSON(c, http.StatusBadRequest, "name, email and password are required")
	}

	user, pair, err := h.users.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusCreated, &authResponse{
		User:         toUserResponse(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	})
}

// Login verifies credentials and issues a token pair.
func (h *Handler) Login(c echo.Context) error {
	req := &loginRequest{}
	if err := c.Bind(req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "malformed request")
	}
	if req.Email == "" || req.Password == "" {
		return errorJSON(c, http.StatusBadRequest, "email and password are required")
	}

	user, pair, err := h.users.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, &authResponse{
		User:         toUserResponse(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	})
}

// Refresh rotates the refresh token presented in the X-Refresh-Token header.
func (h *Handler) Refresh(c echo.Context) error {
	refreshToken := c.Request().Header.Get(common.RefreshTokenHeaderName)
	if refreshToken == "" {
		return errorJSON(c, http.StatusUnauthorized, "refresh token required")
	}

	pair, err := h.users.RefreshToken(c.Request().Context(), refreshToken)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, &tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout revokes every server-side session of the authenticated user.
func (h *Handler) Logout(c echo.Context) error {
	if err := h.users.Logout(c.Request().Context(), GetUserID(c)); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's account record.
func (h *Handler) Me(c echo.Context) error {
	user, err := h.users.GetCurrentUser(c.Request().Context(), GetUserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// ForgotPassword issues a reset token. The response is identical whether or
// not the email is registered.
func (h *Handler) ForgotPassword(c echo.Context) error {
	req := &forgotPasswordRequest{}
	if err := c.Bind(req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "malformed request")
	}
	if req.Email == "" {
		return errorJSON(c, http.StatusBadRequest, "email is required")
	}

	if err := h.users.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// ResetPassword consumes a reset token and sets a new password.
func (h *Handler) ResetPassword(c echo.Context) error {
	req := &resetPasswordRequest{}
	if err := c.Bind(req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "malformed request")
	}
	if req.Token == "" || req.Password == "" {
		return errorJSON(c, http.StatusBadRequest, "token and password are required")
	}

	if err := h.users.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// AvatarUploadURL returns a presigned PUT URL for the user's avatar.
func (h *Handler) AvatarUploadURL(c echo.Context) error {
	key, url, err := h.avatars.GetUploadURL(c.Request().Context(), GetUserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"key": key, "url": url})
}

// AvatarDownloadURL returns a presigned GET URL for the user's avatar.
func (h *Handler) AvatarDownloadURL(c echo.Context) error {
	url, err := h.avatars.GetDownloadURL(c.Request().Context(), GetUserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}
