package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/common"
)

// HTTPClient implements Client over the backend's JSON API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

func NewHTTPClient(baseURL string, timeout time.Duration, tokens TokenSource) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// mapTransportError categorizes a failure from http.Client.Do.
func mapTransportError(err error) *NetworkError {
	var certErr *tls.CertificateVerificationError
	var x509Err x509.UnknownAuthorityError
	var netErr net.Error
	var opErr *net.OpError

	switch {
	case errors.Is(err, context.Canceled):
		return &NetworkError{Kind: NetworkErrorCancelled, Err: err}
	case errors.As(err, &certErr), errors.As(err, &x509Err):
		return &NetworkError{Kind: NetworkErrorCertificate, Err: err}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &NetworkError{Kind: NetworkErrorTimeout, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &NetworkError{Kind: NetworkErrorTimeout, Err: err}
	case errors.As(err, &opErr):
		return &NetworkError{Kind: NetworkErrorConnection, Err: err}
	default:
		return &NetworkError{Kind: NetworkErrorUnknown, Err: err}
	}
}

// do executes a JSON request and decodes a JSON response into out. The
// returned bool reports whether a payload was actually decoded; an empty
// 2xx body leaves out untouched and yields false, so callers can surface
// absence as nil instead of a zero-value object. Non-2xx statuses are
// mapped at this boundary: 5xx to *NetworkError, 4xx to *SessionError.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any, authed bool, extra map[string]string, out any) (bool, error) {
	var reqBody io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return false, fmt.Errorf("request encoding error: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return false, fmt.Errorf("request creation error: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if authed {
		token, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return false, fmt.Errorf("access token read error: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	for k, v := range extra {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, mapTransportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, &NetworkError{Kind: NetworkErrorUnknown, Err: err}
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return false, &NetworkError{Kind: NetworkErrorBadResponse, StatusCode: resp.StatusCode}
	case resp.StatusCode >= http.StatusBadRequest:
		var er errorResponse
		msg := resp.Status
		if json.Unmarshal(data, &er) == nil && er.Error != "" {
			msg = er.Error
		}
		return false, &SessionError{Message: msg}
	}

	if out == nil || len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, &NetworkError{Kind: NetworkErrorUnknown, Err: fmt.Errorf("response decoding error: %w", err)}
	}
	return true, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	req := map[string]string{"email": email, "password": password}
	resp := &models.AuthResponse{}
	ok, err := c.do(ctx, http.MethodPost, "/auth/login", req, false, nil, resp)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return resp, nil
}

func (c *HTTPClient) Register(ctx context.Context, name, email, password string) (*models.AuthResponse, error) {
	req := map[string]string{"name": name, "email": email, "password": password}
	resp := &models.AuthResponse{}
	ok, err := c.do(ctx, http.MethodPost, "/auth/register", req, false, nil, resp)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return resp, nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/logout", struct{}{}, true, nil, nil)
	return err
}

// GetCurrentUser fetches the authenticated identity. An empty 200 body
// means the backend had nothing to say; that is reported as (nil, nil)
// rather than a zero-value user.
func (c *HTTPClient) GetCurrentUser(ctx context.Context) (*models.User, error) {
	user := &models.User{}
	ok, err := c.do(ctx, http.MethodGet, "/auth/me", nil, true, nil, user)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return user, nil
}

// RefreshToken exchanges the stored refresh token for a rotated pair. The
// body stays empty; the token travels in the X-Refresh-Token header.
func (c *HTTPClient) RefreshToken(ctx context.Context) (*models.TokenPair, error) {
	refreshToken, err := c.tokens.RefreshToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh token read error: %w", err)
	}

	headers := map[string]string{common.RefreshTokenHeaderName: refreshToken}
	pair := &models.TokenPair{}
	ok, err := c.do(ctx, http.MethodPost, "/auth/refresh", struct{}{}, false, headers, pair)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return pair, nil
}

func (c *HTTPClient) ForgotPassword(ctx context.Context, email string) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email}, false, nil, nil)
	return err
}

func (c *HTTPClient) ResetPassword(ctx context.Context, token, password string) error {
	req := map[string]string{"token": token, "password": password}
	_, err := c.do(ctx, http.MethodPost, "/auth/reset-password", req, false, nil, nil)
	return err
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
