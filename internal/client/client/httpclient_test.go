package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
)

type staticTokens struct {
	access  string
	refresh string
}

func (s *staticTokens) AccessToken(ctx context.Context) (string, error)  { return s.access, nil }
func (s *staticTokens) RefreshToken(ctx context.Context) (string, error) { return s.refresh, nil }

func TestLogin_DecodesAuthResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "a@x.com", body["email"])
		require.Equal(t, "p1", body["password"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"user":{"id":"1","name":"Alice","email":"a@x.com"},"accessToken":"AT1","refreshToken":"RT1"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, 5*time.Second, &staticTokens{})
	resp, err := c.Login(context.Background(), "a@x.com", "p1")
	require.NoError(t, err)
	require.Equal(t, "1", resp.User.ID)
	require.Equal(t, "AT1", resp.AccessToken)
	require.Equal(t, "RT1", resp.RefreshToken)
}

func TestGetCurrentUser_SendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer AT1", r.Header.Get("Authorization"))
		w.Write([]byte(`{"id":"1","name":"Alice"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, 5*time.Second, &staticTokens{access: "AT1"})
	user, err := c.GetCurrentUser(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Alice", user.Name)
}

func TestRefreshToken_SendsHeaderAndDecodesPair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/refresh", r.URL.Path)
		require.Equal(t, "RT1", r.Header.Get(common.RefreshTokenHeaderName))
		w.Write([]byte(`{"accessToken":"AT2","refreshToken":"RT2"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, 5*time.Second, &staticTokens{refresh: "RT1"})
	pair, err := c.RefreshToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "AT2", pair.AccessToken)
	require.Equal(t, "RT2", pair.RefreshToken)
}

func TestDo_ServerErrorIsBadResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, 5*time.Second, &staticTokens{})
	_, err := c.Login(context.Background(), "a@x.com", "p1")

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Equal(t, NetworkErrorBadResponse, netErr.Kind)
	require.Equal(t, http.StatusInternalServerError, netErr.StatusCode)
}

func TestDo_DomainRejectionIsSessionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid credentials"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, 5*time.Second, &staticTokens{})
	_, err := c.Login(context.Background(), "a@x.com", "wrong")

	var sessionErr *SessionError
	require.ErrorAs(t, err, &sessionErr)
	require.Equal(t, "invalid credentials", sessionErr.Message)
	require.False(t, IsNetworkError(err))
}

func TestDo_ConnectionRefusedIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens anymore

	c := NewHTTPClient(srv.URL, 2*time.Second, &staticTokens{})
	_, err := c.Login(context.Background(), "a@x.com", "p1")

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Equal(t, NetworkErrorConnection, netErr.Kind)
}

func TestDo_TimeoutIsCategorized(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer func() { close(block); srv.Close() }()

	c := NewHTTPClient(srv.URL, 50*time.Millisecond, &staticTokens{})
	_, err := c.Login(context.Background(), "a@x.com", "p1")

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Equal(t, NetworkErrorTimeout, netErr.Kind)
}

func TestDo_CancelledContext(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer func() { close(block); srv.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	c := NewHTTPClient(srv.URL, 5*time.Second, &staticTokens{})
	_, err := c.Login(ctx, "a@x.com", "p1")

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Equal(t, NetworkErrorCancelled, netErr.Kind)
}

func TestLogout_EmptyResponseBodyIsFine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, 5*time.Second, &staticTokens{access: "AT1"})
	require.NoError(t, c.Logout(context.Background()))
}

func TestMapTransportError_Unknown(t *testing.T) {
	ne := mapTransportError(errors.New("weird"))
	require.Equal(t, NetworkErrorUnknown, ne.Kind)
}

func TestGetCurrentUser_EmptyBodyIsNilUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, 5*time.Second, &staticTokens{access: "AT1"})
	user, err := c.GetCurrentUser(context.Background())
	require.NoError(t, err)
	require.Nil(t, user, "an empty payload must not produce a zero-value user")
}

func TestLogin_EmptyBodyIsNilResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, 5*time.Second, &staticTokens{})
	resp, err := c.Login(context.Background(), "a@x.com", "p1")
	require.NoError(t, err)
	require.Nil(t, resp)
}

func TestRefreshToken_EmptyBodyIsNilPair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, 5*time.Second, &staticTokens{refresh: "RT1"})
	pair, err := c.RefreshToken(context.Background())
	require.NoError(t, err)
	require.Nil(t, pair)
}
