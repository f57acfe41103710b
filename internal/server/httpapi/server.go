package httpapi

import (
	"context"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/config"
)

// Server wraps echo with the route table of the authentication API.
type Server struct {
	echo *echo.Echo
	addr string
}

// NewServer builds the echo instance and registers all routes.
func NewServer(cfg *config.Config, h *Handler) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			c.Logger().Infof("%s %s -> %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))

	g := e.Group("/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/refresh", h.Refresh)
	g.POST("/forgot-password", h.ForgotPassword)
	g.POST("/reset-password", h.ResetPassword)

	secret := []byte(cfg.SecretKey)
	g.POST("/logout", h.Logout, RequireAuth(secret))
	g.GET("/me", h.Me, RequireAuth(secret))

	a := e.Group("/avatar", RequireAuth(secret))
	a.POST("/upload-url", h.AvatarUploadURL)
	a.GET("/download-url", h.AvatarDownloadURL)

	return &Server{echo: e, addr: cfg.EndpointAddr}
}

// Start blocks serving HTTP until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	return s.echo.Start(s.addr)
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo exposes the underlying echo instance for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
