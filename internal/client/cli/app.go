// Package cli implements the interactive SessionKeeper client: a small REPL
// over the observable session view-state.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/client"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/config"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/session"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/state"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"

	_ "modernc.org/sqlite"
)

// passwordResetter is the slice of the session repository backing the
// password-reset commands.
type passwordResetter interface {
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
}

type App struct {
	config    *config.Config
	session   *state.Session
	repo      passwordResetter
	apiClient client.Client
	reader    *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	store := session.NewStore(db)
	apiClient := client.NewHTTPClient(c.ServerBaseURL, c.RequestTimeout, store)
	repo := session.NewRepository(apiClient, store, logger)

	return &App{
		config:    c,
		session:   state.NewSession(repo, logger),
		repo:      repo,
		apiClient: apiClient,
		reader:    bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.apiClient.Close()

	unsubscribe := a.session.Subscribe(func(s state.Snapshot) {
		switch s.Status {
		case state.StatusAuthenticated:
			fmt.Printf("Signed in as %s\n", s.User.Email)
		case state.StatusAuthenticationFailed:
			fmt.Printf("Authentication failed: %s\n", s.ErrorMessage)
		case state.StatusUnauthenticated:
			fmt.Println("Signed out")
		}
	})
	defer unsubscribe()

	a.session.Initialize(ctx)
	a.Root(ctx)
}
