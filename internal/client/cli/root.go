package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/state"
)

func (a *App) getStatus() string {
	if user := a.session.CurrentUser(); user != nil {
		return fmt.Sprintf("(%s)", user.Email)
	}
	if a.session.Status() == state.StatusAuthenticating {
		return "(...)"
	}
	return ""
}

func (a *App) printHelp() {
	if a.session.Status() == state.StatusAuthenticated {
		fmt.Println("Available commands: whoami, refresh, logout, status, exit")
	} else {
		fmt.Println("Available commands: login, register, forgot-password, reset-password, exit")
	}
}

func (a *App) Root(ctx context.Context) {

	fmt.Println("Welcome to SessionKeeper CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("skli %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}

		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "help":
			a.printHelp()
		case "login":
			a.Login(ctx)
		case "register":
			a.Register(ctx)
		case "whoami":
			a.Whoami(ctx)
		case "refresh":
			a.session.RefreshUser(ctx)
		case "logout":
			a.session.Logout(ctx)
		case "forgot-password":
			a.ForgotPassword(ctx)
		case "reset-password":
			a.ResetPassword(ctx)
		case "status":
			fmt.Printf("Status: %s\n", a.session.Status())
			if msg := a.session.ErrorMessage(); msg != "" {
				fmt.Printf("Last error: %s\n", msg)
			}
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", parts[0])
		}
	}
}
