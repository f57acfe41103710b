package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for credentials and drives the view-state through the login
// transition. When the server is unreachable and the user previously opted
// into "remember me", the repository falls back to the cached session; the
// outcome is reported through the view-state either way.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	remember, err := GetConfirm(a.reader, "Remember me? [y/N]", os.Stdout)
	if err != nil {
		return err
	}

	a.session.Login(ctx, email, string(password), remember)
	return nil
}

// Register prompts for a name, email, and password and creates a new
// account. A successful registration signs the user in.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", os.Stdout)
	if err != nil {
		return err
	}

	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	a.session.Register(ctx, name, email, string(password))
	return nil
}

// Whoami validates the session and prints the authenticated identity.
func (a *App) Whoami(ctx context.Context) error {
	if !a.session.ValidateSession(ctx) {
		fmt.Println("Not signed in")
		return nil
	}

	user := a.session.CurrentUser()
	if user == nil {
		fmt.Println("Not signed in")
		return nil
	}

	fmt.Printf("%s <%s>\n", user.Name, user.Email)
	if user.Phone != "" {
		fmt.Printf("Phone: %s\n", user.Phone)
	}
	if user.Avatar != "" {
		fmt.Printf("Avatar: %s\n", user.Avatar)
	}
	return nil
}
