package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
)

// ForgotPassword starts the password-reset flow. The backend answers
// uniformly whether or not the account exists.
func (a *App) ForgotPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.repo.ForgotPassword(ctx, email); err != nil {
		fmt.Printf("Request failed: %s\n", err.Error())
		return err
	}

	fmt.Println("If the account exists, a reset token has been sent.")
	return nil
}

// ResetPassword completes the password-reset flow with an emailed token.
func (a *App) ResetPassword(ctx context.Context) error {
	token, err := getSimpleText(a.reader, "Enter reset token", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.repo.ResetPassword(ctx, token, string(password)); err != nil {
		fmt.Printf("Reset failed: %s\n", err.Error())
		return err
	}

	fmt.Println("Password updated. Please sign in again.")
	return nil
}
