package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/projectdesk/internal/client/client"
	"github.com/dmitrijs2005/projectdesk/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) credentials() (string, string, error) {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return "", "", err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return "", "", err
	}
	defer common.WipeByteArray(password)
	return email, string(password), nil
}

// Register creates an account and tries the landing page. Providers that
// require email confirmation leave the user signed out.
func (a *App) Register(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return err
	}
	if err := a.store.SignUp(ctx, email, password); err != nil {
		return describeAuthError("registration", err)
	}
	a.Open(ctx, a.landing)
	if a.signedIn() {
		a.println("Registered and signed in.")
	} else {
		a.println("Registered. Confirm your email address, then log in.")
	}
	return nil
}

// Login signs in and opens the landing page.
func (a *App) Login(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return err
	}
	if err := a.store.SignIn(ctx, email, password); err != nil {
		return describeAuthError("login", err)
	}
	a.Open(ctx, a.landing)
	return nil
}

// Logout signs out at the provider and re-checks the current route, which
// sends the shell back to the sign-in page when the route needs a session.
func (a *App) Logout(ctx context.Context) error {
	if err := a.store.SignOut(ctx); err != nil {
		return describeAuthError("logout", err)
	}
	a.Open(ctx, a.currentRoute())
	return nil
}

func describeAuthError(op string, err error) error {
	switch {
	case errors.Is(err, client.ErrAuthRejected):
		return fmt.Errorf("%s rejected: %w", op, err)
	case errors.Is(err, client.ErrNetwork):
		return fmt.Errorf("%s failed, service unreachable: %w", op, err)
	default:
		return fmt.Errorf("%s failed: %w", op, err)
	}
}
