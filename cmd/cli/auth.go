package main

import (
	"errors"
	"flag"
	"fmt"

	"seriesjp/internal/client"
	"seriesjp/internal/session"
)

func (a *app) handleAuth(sub string, args []string) {
	switch sub {
	case "register":
		fs := flag.NewFlagSet("auth register", flag.ExitOnError)
		username := fs.String("username", "", "username")
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		keep := fs.Bool("keep", true, "keep the session for the next runs")
		_ = fs.Parse(args)

		if *username == "" || *email == "" || *password == "" {
			a.log.Fatal("username, email, and password are required")
		}
		ctx, cancel := a.timeout()
		defer cancel()
		res, err := a.api.Register(ctx, *username, *email, *password)
		if err != nil {
			a.fatalAPI("register failed", err)
		}
		a.signedIn(res, *keep)
		fmt.Printf("registered and signed in as %s\n", res.User.Username)
	case "login":
		fs := flag.NewFlagSet("auth login", flag.ExitOnError)
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		keep := fs.Bool("keep", true, "keep the session for the next runs")
		_ = fs.Parse(args)

		if *email == "" || *password == "" {
			a.log.Fatal("email and password are required")
		}
		ctx, cancel := a.timeout()
		defer cancel()
		res, err := a.api.Login(ctx, *email, *password)
		if err != nil {
			a.fatalAPI("login failed", err)
		}
		a.signedIn(res, *keep)
		fmt.Printf("signed in as %s\n", res.User.Username)
	case "google":
		fs := flag.NewFlagSet("auth google", flag.ExitOnError)
		idToken := fs.String("id-token", "", "Google ID token")
		keep := fs.Bool("keep", true, "keep the session for the next runs")
		_ = fs.Parse(args)

		if *idToken == "" {
			a.log.Fatal("id-token is required")
		}
		ctx, cancel := a.timeout()
		defer cancel()
		res, err := a.api.Google(ctx, *idToken)
		if err != nil {
			a.fatalAPI("google sign-in failed", err)
		}
		a.signedIn(res, *keep)
		fmt.Printf("signed in as %s\n", res.User.Username)
	case "logout":
		if tok, err := a.sess.Token(); err == nil {
			a.api.Token = tok
			ctx, cancel := a.timeout()
			// the server may be down or the token already dead; signing out locally is what matters
			if err := a.api.Logout(ctx); err != nil {
				a.log.WithError(err).Debug("server logout failed")
			}
			cancel()
		}
		if err := a.sess.SignedOut(); err != nil {
			a.log.Fatalf("logout failed: %v", err)
		}
		fmt.Println("signed out")
	case "status":
		userID, err := a.sess.CheckAutoLogin(a.ctx, a.api.WhoAmI, 0)
		if errors.Is(err, session.ErrUnreachable) {
			fmt.Println("server unreachable, session kept")
			return
		}
		if err != nil {
			fmt.Println("not signed in")
			return
		}
		fmt.Printf("signed in (user %s)\n", userID)
	case "password":
		fs := flag.NewFlagSet("auth password", flag.ExitOnError)
		oldPassword := fs.String("old", "", "current password (empty for Google-only accounts)")
		newPassword := fs.String("new", "", "new password")
		_ = fs.Parse(args)

		if *newPassword == "" {
			a.log.Fatal("new password is required")
		}
		a.requireLogin()
		ctx, cancel := a.timeout()
		defer cancel()
		if err := a.api.ChangePassword(ctx, *oldPassword, *newPassword); err != nil {
			a.fatalAPI("change password failed", err)
		}
		// every token was revoked, including ours
		if err := a.sess.SignedOut(); err != nil {
			a.log.WithError(err).Warn("clear session")
		}
		fmt.Println("password changed, sign in again")
	case "delete":
		fs := flag.NewFlagSet("auth delete", flag.ExitOnError)
		password := fs.String("password", "", "current password (empty for Google-only accounts)")
		yes := fs.Bool("yes", false, "confirm deletion")
		_ = fs.Parse(args)

		if !*yes {
			a.log.Fatal("this removes the account and its lists, pass -yes to confirm")
		}
		a.requireLogin()
		ctx, cancel := a.timeout()
		defer cancel()
		if err := a.api.DeleteAccount(ctx, *password); err != nil {
			a.fatalAPI("delete account failed", err)
		}
		if err := a.sess.SignedOut(); err != nil {
			a.log.WithError(err).Warn("clear session")
		}
		fmt.Println("account deleted")
	default:
		a.log.Fatal("usage: seriesjp auth <register|login|google|logout|status|password|delete>")
	}
}

func (a *app) signedIn(res *client.AuthResult, keep bool) {
	if !keep {
		return
	}
	if err := a.sess.SignedIn(res.Token); err != nil {
		a.log.Fatalf("save session: %v", err)
	}
}

// fatalAPI prints field errors from a validation failure before exiting.
func (a *app) fatalAPI(what string, err error) {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
		for field, msg := range apiErr.Fields {
			fmt.Printf("  %s: %s\n", field, msg)
		}
	}
	a.log.Fatalf("%s: %v", what, err)
}
