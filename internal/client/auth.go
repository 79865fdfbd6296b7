package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"seriesjp/internal/session"
)

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthResult struct {
	User      User   `json:"user"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// Register, Login and Google keep the returned token on the client.
func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	return c.authenticate(ctx, "/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	return c.authenticate(ctx, "/auth/login", map[string]string{"email": email, "password": password})
}

func (c *Client) Google(ctx context.Context, idToken string) (*AuthResult, error) {
	return c.authenticate(ctx, "/auth/google", map[string]string{"id_token": idToken})
}

func (c *Client) authenticate(ctx context.Context, path string, payload any) (*AuthResult, error) {
	var res AuthResult
	if err := c.do(ctx, http.MethodPost, path, payload, &res); err != nil {
		return nil, err
	}
	c.Token = res.Token
	return &res, nil
}

func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		return err
	}
	c.Token = ""
	return nil
}

func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	return c.do(ctx, http.MethodPost, "/auth/change-password", map[string]string{
		"old_password": oldPassword,
		"new_password": newPassword,
	}, nil)
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteAccount removes the signed-in account. password is required for
// accounts that have one.
func (c *Client) DeleteAccount(ctx context.Context, password string) error {
	if err := c.do(ctx, http.MethodDelete, "/users/me", map[string]string{"password": password}, nil); err != nil {
		return err
	}
	c.Token = ""
	return nil
}

// WhoAmI checks token without touching c.Token. It fits session.Probe: a 401
// is reported as session.ErrRejected, anything else as a plain error.
func (c *Client) WhoAmI(ctx context.Context, token string) (string, error) {
	probe := *c
	probe.Token = token
	u, err := probe.Me(ctx)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return "", fmt.Errorf("%w: %v", session.ErrRejected, err)
		}
		return "", err
	}
	return u.ID, nil
}
