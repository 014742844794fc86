package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"
)

// User is the authenticated account as returned by the auth endpoints.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Bio           string    `json:"bio"`
	Avatar        string    `json:"avatar"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Bio      string `json:"bio,omitempty"`
}

// Register creates an account. The backend logs the new user in, setting
// the session cookie on this client's jar.
func (c *Client) Register(ctx context.Context, username, email, password, bio string) (*User, error) {
	var out struct {
		User    *User  `json:"user"`
		Message string `json:"message"`
	}
	err := c.post(ctx, "/auth/register/", registerRequest{
		Username: username,
		Email:    email,
		Password: password,
		Bio:      bio,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.User, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates and stores the session cookie on the client's jar.
func (c *Client) Login(ctx context.Context, username, password string) (*User, error) {
	var out struct {
		User    *User  `json:"user"`
		Message string `json:"message"`
	}
	if err := c.post(ctx, "/auth/login/", loginRequest{Username: username, Password: password}, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Logout invalidates the backend session.
func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, "/auth/logout/", struct{}{}, nil)
}

// Me returns the current user, or (nil, nil) when the session is anonymous.
// Authentication failure is a normal state here, not an error.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out struct {
		User
		Message string `json:"message"`
	}
	err := c.get(ctx, "/auth/me/", &out)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, nil
		}
		return nil, err
	}
	// Some deployments answer 200 with a message-only body for anonymous
	// sessions instead of a 401.
	if out.ID == "" {
		return nil, nil
	}
	u := out.User
	return &u, nil
}

// ProfileUpdate holds the mutable profile fields. Nil pointers are omitted
// from the PATCH body.
type ProfileUpdate struct {
	Email  *string `json:"email,omitempty"`
	Bio    *string `json:"bio,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

// UpdateProfile patches the current user's profile.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*User, error) {
	var out struct {
		User    *User  `json:"user"`
		Message string `json:"message"`
	}
	if err := c.patch(ctx, "/auth/update/", update, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// VerifyEmail confirms an email address with the token from the
// verification link.
func (c *Client) VerifyEmail(ctx context.Context, token string) error {
	path := "/auth/verify-email/?token=" + url.QueryEscape(token)
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

// ResendVerification asks the backend to send a fresh verification email.
func (c *Client) ResendVerification(ctx context.Context) error {
	return c.post(ctx, "/auth/resend-verification/", struct{}{}, nil)
}
