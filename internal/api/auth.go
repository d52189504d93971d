package api

import (
	"context"
	"net/http"

	"venezia-storefront/internal/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string        `json:"access_token"`
	User        *session.User `json:"user"`
}

// Login exchanges credentials for a bearer token and the user snapshot.
func (c *Client) Login(ctx context.Context, email, password string) (string, *session.User, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return "", nil, err
	}
	return resp.AccessToken, resp.User, nil
}

// Logout invalidates the token server-side. Local state is cleared by the
// caller regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, nil)
}

// CurrentUser re-fetches the authenticated user and profile.
func (c *Client) CurrentUser(ctx context.Context) (*session.User, error) {
	var u session.User
	if err := c.do(ctx, http.MethodGet, "/user", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

type updateProfileResponse struct {
	User *session.User `json:"user"`
}

// UpdateProfile saves shipping data and returns the refreshed user.
func (c *Client) UpdateProfile(ctx context.Context, p session.Profile) (*session.User, error) {
	var resp updateProfileResponse
	if err := c.do(ctx, http.MethodPut, "/profile", p, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}
