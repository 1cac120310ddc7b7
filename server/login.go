package server

import (
	"context"
	"net/http"
)

// Session is the result of a successful sign-in.
type Session struct {
	Token  string
	UserID string
	Name   string
}

// AuthenticateByName signs in with a username and password.
func (c *Client) AuthenticateByName(ctx context.Context, username, password string) (Session, error) {
	body := map[string]string{"Username": username, "Pw": password}

	var resp struct {
		AccessToken string `json:"AccessToken"`
		User        struct {
			ID   string `json:"Id"`
			Name string `json:"Name"`
		} `json:"User"`
	}
	if err := c.do(ctx, http.MethodPost, "/Users/AuthenticateByName", nil, body, &resp); err != nil {
		return Session{}, err
	}

	return Session{Token: resp.AccessToken, UserID: resp.User.ID, Name: resp.User.Name}, nil
}
