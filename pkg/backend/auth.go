package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	pkgerrors "github.com/matespatagonico/storefront/pkg/errors"
)

var tokenFields = []string{"access_token", "token", "accessToken"}

// Authenticate exchanges email and password for a bearer token.
func (c *Client) Authenticate(ctx context.Context, req LoginRequest) (Credentials, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{
		op:     "auth.authenticate",
		method: http.MethodPost,
		path:   "/v1/auth/authenticate",
		body:   req,
	}, &raw); err != nil {
		return Credentials{}, err
	}
	return parseCredentials(raw)
}

// Register creates an account; the backend answers like Authenticate.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (Credentials, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{
		op:     "auth.register",
		method: http.MethodPost,
		path:   "/v1/auth/register",
		body:   req,
	}, &raw); err != nil {
		return Credentials{}, err
	}
	return parseCredentials(raw)
}

// UserProfile returns the account the token belongs to.
func (c *Client) UserProfile(ctx context.Context, token string) (User, error) {
	var user User
	err := c.do(ctx, request{op: "users.profile", method: http.MethodGet, path: "/user/profile", token: token}, &user)
	return user, err
}

func (c *Client) UpdateUser(ctx context.Context, token string, userID int64, update ProfileUpdate) (User, error) {
	var user User
	err := c.do(ctx, request{
		op:     "users.update",
		method: http.MethodPut,
		path:   idPath("/users/%d", userID),
		token:  token,
		body:   update,
	}, &user)
	return user, err
}

// parseCredentials reads the token from access_token, token or accessToken,
// and the user from "user" or, failing that, the body itself.
func parseCredentials(raw json.RawMessage) (Credentials, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Credentials{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode authentication response")
	}

	var creds Credentials
	for _, key := range tokenFields {
		value, ok := fields[key]
		if !ok {
			continue
		}
		var token string
		if err := json.Unmarshal(value, &token); err == nil && strings.TrimSpace(token) != "" {
			creds.Token = strings.TrimSpace(token)
			break
		}
	}
	if creds.Token == "" {
		return Credentials{}, pkgerrors.New(pkgerrors.CodeDependency, "authentication response carried no token")
	}

	userRaw, ok := fields["user"]
	if !ok || string(userRaw) == "null" {
		userRaw = raw
	}
	if err := json.Unmarshal(userRaw, &creds.User); err != nil {
		return Credentials{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode authenticated user")
	}
	return creds, nil
}
