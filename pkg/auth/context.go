package auth

import (
	"strings"
)

// RoleAdmin is the backend role allowed into the back-office.
const RoleAdmin = "ADMIN"

// Context carries the credentials every storefront backend call needs.
// It is passed explicitly to synchronizers instead of being read from globals.
type Context struct {
	UserID int64  `json:"user_id"`
	Token  string `json:"token"`
	Role   string `json:"role,omitempty"`
	Email  string `json:"email,omitempty"`
}

// Authenticated reports whether the context identifies a user with a token.
func (c Context) Authenticated() bool {
	return c.UserID > 0 && strings.TrimSpace(c.Token) != ""
}

func (c Context) IsAdmin() bool {
	return c.Authenticated() && strings.EqualFold(strings.TrimSpace(c.Role), RoleAdmin)
}

// Bearer returns the Authorization header value, or "" without a token.
func (c Context) Bearer() string {
	token := strings.TrimSpace(c.Token)
	if token == "" {
		return ""
	}
	return "Bearer " + token
}
