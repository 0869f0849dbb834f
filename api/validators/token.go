package validators

import (
	"errors"
	"strings"
)

var ErrInvalidToken = errors.New("invalid auth token")

// BearerToken extracts the session id from an Authorization header.
func BearerToken(raw string) (string, error) {
	token := strings.TrimSpace(raw)
	if len(token) < 7 || !strings.EqualFold(token[:7], "bearer ") {
		return "", ErrInvalidToken
	}
	token = strings.TrimSpace(token[7:])
	if token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}
