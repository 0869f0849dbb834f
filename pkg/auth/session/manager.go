package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgauth "github.com/matespatagonico/storefront/pkg/auth"
	redisclient "github.com/matespatagonico/storefront/pkg/redis"
	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Touch(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(sessionID string) string
}

// Credentials is what gets persisted per browser session.
type Credentials struct {
	UserID    int64           `json:"user_id"`
	Token     string          `json:"token"`
	Role      string          `json:"role,omitempty"`
	Email     string          `json:"email,omitempty"`
	User      json.RawMessage `json:"user,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// AuthContext projects the persisted credentials onto the per-request auth context.
func (c Credentials) AuthContext() pkgauth.Context {
	return pkgauth.Context{
		UserID: c.UserID,
		Token:  c.Token,
		Role:   c.Role,
		Email:  c.Email,
	}
}

// Manager persists backend credentials in Redis under opaque session ids.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
	now   func() time.Time
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, ttl time.Duration) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Manager{
		store: client,
		keyer: client,
		ttl:   ttl,
		now:   time.Now,
	}, nil
}

// Create stores the credentials and returns the new session id.
func (m *Manager) Create(ctx context.Context, creds Credentials) (string, error) {
	if !creds.AuthContext().Authenticated() {
		return "", fmt.Errorf("credentials require a user id and token")
	}
	if creds.CreatedAt.IsZero() {
		creds.CreatedAt = m.now().UTC()
	}
	payload, err := json.Marshal(creds)
	if err != nil {
		return "", fmt.Errorf("encoding credentials: %w", err)
	}
	sessionID := NewSessionID()
	if err := m.store.Set(ctx, m.keyer.SessionKey(sessionID), string(payload), m.ttl); err != nil {
		return "", err
	}
	return sessionID, nil
}

// Load returns the credentials for a session and slides its TTL. Sessions
// whose backend token has expired are revoked and reported as ErrSessionExpired.
func (m *Manager) Load(ctx context.Context, sessionID string) (Credentials, error) {
	if strings.TrimSpace(sessionID) == "" {
		return Credentials{}, ErrSessionNotFound
	}
	key := m.keyer.SessionKey(sessionID)
	raw, err := m.store.Get(ctx, key)
	if err != nil {
		if redisclient.IsNil(err) {
			return Credentials{}, ErrSessionNotFound
		}
		return Credentials{}, err
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		_ = m.store.Del(ctx, key)
		return Credentials{}, ErrSessionNotFound
	}

	if pkgauth.TokenExpired(creds.Token, m.now()) {
		_ = m.store.Del(ctx, key)
		return Credentials{}, ErrSessionExpired
	}

	if _, err := m.store.Touch(ctx, key, m.ttl); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// Revoke deletes the session.
func (m *Manager) Revoke(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	return m.store.Del(ctx, m.keyer.SessionKey(sessionID))
}

// NewSessionID produces the opaque identifier handed to the browser.
func NewSessionID() string {
	return uuid.NewString()
}
