package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matespatagonico/storefront/pkg/config"
	redisclient "github.com/matespatagonico/storefront/pkg/redis"
)

func TestManagerAgainstRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redisclient.New(context.Background(), config.RedisConfig{Address: mr.Addr(), DialTimeout: time.Second}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	manager, err := NewManager(client, 30*time.Minute)
	require.NoError(t, err)

	ctx := context.Background()
	sessionID, err := manager.Create(ctx, Credentials{UserID: 14, Token: "opaque-backend-token", Role: "USER", Email: "ana@mates.com"})
	require.NoError(t, err)
	require.NotEmpty(t, sessionID)
	assert.Equal(t, 30*time.Minute, mr.TTL(client.SessionKey(sessionID)))

	mr.FastForward(20 * time.Minute)
	creds, err := manager.Load(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, int64(14), creds.UserID)
	assert.Equal(t, "ana@mates.com", creds.Email)
	assert.Equal(t, 30*time.Minute, mr.TTL(client.SessionKey(sessionID)), "load slides the ttl")

	require.NoError(t, manager.Revoke(ctx, sessionID))
	_, err = manager.Load(ctx, sessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	other, err := manager.Create(ctx, Credentials{UserID: 15, Token: "t"})
	require.NoError(t, err)
	mr.FastForward(31 * time.Minute)
	_, err = manager.Load(ctx, other)
	assert.ErrorIs(t, err, ErrSessionNotFound, "idle sessions expire in redis")
}
