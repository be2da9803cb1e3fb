package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, maxAttempts int) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, maxAttempts, 15*time.Minute), mr
}

func TestRevokeExpiresWithToken(t *testing.T) {
	store, mr := newTestStore(t, 5)
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = store.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	mr.FastForward(2 * time.Hour)
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevokeIgnoresExpiredToken(t *testing.T) {
	store, mr := newTestStore(t, 5)
	require.NoError(t, store.Revoke(context.Background(), "jti-old", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists(revokedKey("jti-old")))
}

func TestLoginLockout(t *testing.T) {
	store, mr := newTestStore(t, 3)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, store.RecordLoginFailure(ctx, "student", "A@Example.com"))
	}
	locked, err := store.LoginLocked(ctx, "student", "a@example.com")
	require.NoError(t, err)
	assert.False(t, locked)

	require.NoError(t, store.RecordLoginFailure(ctx, "student", "a@example.com"))
	locked, err = store.LoginLocked(ctx, "student", "a@example.com")
	require.NoError(t, err)
	assert.True(t, locked)

	locked, err = store.LoginLocked(ctx, "admin", "a@example.com")
	require.NoError(t, err)
	assert.False(t, locked)

	mr.FastForward(16 * time.Minute)
	locked, err = store.LoginLocked(ctx, "student", "a@example.com")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestClearLoginFailures(t *testing.T) {
	store, _ := newTestStore(t, 1)
	ctx := context.Background()

	require.NoError(t, store.RecordLoginFailure(ctx, "admin", "admin@hostel.com"))
	locked, err := store.LoginLocked(ctx, "admin", "admin@hostel.com")
	require.NoError(t, err)
	assert.True(t, locked)

	require.NoError(t, store.ClearLoginFailures(ctx, "admin", "admin@hostel.com"))
	locked, err = store.LoginLocked(ctx, "admin", "admin@hostel.com")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestDisabledStoreAllowsEverything(t *testing.T) {
	store := NewStore(nil, 3, time.Minute)
	ctx := context.Background()

	assert.False(t, store.Enabled())
	require.NoError(t, store.Revoke(ctx, "jti", time.Now().Add(time.Hour)))
	revoked, err := store.IsRevoked(ctx, "jti")
	require.NoError(t, err)
	assert.False(t, revoked)
	require.NoError(t, store.RecordLoginFailure(ctx, "student", "x@example.com"))
	locked, err := store.LoginLocked(ctx, "student", "x@example.com")
	require.NoError(t, err)
	assert.False(t, locked)
}
