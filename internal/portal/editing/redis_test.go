package editing

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"finitefield.org/profile-portal/internal/portal/certificates"
)

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewRedisStore(client, ttl)
	require.NoError(t, err)
	return store, server
}

func TestRedisStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, server := newTestRedisStore(t, 10*time.Minute)
	key := Key{Owner: "staff", FormID: "certificates"}

	state, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, State{}, state)

	want := State{
		Open:      true,
		Drafts:    map[string]string{"visibilityCertificates": "all_users"},
		SaveState: certificates.SaveStateError,
	}
	require.NoError(t, store.Put(ctx, key, want))
	require.True(t, server.Exists("profile:edit:staff:certificates"))
	require.Equal(t, 10*time.Minute, server.TTL("profile:edit:staff:certificates"))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, want, got)

	require.NoError(t, store.Delete(ctx, key))
	require.False(t, server.Exists("profile:edit:staff:certificates"))
	got, err = store.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, State{}, got)
}

func TestRedisStorePutRefreshesTTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, server := newTestRedisStore(t, time.Minute)
	key := Key{Owner: "staff", FormID: "certificates"}

	require.NoError(t, store.Put(ctx, key, State{Open: true}))
	server.FastForward(45 * time.Second)
	require.Equal(t, 15*time.Second, server.TTL("profile:edit:staff:certificates"))

	require.NoError(t, store.Put(ctx, key, State{Open: true, Drafts: map[string]string{"visibilityCertificates": "private"}}))
	require.Equal(t, time.Minute, server.TTL("profile:edit:staff:certificates"))

	server.FastForward(2 * time.Minute)
	state, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, state.Open)
}

func TestRedisStoreDefaultsAndErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, err := NewRedisStore(nil, time.Minute)
	require.Error(t, err)

	store, server := newTestRedisStore(t, 0)
	require.Equal(t, DefaultTTL, store.ttl)

	_, err = store.Get(ctx, Key{Owner: "staff"})
	require.ErrorIs(t, err, ErrInvalidKey)

	require.NoError(t, server.Set("profile:edit:staff:certificates", "{"))
	_, err = store.Get(ctx, Key{Owner: "staff", FormID: "certificates"})
	require.ErrorContains(t, err, "decode state")

	server.Close()
	err = store.Put(ctx, Key{Owner: "staff", FormID: "certificates"}, State{Open: true})
	require.ErrorContains(t, err, "redis set")
}
