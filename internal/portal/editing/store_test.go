package editing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"finitefield.org/profile-portal/internal/portal/certificates"
)

func TestMemoryStoreExpiresEntries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	store := NewMemoryStore(WithTTL(time.Minute), WithClock(func() time.Time { return now }))
	key := Key{Owner: "staff", FormID: "certificates"}

	require.NoError(t, store.Put(ctx, key, State{Open: true}))
	state, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, state.Open)

	now = now.Add(2 * time.Minute)
	state, err = store.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, state.Open)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	key := Key{Owner: "staff", FormID: "certificates"}
	drafts := map[string]string{"visibilityCertificates": "private"}

	require.NoError(t, store.Put(ctx, key, State{Open: true, Drafts: drafts}))
	drafts["visibilityCertificates"] = "all_users"

	state, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "private", state.Drafts["visibilityCertificates"])

	state.Drafts["visibilityCertificates"] = "all_users"
	again, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "private", again.Drafts["visibilityCertificates"])
}

func TestMemoryStoreRejectsBlankKeys(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	_, err := store.Get(context.Background(), Key{Owner: "", FormID: "certificates"})
	require.ErrorIs(t, err, ErrInvalidKey)
	require.ErrorIs(t, store.Put(context.Background(), Key{Owner: "staff"}, State{}), ErrInvalidKey)
}

func TestDecodeStateAndRedisKey(t *testing.T) {
	t.Parallel()

	state, err := decodeState([]byte(`{"open":true,"drafts":{"visibilityCertificates":"all_users"},"saveState":"error"}`))
	require.NoError(t, err)
	require.True(t, state.Open)
	require.Equal(t, certificates.SaveStateError, state.SaveState)
	require.Equal(t, "profile:edit:staff:certificates", redisKey(Key{Owner: "staff", FormID: "certificates"}))

	_, err = decodeState([]byte("{"))
	require.Error(t, err)
}
