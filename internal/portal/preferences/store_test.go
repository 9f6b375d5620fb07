package preferences

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/profile-portal/internal/portal/certificates"
)

func TestMemoryStoreDefaultsToPrivate(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	v, err := store.Visibility(context.Background(), "staff", "certificates")
	require.NoError(t, err)
	require.Equal(t, certificates.VisibilityPrivate, v)
}

func TestMemoryStoreSavesPerSection(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.SaveVisibility(ctx, "staff", "certificates", certificates.VisibilityAllUsers))

	v, err := store.Visibility(ctx, "staff", "certificates")
	require.NoError(t, err)
	require.Equal(t, certificates.VisibilityAllUsers, v)

	other, err := store.Visibility(ctx, "staff", "education")
	require.NoError(t, err)
	require.Equal(t, certificates.VisibilityPrivate, other)
}

func TestMemoryStoreRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Visibility(ctx, "", "certificates")
	require.ErrorIs(t, err, ErrInvalidKey)
	require.ErrorIs(t, store.SaveVisibility(ctx, "staff", " ", certificates.VisibilityPrivate), ErrInvalidKey)
	require.ErrorIs(t, store.SaveVisibility(ctx, "staff", "certificates", certificates.VisibilityNone), certificates.ErrInvalidVisibility)
}
