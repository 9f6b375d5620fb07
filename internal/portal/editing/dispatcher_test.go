package editing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/profile-portal/internal/portal/certificates"
	"finitefield.org/profile-portal/internal/portal/preferences"
)

type failingPreferences struct {
	preferences.Store
	err error
}

func (f failingPreferences) SaveVisibility(context.Context, string, string, certificates.Visibility) error {
	return f.err
}

func newTestDispatcher(t *testing.T, prefs preferences.Store) *Dispatcher {
	t.Helper()
	if prefs == nil {
		prefs = preferences.NewMemoryStore()
	}
	d, err := NewDispatcher(NewMemoryStore(), prefs)
	require.NoError(t, err)
	return d
}

func TestVisibilityField(t *testing.T) {
	t.Parallel()

	require.Equal(t, "visibilityCertificates", VisibilityField("certificates"))
	require.Equal(t, "visibilityCertificates", VisibilityField(" certificates "))
}

func TestVisibilityFieldConcurrentCallers(t *testing.T) {
	t.Parallel()

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan string, workers*200)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				results <- VisibilityField("certificates")
			}
		}()
	}
	wg.Wait()
	close(results)

	for got := range results {
		require.Equal(t, "visibilityCertificates", got)
	}
}

func TestDispatcherConcurrentChanges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := newTestDispatcher(t, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		key := Key{Owner: fmt.Sprintf("learner%d", i), FormID: "certificates"}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.Open(ctx, key); err != nil {
				errs <- err
				return
			}
			errs <- d.Change(ctx, key, VisibilityField(key.FormID), "all_users")
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
}

func TestDispatcherOpenClearsDrafts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := newTestDispatcher(t, nil)
	key := Key{Owner: "staff", FormID: "certificates"}

	require.NoError(t, d.Open(ctx, key))
	require.NoError(t, d.Change(ctx, key, "visibilityCertificates", "all_users"))
	require.NoError(t, d.Open(ctx, key))

	state, err := d.State(ctx, key)
	require.NoError(t, err)
	require.True(t, state.Open)
	require.Empty(t, state.Drafts)
	require.Empty(t, state.SaveState)
}

func TestDispatcherCloseDiscardsState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := newTestDispatcher(t, nil)
	key := Key{Owner: "staff", FormID: "certificates"}

	require.NoError(t, d.Open(ctx, key))
	require.NoError(t, d.Change(ctx, key, "visibilityCertificates", "all_users"))
	require.NoError(t, d.Close(ctx, key))

	state, err := d.State(ctx, key)
	require.NoError(t, err)
	require.Equal(t, State{}, state)
}

func TestDispatcherChangeValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := newTestDispatcher(t, nil)
	key := Key{Owner: "staff", FormID: "certificates"}

	err := d.Change(ctx, key, "visibilityCertificates", "all_users")
	require.ErrorIs(t, err, ErrNotEditing)

	require.NoError(t, d.Open(ctx, key))

	tests := []struct {
		name  string
		field string
		value string
	}{
		{name: "unknown field", field: "title", value: "private"},
		{name: "other section field", field: "visibilityBio", value: "private"},
		{name: "bad value", field: "visibilityCertificates", value: "friends"},
		{name: "absent is not selectable", field: "visibilityCertificates", value: "none"},
	}
	for _, tc := range tests {
		err := d.Change(ctx, key, tc.field, tc.value)
		require.ErrorIs(t, err, ErrInvalidField, tc.name)
	}

	require.NoError(t, d.Change(ctx, key, "visibilityCertificates", "all_users"))
	state, err := d.State(ctx, key)
	require.NoError(t, err)
	draft, ok := state.Draft("visibilityCertificates")
	require.True(t, ok)
	require.Equal(t, "all_users", draft)
}

func TestDispatcherSubmitPersistsVisibility(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	prefs := preferences.NewMemoryStore()
	d := newTestDispatcher(t, prefs)
	key := Key{Owner: "staff", FormID: "certificates"}

	_, err := d.Submit(ctx, key)
	require.ErrorIs(t, err, ErrNotEditing)

	require.NoError(t, d.Open(ctx, key))
	require.NoError(t, d.Change(ctx, key, "visibilityCertificates", "all_users"))

	state, err := d.Submit(ctx, key)
	require.NoError(t, err)
	require.True(t, state.Open)
	require.Equal(t, certificates.SaveStateComplete, state.SaveState)
	require.Empty(t, state.Drafts)

	saved, err := prefs.Visibility(ctx, "staff", "certificates")
	require.NoError(t, err)
	require.Equal(t, certificates.VisibilityAllUsers, saved)
}

func TestDispatcherSubmitFailureKeepsDrafts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := newTestDispatcher(t, failingPreferences{err: errors.New("unavailable")})
	key := Key{Owner: "staff", FormID: "certificates"}

	require.NoError(t, d.Open(ctx, key))
	require.NoError(t, d.Change(ctx, key, "visibilityCertificates", "all_users"))

	state, err := d.Submit(ctx, key)
	require.NoError(t, err)
	require.Equal(t, certificates.SaveStateError, state.SaveState)
	draft, ok := state.Draft("visibilityCertificates")
	require.True(t, ok)
	require.Equal(t, "all_users", draft)

	// A further change clears the error so the form reads "Save" again.
	require.NoError(t, d.Change(ctx, key, "visibilityCertificates", "private"))
	state, err = d.State(ctx, key)
	require.NoError(t, err)
	require.Empty(t, state.SaveState)
}

func TestNewDispatcherRequiresStores(t *testing.T) {
	t.Parallel()

	_, err := NewDispatcher(nil, preferences.NewMemoryStore())
	require.Error(t, err)
	_, err = NewDispatcher(NewMemoryStore(), nil)
	require.Error(t, err)
}
