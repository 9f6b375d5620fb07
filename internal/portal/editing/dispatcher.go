package editing

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"finitefield.org/profile-portal/internal/portal/certificates"
	"finitefield.org/profile-portal/internal/portal/observability"
	"finitefield.org/profile-portal/internal/portal/preferences"
)

var (
	// ErrInvalidField is returned when a change targets an unknown field or
	// carries an unsupported value.
	ErrInvalidField = errors.New("editing: invalid field")
	// ErrNotEditing is returned for changes and submits on a closed form.
	ErrNotEditing = errors.New("editing: form is not open")
)

// Dispatcher applies section actions to the edit state of an owner.
type Dispatcher struct {
	store       Store
	preferences preferences.Store
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(store Store, prefs preferences.Store) (*Dispatcher, error) {
	if store == nil {
		return nil, errors.New("editing: store is required")
	}
	if prefs == nil {
		return nil, errors.New("editing: preferences store is required")
	}
	return &Dispatcher{store: store, preferences: prefs}, nil
}

// State returns the current edit state of the section.
func (d *Dispatcher) State(ctx context.Context, key Key) (State, error) {
	return d.store.Get(ctx, key)
}

// Open starts editing the section with a clean draft.
func (d *Dispatcher) Open(ctx context.Context, key Key) error {
	if err := d.store.Put(ctx, key, State{Open: true}); err != nil {
		return fmt.Errorf("open %s: %w", key.FormID, err)
	}
	observability.FromContext(ctx).Debug("section opened", zap.String("form_id", key.FormID))
	return nil
}

// Close stops editing and discards any unsaved draft.
func (d *Dispatcher) Close(ctx context.Context, key Key) error {
	if err := d.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("close %s: %w", key.FormID, err)
	}
	observability.FromContext(ctx).Debug("section closed", zap.String("form_id", key.FormID))
	return nil
}

// Change records a draft value for a form field. Only the visibility field
// of the section is editable.
func (d *Dispatcher) Change(ctx context.Context, key Key, name, value string) error {
	if name != VisibilityField(key.FormID) {
		return fmt.Errorf("%w: %q", ErrInvalidField, name)
	}
	visibility, err := certificates.ParseVisibility(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidField, err)
	}

	state, err := d.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("change %s: %w", key.FormID, err)
	}
	if !state.Open {
		return ErrNotEditing
	}
	if state.Drafts == nil {
		state.Drafts = make(map[string]string, 1)
	}
	state.Drafts[name] = string(visibility)
	// A new draft supersedes the outcome of an earlier save.
	state.SaveState = ""
	if err := d.store.Put(ctx, key, state); err != nil {
		return fmt.Errorf("change %s: %w", key.FormID, err)
	}
	return nil
}

// Submit persists the drafted visibility. A failed save is not returned as
// an error: the State carries SaveStateError and keeps the drafts so the
// owner can retry.
func (d *Dispatcher) Submit(ctx context.Context, key Key) (State, error) {
	logger := observability.FromContext(ctx)

	state, err := d.store.Get(ctx, key)
	if err != nil {
		return State{}, fmt.Errorf("submit %s: %w", key.FormID, err)
	}
	if !state.Open {
		return state, ErrNotEditing
	}

	state.SaveState = certificates.SaveStatePending
	if err := d.store.Put(ctx, key, state); err != nil {
		return State{}, fmt.Errorf("submit %s: %w", key.FormID, err)
	}

	saveErr := d.save(ctx, key, state)
	if saveErr != nil {
		logger.Warn("section save failed", zap.String("form_id", key.FormID), zap.Error(saveErr))
		state.SaveState = certificates.SaveStateError
	} else {
		state.SaveState = certificates.SaveStateComplete
		state.Drafts = nil
	}
	if err := d.store.Put(ctx, key, state); err != nil {
		return State{}, fmt.Errorf("submit %s: %w", key.FormID, err)
	}
	return state, nil
}

func (d *Dispatcher) save(ctx context.Context, key Key, state State) error {
	draft, ok := state.Draft(VisibilityField(key.FormID))
	if !ok {
		return nil
	}
	visibility, err := certificates.ParseVisibility(draft)
	if err != nil {
		return err
	}
	return d.preferences.SaveVisibility(ctx, key.Owner, key.FormID, visibility)
}
