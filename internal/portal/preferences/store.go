package preferences

import (
	"context"
	"errors"
	"strings"
	"sync"

	"finitefield.org/profile-portal/internal/portal/certificates"
)

// ErrInvalidKey is returned when the username or form ID is blank.
var ErrInvalidKey = errors.New("preferences: username and form id are required")

// Store persists per-section visibility preferences of a profile owner.
type Store interface {
	// Visibility returns the saved visibility, or private when none was saved.
	Visibility(ctx context.Context, username, formID string) (certificates.Visibility, error)
	// SaveVisibility records the visibility chosen for the section.
	SaveVisibility(ctx context.Context, username, formID string, v certificates.Visibility) error
}

// MemoryStore keeps preferences in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	saved map[string]certificates.Visibility
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{saved: make(map[string]certificates.Visibility)}
}

// Visibility implements Store.
func (s *MemoryStore) Visibility(ctx context.Context, username, formID string) (certificates.Visibility, error) {
	key, err := memoryKey(username, formID)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.saved[key]; ok {
		return v, nil
	}
	return certificates.VisibilityPrivate, nil
}

// SaveVisibility implements Store.
func (s *MemoryStore) SaveVisibility(ctx context.Context, username, formID string, v certificates.Visibility) error {
	key, err := memoryKey(username, formID)
	if err != nil {
		return err
	}
	if !v.IsSelectable() {
		return certificates.ErrInvalidVisibility
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[key] = v
	return nil
}

func memoryKey(username, formID string) (string, error) {
	username = strings.TrimSpace(username)
	formID = strings.TrimSpace(formID)
	if username == "" || formID == "" {
		return "", ErrInvalidKey
	}
	return username + "\x00" + formID, nil
}
