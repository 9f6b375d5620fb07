// Package editing tracks which profile sections an owner has open for
// editing, their unsaved drafts and save progress, and applies the section
// actions (open, close, change, submit) to that state.
package editing

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"finitefield.org/profile-portal/internal/portal/certificates"
)

// DefaultTTL bounds how long an untouched edit session is kept.
const DefaultTTL = 30 * time.Minute

// ErrInvalidKey is returned when the owner or form ID is blank.
var ErrInvalidKey = errors.New("editing: owner and form id are required")

// Key addresses the edit state of one section of one owner's profile.
type Key struct {
	Owner  string
	FormID string
}

func (k Key) validate() error {
	if strings.TrimSpace(k.Owner) == "" || strings.TrimSpace(k.FormID) == "" {
		return ErrInvalidKey
	}
	return nil
}

// State is the edit state of a section. The zero value is a closed form.
type State struct {
	Open      bool                   `json:"open"`
	Drafts    map[string]string      `json:"drafts,omitempty"`
	SaveState certificates.SaveState `json:"saveState,omitempty"`
}

// Draft returns the unsaved value of field, if any.
func (s State) Draft(field string) (string, bool) {
	v, ok := s.Drafts[field]
	return v, ok
}

func (s State) clone() State {
	out := s
	if s.Drafts != nil {
		out.Drafts = make(map[string]string, len(s.Drafts))
		for k, v := range s.Drafts {
			out.Drafts[k] = v
		}
	}
	return out
}

// Store persists edit state. Get returns the zero State for unknown keys.
type Store interface {
	Get(ctx context.Context, key Key) (State, error)
	Put(ctx context.Context, key Key, state State) error
	Delete(ctx context.Context, key Key) error
}

// VisibilityField is the form field carrying the visibility of formID,
// e.g. "visibilityCertificates". A Caser keeps state between calls, so each
// call builds its own.
func VisibilityField(formID string) string {
	return "visibility" + cases.Title(language.Und, cases.NoLower).String(strings.TrimSpace(formID))
}

// MemoryStore keeps edit state in process memory with a sliding TTL.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[Key]memoryEntry
}

type memoryEntry struct {
	state   State
	expires time.Time
}

// MemoryOption customises a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		ttl:     DefaultTTL,
		now:     time.Now,
		entries: make(map[Key]memoryEntry),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, key Key) (State, error) {
	if err := key.validate(); err != nil {
		return State{}, err
	}
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return State{}, nil
	}
	if !s.now().Before(entry.expires) {
		delete(s.entries, key)
		return State{}, nil
	}
	return entry.state.clone(), nil
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, key Key, state State) error {
	if err := key.validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{state: state.clone(), expires: s.now().Add(s.ttl)}
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, key Key) error {
	if err := key.validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
