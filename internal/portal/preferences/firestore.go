package preferences

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"finitefield.org/profile-portal/internal/portal/certificates"
	pfirestore "finitefield.org/profile-portal/internal/portal/platform/firestore"
)

const defaultCollection = "profile_preferences"

type preferencesDocument struct {
	Visibility map[string]string `firestore:"visibility"`
	UpdatedAt  time.Time         `firestore:"updatedAt"`
}

// FirestoreStore keeps one preferences document per profile owner.
type FirestoreStore struct {
	repo *pfirestore.Repository[preferencesDocument]
	now  func() time.Time
}

// NewFirestoreStore binds the store to collection (defaults to "profile_preferences").
func NewFirestoreStore(provider *pfirestore.Provider, collection string) (*FirestoreStore, error) {
	if provider == nil {
		return nil, errors.New("preferences: firestore provider is required")
	}
	if strings.TrimSpace(collection) == "" {
		collection = defaultCollection
	}
	return &FirestoreStore{
		repo: pfirestore.NewRepository[preferencesDocument](provider, collection),
		now:  time.Now,
	}, nil
}

// Visibility implements Store. Missing documents and unknown values fall back to private.
func (s *FirestoreStore) Visibility(ctx context.Context, username, formID string) (certificates.Visibility, error) {
	username, formID = strings.TrimSpace(username), strings.TrimSpace(formID)
	if username == "" || formID == "" {
		return "", ErrInvalidKey
	}

	doc, err := s.repo.Get(ctx, username)
	if err != nil {
		if pfirestore.IsNotFound(err) {
			return certificates.VisibilityPrivate, nil
		}
		return "", fmt.Errorf("preferences: load %s: %w", username, err)
	}
	v, err := certificates.ParseVisibility(doc.Data.Visibility[formID])
	if err != nil {
		return certificates.VisibilityPrivate, nil
	}
	return v, nil
}

// SaveVisibility implements Store by merging the section's field into the document.
func (s *FirestoreStore) SaveVisibility(ctx context.Context, username, formID string, v certificates.Visibility) error {
	username, formID = strings.TrimSpace(username), strings.TrimSpace(formID)
	if username == "" || formID == "" {
		return ErrInvalidKey
	}
	if !v.IsSelectable() {
		return certificates.ErrInvalidVisibility
	}

	doc := preferencesDocument{
		Visibility: map[string]string{formID: string(v)},
		UpdatedAt:  s.now().UTC(),
	}
	merge := firestore.Merge([]string{"visibility", formID}, []string{"updatedAt"})
	if err := s.repo.Set(ctx, username, doc, merge); err != nil {
		return fmt.Errorf("preferences: save %s: %w", username, err)
	}
	return nil
}
