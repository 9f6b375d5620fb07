package profile

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"finitefield.org/profile-portal/internal/portal/certificates"
	"finitefield.org/profile-portal/internal/portal/editing"
	"finitefield.org/profile-portal/internal/portal/observability"
	"finitefield.org/profile-portal/internal/portal/preferences"
)

// Viewer identifies who is looking at a profile. The zero value is an
// anonymous visitor.
type Viewer struct {
	Username string
	Token    string
}

// Owns reports whether the viewer is the owner of username's profile.
func (v Viewer) Owns(username string) bool {
	return v.Username != "" && strings.EqualFold(v.Username, username)
}

// CertificatesEditKey addresses the certificates edit state of username.
func CertificatesEditKey(username string) editing.Key {
	return editing.Key{Owner: strings.ToLower(username), FormID: CertificatesFormID}
}

// Loader assembles section view states.
type Loader struct {
	certificates certificates.Service
	preferences  preferences.Store
	edits        editing.Store
}

// NewLoader constructs a Loader.
func NewLoader(certs certificates.Service, prefs preferences.Store, edits editing.Store) (*Loader, error) {
	if certs == nil {
		return nil, certificates.ErrNotConfigured
	}
	if prefs == nil {
		return nil, errors.New("profile: preferences store is required")
	}
	if edits == nil {
		return nil, errors.New("profile: edit store is required")
	}
	return &Loader{certificates: certs, preferences: prefs, edits: edits}, nil
}

// CertificatesSection loads the certificates section of username's profile
// as seen by viewer. A failing certificate source is logged and rendered as
// absent certificates rather than failing the page.
func (l *Loader) CertificatesSection(ctx context.Context, viewer Viewer, username string) (certificates.ViewState, error) {
	logger := observability.FromContext(ctx).With(zap.String("profile", username))
	owner := viewer.Owns(username)
	key := CertificatesEditKey(username)

	saved, err := l.preferences.Visibility(ctx, key.Owner, key.FormID)
	if err != nil {
		return certificates.ViewState{}, err
	}

	var certs []certificates.Certificate
	if owner || saved == certificates.VisibilityAllUsers {
		list, err := l.certificates.Certificates(ctx, viewer.Token, username)
		if err != nil {
			logger.Warn("load certificates", zap.Error(err))
		} else {
			certs = certificates.Normalize(list)
		}
	}

	var edit editing.State
	if owner {
		edit, err = l.edits.Get(ctx, key)
		if err != nil {
			return certificates.ViewState{}, err
		}
	}

	return SelectCertificates(SelectInput{
		FormID:       CertificatesFormID,
		IsOwner:      owner,
		Certificates: certs,
		Saved:        saved,
		Edit:         edit,
	}), nil
}
