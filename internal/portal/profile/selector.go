// Package profile derives the render state of profile sections from the
// certificate source, saved preferences and the owner's edit state.
package profile

import (
	"finitefield.org/profile-portal/internal/portal/certificates"
	"finitefield.org/profile-portal/internal/portal/editing"
)

// CertificatesFormID identifies the certificates section.
const CertificatesFormID = "certificates"

// SelectInput carries everything SelectCertificates needs.
type SelectInput struct {
	FormID       string
	IsOwner      bool
	Certificates []certificates.Certificate
	Saved        certificates.Visibility
	Edit         editing.State
}

// SelectCertificates maps loaded data to the certificates section view state.
//
// Visitors always get the static variant without a visibility indicator and
// see nothing when the owner keeps the section private. Owners get the form
// while editing, the empty message when they hold no certificates, and the
// editable variant otherwise.
func SelectCertificates(in SelectInput) certificates.ViewState {
	saved := in.Saved
	if saved == "" {
		saved = certificates.VisibilityPrivate
	}

	if !in.IsOwner {
		view := certificates.ViewState{
			FormID:       in.FormID,
			Certificates: in.Certificates,
			Visibility:   certificates.VisibilityNone,
			EditMode:     certificates.EditModeStatic,
		}
		if saved != certificates.VisibilityAllUsers {
			view.Certificates = nil
		}
		return view
	}

	visibility := saved
	if draft, ok := in.Edit.Draft(editing.VisibilityField(in.FormID)); ok {
		if v, err := certificates.ParseVisibility(draft); err == nil {
			visibility = v
		}
	}

	view := certificates.ViewState{
		FormID:       in.FormID,
		Certificates: in.Certificates,
		Visibility:   visibility,
		SaveState:    in.Edit.SaveState,
	}
	switch {
	case in.Edit.Open:
		view.EditMode = certificates.EditModeEditing
	case len(in.Certificates) == 0:
		view.EditMode = certificates.EditModeEmpty
	default:
		view.EditMode = certificates.EditModeEditable
	}
	return view
}
