package certificates

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Certificate is a course completion certificate shown on a learner profile.
type Certificate struct {
	Type         CertificateType `json:"type"`
	Title        string          `json:"title"`
	Organization string          `json:"organization"`
	DownloadURL  string          `json:"downloadUrl"`
}

// CertificateType names the kind of certificate (verified, professional, ...).
type CertificateType struct {
	Name string `json:"name"`
}

// Visibility is the privacy scope of a profile section.
type Visibility string

const (
	// VisibilityPrivate restricts the section to its owner.
	VisibilityPrivate Visibility = "private"
	// VisibilityAllUsers shares the section with every signed-in user.
	VisibilityAllUsers Visibility = "all_users"
	// VisibilityNone marks an explicitly absent visibility (nothing to show).
	VisibilityNone Visibility = "none"
)

// EditMode selects which variant of a profile section is rendered.
type EditMode string

const (
	EditModeEditing  EditMode = "editing"
	EditModeEditable EditMode = "editable"
	EditModeEmpty    EditMode = "empty"
	EditModeStatic   EditMode = "static"
)

// SaveState describes an in-flight or finished save of a section form.
// The zero value means no save has been attempted.
type SaveState string

const (
	SaveStatePending  SaveState = "pending"
	SaveStateComplete SaveState = "complete"
	SaveStateError    SaveState = "error"
)

// ViewState is the derived data a section is rendered from.
type ViewState struct {
	FormID       string
	Certificates []Certificate
	Visibility   Visibility
	EditMode     EditMode
	SaveState    SaveState
}

var (
	// ErrInvalidVisibility is returned for values outside the supported scopes.
	ErrInvalidVisibility = errors.New("certificates: invalid visibility")
	// ErrInvalidEditMode is returned for unknown edit modes.
	ErrInvalidEditMode = errors.New("certificates: invalid edit mode")
)

// ParseVisibility validates a user-supplied visibility value. Only the two
// selectable scopes are accepted.
func ParseVisibility(value string) (Visibility, error) {
	switch v := Visibility(strings.TrimSpace(value)); v {
	case VisibilityPrivate, VisibilityAllUsers:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidVisibility, value)
	}
}

// IsSelectable reports whether v can be chosen in a form.
func (v Visibility) IsSelectable() bool {
	return v == VisibilityPrivate || v == VisibilityAllUsers
}

// ParseEditMode validates an edit mode value.
func ParseEditMode(value string) (EditMode, error) {
	switch m := EditMode(strings.TrimSpace(value)); m {
	case EditModeEditing, EditModeEditable, EditModeEmpty, EditModeStatic:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidEditMode, value)
	}
}

var textPolicy = bluemonday.StrictPolicy()

// Normalize strips markup from display fields, drops entries without a
// download URL and removes duplicate download URLs, keeping the first
// occurrence. A nil input stays nil.
func Normalize(list []Certificate) []Certificate {
	if list == nil {
		return nil
	}
	out := make([]Certificate, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, cert := range list {
		url := strings.TrimSpace(cert.DownloadURL)
		if url == "" {
			continue
		}
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		out = append(out, Certificate{
			Type:         CertificateType{Name: cleanText(cert.Type.Name)},
			Title:        cleanText(cert.Title),
			Organization: cleanText(cert.Organization),
			DownloadURL:  url,
		})
	}
	return out
}

// cleanText returns plain text; the policy escapes entities, which the
// renderer escapes again, so they are decoded here.
func cleanText(value string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(value)))
}
