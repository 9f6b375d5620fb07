// Package certificates renders the certificates section of a learner profile
// and forwards its user actions to the injected handlers.
package certificates

import (
	"errors"
	"strings"

	"github.com/a-h/templ"

	model "finitefield.org/profile-portal/internal/portal/certificates"
	"finitefield.org/profile-portal/internal/portal/i18n"
	"finitefield.org/profile-portal/internal/portal/templates/elements"
	"finitefield.org/profile-portal/internal/portal/templates/helpers"
)

// ErrInvalidProps reports a section constructed without a form ID, a
// handler or a message catalog.
var ErrInvalidProps = errors.New("certificates section: invalid props")

const (
	headerMessageID     = "profile.certificates.my.certificates"
	emptyMessageID      = "profile.no.certificates"
	emptyMessageDefault = "You don't have any certificates yet."
)

// Handlers receive the section's user actions. Each is called with the
// section's form ID.
type Handlers struct {
	Change func(formID, name, value string) error
	Submit func(formID string) error
	Close  func(formID string) error
	Open   func(formID string) error
}

// ActionPaths are the endpoints the rendered markup posts each action to.
type ActionPaths struct {
	Change string
	Submit string
	Close  string
	Open   string
}

// Props configure a Section. Certificates nil means none were loaded.
type Props struct {
	FormID       string
	Certificates []model.Certificate
	Visibility   model.Visibility
	EditMode     model.EditMode
	SaveState    model.SaveState
	Handlers     Handlers
	Actions      ActionPaths
	Messages     i18n.Messages
}

// PropsFromView copies the view state into props.
func PropsFromView(view model.ViewState) Props {
	return Props{
		FormID:       view.FormID,
		Certificates: view.Certificates,
		Visibility:   view.Visibility,
		EditMode:     view.EditMode,
		SaveState:    view.SaveState,
	}
}

// Section is a validated certificates section.
type Section struct {
	props Props
}

// New validates props and applies defaults: static edit mode and private
// visibility.
func New(props Props) (*Section, error) {
	props.FormID = strings.TrimSpace(props.FormID)
	switch {
	case props.FormID == "":
		return nil, errors.Join(ErrInvalidProps, errors.New("form id is required"))
	case props.Handlers.Change == nil, props.Handlers.Submit == nil,
		props.Handlers.Close == nil, props.Handlers.Open == nil:
		return nil, errors.Join(ErrInvalidProps, errors.New("all handlers are required"))
	case props.Messages == nil:
		return nil, errors.Join(ErrInvalidProps, errors.New("messages are required"))
	}
	if props.EditMode == "" {
		props.EditMode = model.EditModeStatic
	}
	if _, err := model.ParseEditMode(string(props.EditMode)); err != nil {
		return nil, errors.Join(ErrInvalidProps, err)
	}
	if props.Visibility == "" {
		props.Visibility = model.VisibilityPrivate
	}
	return &Section{props: props}, nil
}

// Props returns the props after defaults were applied.
func (s *Section) Props() Props { return s.props }

// ID is the DOM id of the rendered section.
func (s *Section) ID() string { return SectionID(s.props.FormID) }

// SectionID is the DOM id of the section rendering formID.
func SectionID(formID string) string { return "profile-section-" + formID }

// HandleChange forwards a field change.
func (s *Section) HandleChange(name, value string) error {
	return s.props.Handlers.Change(s.props.FormID, name, value)
}

// HandleSubmit forwards a form submission.
func (s *Section) HandleSubmit() error {
	return s.props.Handlers.Submit(s.props.FormID)
}

// HandleClose forwards a cancel.
func (s *Section) HandleClose() error {
	return s.props.Handlers.Close(s.props.FormID)
}

// HandleOpen forwards an edit request.
func (s *Section) HandleOpen() error {
	return s.props.Handlers.Open(s.props.FormID)
}

// Component renders the variant selected by the edit mode.
func (s *Section) Component() templ.Component {
	p := s.props
	return elements.SwitchContent(elements.SwitchProps{
		ID:         s.ID(),
		Class:      "profile-section certificates-section",
		Expression: string(p.EditMode),
		Attrs:      helpers.Attrs{helpers.A("data-form-id", p.FormID)},
		Cases: map[string]templ.Component{
			string(model.EditModeEditing):  s.editing(),
			string(model.EditModeEditable): s.editable(),
			string(model.EditModeEmpty):    s.empty(),
			string(model.EditModeStatic):   s.static(),
		},
	})
}

func (s *Section) action(path string) elements.Action {
	return elements.Action{Path: path, Target: "#" + s.ID()}
}

func (s *Section) header() string {
	return s.props.Messages.Message(headerMessageID)
}

func (s *Section) editing() templ.Component {
	p := s.props
	formAttrs := helpers.Attrs{
		helpers.A("class", "certificates-form"),
		helpers.A("data-form", p.FormID),
	}
	formAttrs = append(formAttrs, s.action(p.Actions.Submit).Attrs()...)
	return helpers.Element("form", formAttrs,
		elements.EditableItemHeader(elements.HeaderProps{Content: s.header(), Messages: p.Messages}),
		s.list(),
		elements.FormControls(elements.FormControlsProps{
			FormID:       p.FormID,
			SaveState:    p.SaveState,
			Visibility:   p.Visibility,
			ChangeAction: s.action(p.Actions.Change),
			CancelAction: s.action(p.Actions.Close),
			Messages:     p.Messages,
		}),
	)
}

func (s *Section) editable() templ.Component {
	p := s.props
	return helpers.Fragment(
		elements.EditableItemHeader(elements.HeaderProps{
			Content:        s.header(),
			ShowEditButton: true,
			EditAction:     s.action(p.Actions.Open),
			ShowVisibility: p.Visibility != model.VisibilityNone,
			Visibility:     p.Visibility,
			Messages:       p.Messages,
		}),
		s.list(),
	)
}

func (s *Section) empty() templ.Component {
	return helpers.Element("p", helpers.Attrs{helpers.A("class", "no-certificates")},
		helpers.TextComponent(s.props.Messages.MessageDefault(emptyMessageID, emptyMessageDefault)))
}

func (s *Section) static() templ.Component {
	return helpers.Fragment(
		elements.EditableItemHeader(elements.HeaderProps{Content: s.header(), Messages: s.props.Messages}),
		s.list(),
	)
}

func (s *Section) list() templ.Component {
	if s.props.Certificates == nil {
		return templ.NopComponent
	}
	cards := make([]templ.Component, 0, len(s.props.Certificates))
	for _, cert := range s.props.Certificates {
		cards = append(cards, s.card(cert))
	}
	return helpers.Element("div", helpers.Attrs{helpers.A("class", "certificates-list row")}, cards...)
}

func (s *Section) card(cert model.Certificate) templ.Component {
	messages := s.props.Messages
	return helpers.Element("div",
		helpers.Attrs{
			helpers.A("class", "certificate col-md-6"),
			helpers.A("data-certificate-key", cert.DownloadURL),
		},
		helpers.Element("div", helpers.Attrs{helpers.A("class", "card")},
			helpers.Element("div", helpers.Attrs{helpers.A("class", "card-body")},
				helpers.Element("p", helpers.Attrs{helpers.A("class", "certificate-type")}, helpers.TextComponent(cert.Type.Name)),
				helpers.Element("h4", helpers.Attrs{helpers.A("class", "certificate-title")}, helpers.TextComponent(cert.Title)),
				helpers.Element("p", helpers.Attrs{helpers.A("class", "certificate-from")},
					helpers.TextComponent(messages.MessageDefault("profile.certificate.from", "From"))),
				helpers.Element("h6", helpers.Attrs{helpers.A("class", "certificate-organization")}, helpers.TextComponent(cert.Organization)),
				helpers.Element("a",
					helpers.Attrs{
						helpers.A("class", "btn btn-outline-primary"),
						helpers.A("href", helpers.SafeURL(cert.DownloadURL)),
						helpers.A("target", "_blank"),
						helpers.A("rel", "noopener noreferrer"),
						helpers.Bool("data-download"),
					},
					helpers.TextComponent(messages.MessageDefault("profile.certificate.download", "Download")),
				),
			),
		),
	)
}
