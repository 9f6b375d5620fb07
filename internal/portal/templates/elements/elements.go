// Package elements provides the generic widgets profile sections are built
// from: the mode switch, section headers, visibility indicators and the form
// controls of an open section.
package elements

import (
	"github.com/a-h/templ"

	"finitefield.org/profile-portal/internal/portal/certificates"
	"finitefield.org/profile-portal/internal/portal/i18n"
	"finitefield.org/profile-portal/internal/portal/templates/helpers"
)

// Action is an htmx request that swaps the section it targets.
type Action struct {
	Path   string
	Target string
}

// Attrs returns the htmx attributes of the action.
func (a Action) Attrs() helpers.Attrs {
	if a.Path == "" {
		return nil
	}
	attrs := helpers.Attrs{helpers.A("hx-post", a.Path)}
	if a.Target != "" {
		attrs = append(attrs, helpers.A("hx-target", a.Target), helpers.A("hx-swap", "outerHTML"))
	}
	return attrs
}

// SwitchProps configures SwitchContent.
type SwitchProps struct {
	ID         string
	Class      string
	Expression string
	Cases      map[string]templ.Component
	Attrs      helpers.Attrs
}

// SwitchContent renders a wrapper holding the case keyed by Expression. An
// unmatched expression renders the wrapper alone.
func SwitchContent(p SwitchProps) templ.Component {
	attrs := helpers.Attrs{}
	if p.ID != "" {
		attrs = append(attrs, helpers.A("id", p.ID))
	}
	if p.Class != "" {
		attrs = append(attrs, helpers.A("class", p.Class))
	}
	attrs = append(attrs, helpers.A("data-switch-case", p.Expression))
	attrs = append(attrs, p.Attrs...)
	return helpers.Element("div", attrs, p.Cases[p.Expression])
}

// HeaderProps configures EditableItemHeader.
type HeaderProps struct {
	Content        string
	ShowEditButton bool
	EditAction     Action
	ShowVisibility bool
	Visibility     certificates.Visibility
	Messages       i18n.Messages
}

// EditableItemHeader renders a section title with an optional edit button
// and visibility indicator.
func EditableItemHeader(p HeaderProps) templ.Component {
	var edit templ.Component
	if p.ShowEditButton {
		attrs := helpers.Attrs{
			helpers.A("type", "button"),
			helpers.A("class", "btn btn-link btn-edit"),
			helpers.Bool("data-edit-button"),
		}
		edit = helpers.Element("button", append(attrs, p.EditAction.Attrs()...),
			helpers.TextComponent(p.Messages.MessageDefault("profile.editbutton.edit", "Edit")))
	}
	return helpers.Element("div", helpers.Attrs{helpers.A("class", "editable-item-header")},
		helpers.Element("h2", helpers.Attrs{helpers.A("class", "section-header")}, helpers.TextComponent(p.Content)),
		edit,
		helpers.When(p.ShowVisibility, VisibilityIndicator(p.Visibility, p.Messages)),
	)
}

// VisibilityIndicator shows who can see a section. Unknown or absent
// visibilities render nothing.
func VisibilityIndicator(v certificates.Visibility, messages i18n.Messages) templ.Component {
	if !v.IsSelectable() {
		return templ.NopComponent
	}
	return helpers.Element("span",
		helpers.Attrs{
			helpers.A("class", "visibility-indicator"),
			helpers.A("data-visibility-indicator", string(v)),
		},
		helpers.TextComponent(VisibilityLabel(v, messages)),
	)
}

// VisibilityLabel returns the localized label of v.
func VisibilityLabel(v certificates.Visibility, messages i18n.Messages) string {
	switch v {
	case certificates.VisibilityAllUsers:
		return messages.MessageDefault("profile.visibility.all_users", "Everyone on {siteName}")
	default:
		return messages.MessageDefault("profile.visibility.private", "Just me")
	}
}
