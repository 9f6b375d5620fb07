package elements

import (
	"encoding/json"

	"github.com/a-h/templ"

	"finitefield.org/profile-portal/internal/portal/certificates"
	"finitefield.org/profile-portal/internal/portal/editing"
	"finitefield.org/profile-portal/internal/portal/i18n"
	"finitefield.org/profile-portal/internal/portal/templates/helpers"
)

// FieldParam names the request parameter carrying the name of a changed field.
const FieldParam = "field"

// AutoCloseDelay is the htmx trigger that closes a saved form.
const AutoCloseDelay = "load delay:1s"

// FormControlsProps configures FormControls.
type FormControlsProps struct {
	FormID       string
	SaveState    certificates.SaveState
	Visibility   certificates.Visibility
	ChangeAction Action
	CancelAction Action
	Messages     i18n.Messages
}

// FormControls renders the visibility select and the cancel and save
// buttons of an open section form.
func FormControls(p FormControlsProps) templ.Component {
	field := editing.VisibilityField(p.FormID)
	selectID := "visibility-" + p.FormID

	visibility := p.Visibility
	if !visibility.IsSelectable() {
		visibility = certificates.VisibilityPrivate
	}

	selectAttrs := helpers.Attrs{
		helpers.A("id", selectID),
		helpers.A("name", field),
		helpers.A("class", "form-control"),
		helpers.A("hx-trigger", "change"),
		helpers.A("hx-vals", fieldVals(field)),
	}
	selectAttrs = append(selectAttrs, p.ChangeAction.Attrs()...)

	options := make([]templ.Component, 0, 2)
	for _, v := range []certificates.Visibility{certificates.VisibilityPrivate, certificates.VisibilityAllUsers} {
		attrs := helpers.Attrs{helpers.A("value", string(v))}
		if v == visibility {
			attrs = append(attrs, helpers.Bool("selected"))
		}
		options = append(options, helpers.Element("option", attrs, helpers.TextComponent(VisibilityLabel(v, p.Messages))))
	}

	cancelAttrs := helpers.Attrs{
		helpers.A("type", "button"),
		helpers.A("class", "btn btn-link"),
		helpers.Bool("data-cancel-button"),
	}
	cancelAttrs = append(cancelAttrs, p.CancelAction.Attrs()...)

	saveAttrs := helpers.Attrs{
		helpers.A("type", "submit"),
		helpers.A("class", "btn btn-primary"),
		helpers.Bool("data-save-button"),
		helpers.A("data-save-state", string(p.SaveState)),
	}
	if p.SaveState == certificates.SaveStatePending {
		saveAttrs = append(saveAttrs, helpers.Bool("disabled"))
	}

	var autoClose templ.Component
	if p.SaveState == certificates.SaveStateComplete {
		attrs := helpers.Attrs{
			helpers.Bool("hidden"),
			helpers.Bool("data-auto-close"),
			helpers.A("hx-trigger", AutoCloseDelay),
		}
		autoClose = helpers.Element("div", append(attrs, p.CancelAction.Attrs()...))
	}

	return helpers.Element("div", helpers.Attrs{helpers.A("class", "form-controls")},
		helpers.Element("label", helpers.Attrs{helpers.A("for", selectID)},
			helpers.TextComponent(p.Messages.MessageDefault("profile.formcontrols.who.can.see", "Who can see this:"))),
		helpers.Element("select", selectAttrs, options...),
		helpers.Element("button", cancelAttrs,
			helpers.TextComponent(p.Messages.MessageDefault("profile.formcontrols.button.cancel", "Cancel"))),
		helpers.Element("button", saveAttrs, helpers.TextComponent(saveLabel(p.SaveState, p.Messages))),
		autoClose,
	)
}

func saveLabel(state certificates.SaveState, messages i18n.Messages) string {
	switch state {
	case certificates.SaveStatePending:
		return messages.MessageDefault("profile.formcontrols.button.saving", "Saving")
	case certificates.SaveStateComplete:
		return messages.MessageDefault("profile.formcontrols.button.saved", "Saved")
	case certificates.SaveStateError:
		return messages.MessageDefault("profile.formcontrols.button.retry", "Try again")
	default:
		return messages.MessageDefault("profile.formcontrols.button.save", "Save")
	}
}

func fieldVals(field string) string {
	raw, _ := json.Marshal(map[string]string{FieldParam: field})
	return string(raw)
}
