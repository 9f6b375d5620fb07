// Package profile renders the learner profile page shell.
package profile

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"finitefield.org/profile-portal/internal/portal/i18n"
	"finitefield.org/profile-portal/internal/portal/templates/helpers"
)

const htmxScript = "https://unpkg.com/htmx.org@1.9.12"

// PageData drives the profile page.
type PageData struct {
	Lang       string
	Username   string
	BasePath   string
	SignedIn   bool
	SignInPath string
	CSRFToken  string
	Messages   *i18n.Localizer
	Sections   []templ.Component
}

// Page renders the full profile document.
func Page(data PageData) templ.Component {
	title := data.Messages.Format("profile.page.title", map[string]string{"username": data.Username})
	static := data.BasePath + "/static"

	head := helpers.Element("head", nil,
		helpers.Void("meta", helpers.Attrs{helpers.A("charset", "utf-8")}),
		helpers.Void("meta", helpers.Attrs{helpers.A("name", "viewport"), helpers.A("content", "width=device-width, initial-scale=1")}),
		helpers.Void("meta", helpers.Attrs{helpers.A("name", "csrf-token"), helpers.A("content", data.CSRFToken)}),
		helpers.Element("title", nil, helpers.TextComponent(title)),
		helpers.Void("link", helpers.Attrs{helpers.A("rel", "stylesheet"), helpers.A("href", static+"/css/profile.css")}),
		helpers.Element("script", helpers.Attrs{helpers.A("src", htmxScript), helpers.Bool("defer")}),
		helpers.Element("script", helpers.Attrs{helpers.A("src", static+"/js/profile.js"), helpers.Bool("defer")}),
	)

	var signIn templ.Component
	if !data.SignedIn && data.SignInPath != "" {
		signIn = helpers.Element("a",
			helpers.Attrs{helpers.A("class", "btn btn-link"), helpers.A("href", helpers.SafeURL(data.SignInPath)), helpers.Bool("data-sign-in")},
			helpers.TextComponent(data.Messages.Message("profile.page.signin")),
		)
	}

	body := helpers.Element("body", nil,
		helpers.Element("main", helpers.Attrs{helpers.A("class", "profile-page"), helpers.A("data-profile", data.Username)},
			helpers.Element("header", helpers.Attrs{helpers.A("class", "profile-header")},
				helpers.Element("h1", nil, helpers.TextComponent(data.Username)),
				signIn,
			),
			helpers.Fragment(data.Sections...),
		),
	)

	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<!doctype html>"); err != nil {
			return err
		}
		return helpers.Element("html", helpers.Attrs{helpers.A("lang", data.Lang)}, head, body).Render(ctx, w)
	})
}
