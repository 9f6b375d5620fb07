package ui

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"finitefield.org/profile-portal/internal/portal/editing"
	custommw "finitefield.org/profile-portal/internal/portal/httpserver/middleware"
	"finitefield.org/profile-portal/internal/portal/i18n"
	"finitefield.org/profile-portal/internal/portal/observability"
	"finitefield.org/profile-portal/internal/portal/profile"
	profiletpl "finitefield.org/profile-portal/internal/portal/templates/profile"
)

// Dependencies collects the services required by the UI handlers.
type Dependencies struct {
	Loader     *profile.Loader
	Dispatcher *editing.Dispatcher
	Bundle     *i18n.Bundle
	SiteName   string
	LoginPath  string
}

// Handlers exposes the profile page and its section fragments.
type Handlers struct {
	loader     *profile.Loader
	dispatcher *editing.Dispatcher
	bundle     *i18n.Bundle
	siteName   string
	loginPath  string
}

// NewHandlers wires the UI handler set.
func NewHandlers(deps Dependencies) (*Handlers, error) {
	if deps.Loader == nil {
		return nil, errors.New("ui: profile loader is required")
	}
	if deps.Dispatcher == nil {
		return nil, errors.New("ui: edit dispatcher is required")
	}
	if deps.Bundle == nil {
		return nil, errors.New("ui: message bundle is required")
	}
	return &Handlers{
		loader:     deps.Loader,
		dispatcher: deps.Dispatcher,
		bundle:     deps.Bundle,
		siteName:   deps.SiteName,
		loginPath:  deps.LoginPath,
	}, nil
}

// Root sends signed-in viewers to their own profile and others to sign in.
func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	if user, ok := custommw.UserFromContext(r.Context()); ok && user.Username != "" {
		base := custommw.BasePathFromContext(r.Context())
		http.Redirect(w, r, joinBasePath(base, "/u/"+url.PathEscape(user.Username)), http.StatusFound)
		return
	}
	http.Redirect(w, r, h.loginPath, http.StatusFound)
}

// Healthz reports liveness.
func (h *Handlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// ProfilePage renders a learner profile.
func (h *Handlers) ProfilePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := chi.URLParam(r, "username")
	user, signedIn := custommw.UserFromContext(ctx)
	viewer := user.Viewer()
	messages := h.messages(r)

	section, err := h.certificatesSection(r, viewer, username)
	if err != nil {
		observability.FromContext(ctx).Error("render profile", zap.String("profile", username), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	page := profiletpl.Page(profiletpl.PageData{
		Lang:       messages.Lang(),
		Username:   username,
		BasePath:   custommw.BasePathFromContext(ctx),
		SignedIn:   signedIn,
		SignInPath: h.loginPath,
		CSRFToken:  custommw.CSRFTokenFromContext(ctx),
		Messages:   messages,
		Sections:   []templ.Component{section.Component()},
	})
	templ.Handler(page).ServeHTTP(w, r)
}

func (h *Handlers) messages(r *http.Request) *i18n.Localizer {
	if l, ok := custommw.LocalizerFromContext(r.Context()); ok {
		return l
	}
	return h.bundle.Localizer(h.bundle.Fallback(), map[string]string{"siteName": h.siteName})
}
