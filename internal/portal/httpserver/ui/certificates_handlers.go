package ui

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"finitefield.org/profile-portal/internal/portal/editing"
	custommw "finitefield.org/profile-portal/internal/portal/httpserver/middleware"
	"finitefield.org/profile-portal/internal/portal/observability"
	"finitefield.org/profile-portal/internal/portal/profile"
	certtpl "finitefield.org/profile-portal/internal/portal/templates/certificates"
	"finitefield.org/profile-portal/internal/portal/templates/elements"
)

// Section actions accepted on POST /u/{username}/sections/{formID}/{action}.
const (
	ActionOpen   = "open"
	ActionClose  = "close"
	ActionChange = "change"
	ActionSubmit = "submit"
)

// SectionFragment re-renders a section for htmx swaps.
func (h *Handlers) SectionFragment(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "formID") != profile.CertificatesFormID {
		http.NotFound(w, r)
		return
	}
	user, _ := custommw.UserFromContext(r.Context())
	h.renderSection(w, r, user.Viewer(), chi.URLParam(r, "username"))
}

// SectionAction applies an owner action to a section and responds with the
// re-rendered section.
func (h *Handlers) SectionAction(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		username := chi.URLParam(r, "username")
		formID := chi.URLParam(r, "formID")
		logger := observability.FromContext(ctx).With(
			zap.String("profile", username),
			zap.String("form_id", formID),
			zap.String("action", action),
		)

		if formID != profile.CertificatesFormID {
			http.NotFound(w, r)
			return
		}
		user, ok := custommw.UserFromContext(ctx)
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		viewer := user.Viewer()
		if !viewer.Owns(username) {
			logger.Warn("section action by non-owner", zap.String("viewer", viewer.Username))
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		section, err := h.actionSection(r, username, formID)
		if err != nil {
			logger.Error("bind section", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		switch action {
		case ActionOpen:
			err = section.HandleOpen()
		case ActionClose:
			err = section.HandleClose()
		case ActionSubmit:
			err = section.HandleSubmit()
		case ActionChange:
			if err = r.ParseForm(); err != nil {
				http.Error(w, "invalid form", http.StatusBadRequest)
				return
			}
			field := r.PostFormValue(elements.FieldParam)
			err = section.HandleChange(field, r.PostFormValue(field))
		default:
			http.NotFound(w, r)
			return
		}

		switch {
		case err == nil:
		case errors.Is(err, editing.ErrInvalidField):
			logger.Info("rejected section change", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		case errors.Is(err, editing.ErrNotEditing):
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
			return
		default:
			logger.Error("section action failed", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		h.renderSection(w, r, viewer, username)
	}
}

func (h *Handlers) renderSection(w http.ResponseWriter, r *http.Request, viewer profile.Viewer, username string) {
	section, err := h.certificatesSection(r, viewer, username)
	if err != nil {
		observability.FromContext(r.Context()).Error("render section", zap.String("profile", username), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	templ.Handler(section.Component()).ServeHTTP(w, r)
}

// certificatesSection loads the current view state and binds the section
// actions to the edit dispatcher for username's profile.
func (h *Handlers) certificatesSection(r *http.Request, viewer profile.Viewer, username string) (*certtpl.Section, error) {
	ctx := r.Context()
	view, err := h.loader.CertificatesSection(ctx, viewer, username)
	if err != nil {
		return nil, err
	}

	return h.bindSection(r, certtpl.PropsFromView(view), username)
}

// actionSection binds the section callbacks without loading certificates;
// the fresh view is loaded once when the section is re-rendered.
func (h *Handlers) actionSection(r *http.Request, username, formID string) (*certtpl.Section, error) {
	return h.bindSection(r, certtpl.Props{FormID: formID}, username)
}

func (h *Handlers) bindSection(r *http.Request, props certtpl.Props, username string) (*certtpl.Section, error) {
	ctx := r.Context()
	props.Handlers = h.certificatesHandlers(ctx, username)
	props.Actions = sectionActionPaths(custommw.BasePathFromContext(ctx), username, props.FormID)
	props.Messages = h.messages(r)
	return certtpl.New(props)
}

func (h *Handlers) certificatesHandlers(ctx context.Context, username string) certtpl.Handlers {
	key := profile.CertificatesEditKey(username)
	return certtpl.Handlers{
		Change: func(_ string, name, value string) error {
			return h.dispatcher.Change(ctx, key, name, value)
		},
		Submit: func(string) error {
			_, err := h.dispatcher.Submit(ctx, key)
			return err
		},
		Close: func(string) error {
			return h.dispatcher.Close(ctx, key)
		},
		Open: func(string) error {
			return h.dispatcher.Open(ctx, key)
		},
	}
}

func sectionActionPaths(basePath, username, formID string) certtpl.ActionPaths {
	prefix := joinBasePath(basePath, "/u/"+url.PathEscape(username)+"/sections/"+url.PathEscape(formID)+"/")
	return certtpl.ActionPaths{
		Change: prefix + ActionChange,
		Submit: prefix + ActionSubmit,
		Close:  prefix + ActionClose,
		Open:   prefix + ActionOpen,
	}
}
