package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"finitefield.org/profile-portal/internal/portal/editing"
	custommw "finitefield.org/profile-portal/internal/portal/httpserver/middleware"
	"finitefield.org/profile-portal/internal/portal/httpserver/ui"
	"finitefield.org/profile-portal/internal/portal/i18n"
	"finitefield.org/profile-portal/internal/portal/observability"
	"finitefield.org/profile-portal/internal/portal/profile"
	"finitefield.org/profile-portal/public"
)

const defaultRequestTimeout = 30 * time.Second

// Config holds runtime options for the profile HTTP server.
type Config struct {
	Address          string
	BasePath         string
	LoginPath        string
	SiteName         string
	RequestTimeout   time.Duration
	Authenticator    custommw.Authenticator
	CSRFCookieName   string
	CSRFCookieSecure bool
	CSRFHeaderName   string

	Logger     *zap.Logger
	Bundle     *i18n.Bundle
	Loader     *profile.Loader
	Dispatcher *editing.Dispatcher
}

// New constructs the HTTP server with middleware stack and embedded assets.
func New(cfg Config) (*http.Server, error) {
	if cfg.Bundle == nil {
		return nil, errors.New("httpserver: message bundle is required")
	}

	basePath := custommw.NormaliseBase(cfg.BasePath)
	loginPath := resolveLoginPath(basePath, cfg.LoginPath)

	handlers, err := ui.NewHandlers(ui.Dependencies{
		Loader:     cfg.Loader,
		Dispatcher: cfg.Dispatcher,
		Bundle:     cfg.Bundle,
		SiteName:   cfg.SiteName,
		LoginPath:  loginPath,
	})
	if err != nil {
		return nil, err
	}

	staticContent, err := public.StaticFS()
	if err != nil {
		return nil, fmt.Errorf("embed static: %w", err)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(observability.RequestLogger(cfg.Logger))
	router.Use(observability.Recoverer)
	router.Use(chimw.Timeout(timeout))

	csrfCfg := custommw.CSRFConfig{
		CookieName: cfg.CSRFCookieName,
		CookiePath: basePath,
		HeaderName: cfg.CSRFHeaderName,
		Secure:     cfg.CSRFCookieSecure,
	}
	staticPrefix := strings.TrimRight(basePath, "/") + "/static/"

	router.Route(basePath, func(r chi.Router) {
		r.Use(custommw.RequestInfoMiddleware(basePath))
		r.Use(custommw.HTMX())
		r.Use(custommw.Locale(cfg.Bundle, cfg.SiteName))
		r.Use(custommw.OptionalAuth(cfg.Authenticator))
		r.Use(custommw.CSRF(csrfCfg))

		r.Get("/", handlers.Root)
		r.Get("/healthz", handlers.Healthz)
		r.Handle("/static/*", http.StripPrefix(staticPrefix, http.FileServer(http.FS(staticContent))))
		r.Get("/u/{username}", handlers.ProfilePage)

		r.Group(func(r chi.Router) {
			r.Use(custommw.NoStore())
			RegisterFragment(r, "/u/{username}/sections/{formID}", handlers.SectionFragment)

			r.Group(func(r chi.Router) {
				r.Use(custommw.RequireUser(loginPath))
				for _, action := range []string{ui.ActionOpen, ui.ActionClose, ui.ActionChange, ui.ActionSubmit} {
					r.Post("/u/{username}/sections/{formID}/"+action, handlers.SectionAction(action))
				}
			})
		})
	})

	return &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}, nil
}

func resolveLoginPath(base string, override string) string {
	if strings.TrimSpace(override) != "" {
		return override
	}
	if base == "/" {
		return "/login"
	}
	return base + "/login"
}

// RegisterFragment registers a GET handler intended for htmx fragment rendering.
func RegisterFragment(r chi.Router, pattern string, handler http.HandlerFunc) {
	r.With(custommw.RequireHTMX()).Get(pattern, handler)
}
