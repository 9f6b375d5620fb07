package testutil

import (
	"net/http/httptest"
	"testing"

	"finitefield.org/profile-portal/internal/portal/certificates"
	"finitefield.org/profile-portal/internal/portal/editing"
	"finitefield.org/profile-portal/internal/portal/httpserver"
	"finitefield.org/profile-portal/internal/portal/httpserver/middleware"
	"finitefield.org/profile-portal/internal/portal/i18n"
	"finitefield.org/profile-portal/internal/portal/preferences"
	"finitefield.org/profile-portal/internal/portal/profile"
)

// CSRF cookie and header names used by NewServer.
const (
	CSRFCookieName = "csrf_token"
	CSRFHeaderName = "X-CSRF-Token"
)

type serverConfig struct {
	http         httpserver.Config
	certificates certificates.Service
	preferences  preferences.Store
	edits        editing.Store
}

// ServerOption customises the HTTP server configuration for tests.
type ServerOption func(*serverConfig)

// WithAuthenticator overrides the authenticator used by the server.
func WithAuthenticator(auth middleware.Authenticator) ServerOption {
	return func(cfg *serverConfig) {
		cfg.http.Authenticator = auth
	}
}

// WithBasePath sets a custom base path for the portal routes.
func WithBasePath(path string) ServerOption {
	return func(cfg *serverConfig) {
		cfg.http.BasePath = path
	}
}

// WithCertificates wires a custom certificate source.
func WithCertificates(service certificates.Service) ServerOption {
	return func(cfg *serverConfig) {
		cfg.certificates = service
	}
}

// WithPreferences wires a custom preference store.
func WithPreferences(store preferences.Store) ServerOption {
	return func(cfg *serverConfig) {
		cfg.preferences = store
	}
}

// WithEditStore wires a custom edit-state store.
func WithEditStore(store editing.Store) ServerOption {
	return func(cfg *serverConfig) {
		cfg.edits = store
	}
}

// NewServer constructs an httptest server running the portal HTTP stack with
// in-memory stores, the demo certificates and the development authenticator.
func NewServer(t testing.TB, opts ...ServerOption) *httptest.Server {
	t.Helper()

	bundle, err := i18n.LoadEmbedded(i18n.DefaultFallback)
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}

	cfg := serverConfig{
		http: httpserver.Config{
			Address:        ":0",
			SiteName:       TestSiteName,
			CSRFCookieName: CSRFCookieName,
			CSRFHeaderName: CSRFHeaderName,
			Authenticator:  middleware.DevAuthenticator(),
			Bundle:         bundle,
		},
		certificates: certificates.NewStaticService(nil),
		preferences:  preferences.NewMemoryStore(),
		edits:        editing.NewMemoryStore(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	loader, err := profile.NewLoader(cfg.certificates, cfg.preferences, cfg.edits)
	if err != nil {
		t.Fatalf("loader: %v", err)
	}
	dispatcher, err := editing.NewDispatcher(cfg.edits, cfg.preferences)
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	cfg.http.Loader = loader
	cfg.http.Dispatcher = dispatcher

	srv, err := httpserver.New(cfg.http)
	if err != nil {
		t.Fatalf("server: %v", err)
	}
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}
