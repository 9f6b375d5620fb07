// Package config loads the portal configuration from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile         = ".env"
	defaultAddress         = ":8080"
	defaultSiteName        = "Finite Field"
	defaultEnvironment     = "development"
	defaultLogLevel        = "info"
	defaultRequestTimeout  = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultHTTPTimeout     = 5 * time.Second
	defaultEditTTL         = 30 * time.Minute
	defaultURLExpiry       = 15 * time.Minute
	defaultFallbackLocale  = "en"
)

// Certificate sources.
const (
	SourceStatic    = "static"
	SourceHTTP      = "http"
	SourceFirestore = "firestore"
)

// Store backends.
const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendRedis     = "redis"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Environment  string
	Server       ServerConfig
	Log          LogConfig
	Certificates CertificatesConfig
	Preferences  PreferencesConfig
	EditState    EditStateConfig
	Firebase     FirebaseConfig
	Firestore    FirestoreConfig
	Storage      StorageConfig
	CSRF         CSRFConfig
	Locale       LocaleConfig
}

// IsDevelopment reports whether the portal runs in local development mode.
func (c Config) IsDevelopment() bool {
	return c.Environment == defaultEnvironment
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Address         string
	BasePath        string
	LoginPath       string
	SiteName        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// LogConfig controls logging.
type LogConfig struct {
	Level string
}

// CertificatesConfig selects where certificates are read from.
type CertificatesConfig struct {
	Source     string
	BaseURL    string
	Timeout    time.Duration
	Collection string
}

// PreferencesConfig selects where section visibility is persisted.
type PreferencesConfig struct {
	Backend    string
	Collection string
}

// EditStateConfig selects where open forms and drafts are kept.
type EditStateConfig struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

// FirebaseConfig stores Firebase project settings.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// StorageConfig configures signed certificate downloads.
type StorageConfig struct {
	DownloadsBucket string
	SignerKeyFile   string
	URLExpiry       time.Duration
}

// CSRFConfig configures the double-submit cookie.
type CSRFConfig struct {
	CookieName   string
	HeaderName   string
	CookieSecure bool
}

// LocaleConfig configures message catalogs.
type LocaleConfig struct {
	Fallback string
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration from defaults, the .env file, the
// process environment and the explicit map, later sources winning.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	if err := ctx.Err(); err != nil {
		return Config{}, err
	}

	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if value, ok := dotEnvValues[key]; ok {
			return value, true
		}
		return "", false
	}

	firebaseProject := stringWithDefault(lookup, "PROFILE_FIREBASE_PROJECT_ID", "")
	cfg := Config{
		Environment: strings.ToLower(stringWithDefault(lookup, "PROFILE_ENVIRONMENT", defaultEnvironment)),
		Server: ServerConfig{
			Address:         stringWithDefault(lookup, "PROFILE_HTTP_ADDR", defaultAddress),
			BasePath:        stringWithDefault(lookup, "PROFILE_BASE_PATH", "/"),
			LoginPath:       stringWithDefault(lookup, "PROFILE_LOGIN_PATH", ""),
			SiteName:        stringWithDefault(lookup, "PROFILE_SITE_NAME", defaultSiteName),
			RequestTimeout:  durationWithDefault(lookup, "PROFILE_REQUEST_TIMEOUT", defaultRequestTimeout),
			ShutdownTimeout: durationWithDefault(lookup, "PROFILE_SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		},
		Log: LogConfig{
			Level: stringWithDefault(lookup, "PROFILE_LOG_LEVEL", defaultLogLevel),
		},
		Certificates: CertificatesConfig{
			Source:     strings.ToLower(stringWithDefault(lookup, "PROFILE_CERTIFICATES_SOURCE", SourceStatic)),
			BaseURL:    stringWithDefault(lookup, "PROFILE_CERTIFICATES_BASE_URL", ""),
			Timeout:    durationWithDefault(lookup, "PROFILE_CERTIFICATES_TIMEOUT", defaultHTTPTimeout),
			Collection: stringWithDefault(lookup, "PROFILE_CERTIFICATES_COLLECTION", "certificates"),
		},
		Preferences: PreferencesConfig{
			Backend:    strings.ToLower(stringWithDefault(lookup, "PROFILE_PREFERENCES_BACKEND", BackendMemory)),
			Collection: stringWithDefault(lookup, "PROFILE_PREFERENCES_COLLECTION", "profile_preferences"),
		},
		EditState: EditStateConfig{
			Backend:       strings.ToLower(stringWithDefault(lookup, "PROFILE_EDIT_STATE_BACKEND", BackendMemory)),
			RedisAddr:     stringWithDefault(lookup, "PROFILE_REDIS_ADDR", ""),
			RedisPassword: stringWithDefault(lookup, "PROFILE_REDIS_PASSWORD", ""),
			RedisDB:       intWithDefault(lookup, "PROFILE_REDIS_DB", 0),
			TTL:           durationWithDefault(lookup, "PROFILE_EDIT_STATE_TTL", defaultEditTTL),
		},
		Firebase: FirebaseConfig{
			ProjectID:       firebaseProject,
			CredentialsFile: stringWithDefault(lookup, "PROFILE_FIREBASE_CREDENTIALS_FILE", ""),
		},
		Firestore: FirestoreConfig{
			ProjectID:    stringWithDefault(lookup, "PROFILE_FIRESTORE_PROJECT_ID", firebaseProject),
			EmulatorHost: stringWithDefault(lookup, "FIRESTORE_EMULATOR_HOST", ""),
		},
		Storage: StorageConfig{
			DownloadsBucket: stringWithDefault(lookup, "PROFILE_STORAGE_DOWNLOADS_BUCKET", ""),
			SignerKeyFile:   stringWithDefault(lookup, "PROFILE_STORAGE_SIGNER_KEY_FILE", ""),
			URLExpiry:       durationWithDefault(lookup, "PROFILE_STORAGE_URL_EXPIRY", defaultURLExpiry),
		},
		CSRF: CSRFConfig{
			CookieName:   stringWithDefault(lookup, "PROFILE_CSRF_COOKIE_NAME", "profile_csrf"),
			HeaderName:   stringWithDefault(lookup, "PROFILE_CSRF_HEADER_NAME", "X-CSRF-Token"),
			CookieSecure: boolWithDefault(lookup, "PROFILE_CSRF_COOKIE_SECURE", false),
		},
		Locale: LocaleConfig{
			Fallback: stringWithDefault(lookup, "PROFILE_LOCALE_FALLBACK", defaultFallbackLocale),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var fields []string

	switch c.Certificates.Source {
	case SourceStatic:
	case SourceHTTP:
		if c.Certificates.BaseURL == "" {
			fields = append(fields, "Certificates.BaseURL")
		}
	case SourceFirestore:
		if c.Firestore.ProjectID == "" {
			fields = append(fields, "Firestore.ProjectID")
		}
	default:
		fields = append(fields, "Certificates.Source")
	}

	switch c.Preferences.Backend {
	case BackendMemory:
	case BackendFirestore:
		if c.Firestore.ProjectID == "" && !contains(fields, "Firestore.ProjectID") {
			fields = append(fields, "Firestore.ProjectID")
		}
	default:
		fields = append(fields, "Preferences.Backend")
	}

	switch c.EditState.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.EditState.RedisAddr == "" {
			fields = append(fields, "EditState.RedisAddr")
		}
	default:
		fields = append(fields, "EditState.Backend")
	}

	if !c.IsDevelopment() && c.Firebase.ProjectID == "" {
		fields = append(fields, "Firebase.ProjectID")
	}
	if c.Storage.DownloadsBucket != "" && c.Storage.SignerKeyFile == "" {
		fields = append(fields, "Storage.SignerKeyFile")
	}
	if c.Server.RequestTimeout <= 0 {
		fields = append(fields, "Server.RequestTimeout")
	}

	if len(fields) > 0 {
		return &ValidationError{fields: fields}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", path, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
