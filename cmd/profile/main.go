package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"finitefield.org/profile-portal/internal/portal/certificates"
	"finitefield.org/profile-portal/internal/portal/config"
	"finitefield.org/profile-portal/internal/portal/editing"
	"finitefield.org/profile-portal/internal/portal/httpserver"
	"finitefield.org/profile-portal/internal/portal/httpserver/middleware"
	"finitefield.org/profile-portal/internal/portal/i18n"
	"finitefield.org/profile-portal/internal/portal/observability"
	pfirestore "finitefield.org/profile-portal/internal/portal/platform/firestore"
	"finitefield.org/profile-portal/internal/portal/platform/storage"
	"finitefield.org/profile-portal/internal/portal/preferences"
	"finitefield.org/profile-portal/internal/portal/profile"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "profile: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	bundle, err := i18n.LoadEmbedded(cfg.Locale.Fallback)
	if err != nil {
		return fmt.Errorf("load catalogs: %w", err)
	}

	var provider *pfirestore.Provider
	if usesFirestore(cfg) {
		provider = buildFirestoreProvider(cfg)
		defer func() {
			if err := provider.Close(); err != nil {
				logger.Warn("close firestore provider", zap.Error(err))
			}
		}()
	}

	certs, err := buildCertificates(cfg, provider)
	if err != nil {
		return err
	}
	prefs, err := buildPreferences(cfg, provider)
	if err != nil {
		return err
	}
	edits, closeEdits, err := buildEditStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeEdits()

	loader, err := profile.NewLoader(certs, prefs, edits)
	if err != nil {
		return err
	}
	dispatcher, err := editing.NewDispatcher(edits, prefs)
	if err != nil {
		return err
	}

	auth, err := buildAuthenticator(ctx, cfg, logger)
	if err != nil {
		return err
	}

	srv, err := httpserver.New(httpserver.Config{
		Address:          cfg.Server.Address,
		BasePath:         cfg.Server.BasePath,
		LoginPath:        cfg.Server.LoginPath,
		SiteName:         cfg.Server.SiteName,
		RequestTimeout:   cfg.Server.RequestTimeout,
		Authenticator:    auth,
		CSRFCookieName:   cfg.CSRF.CookieName,
		CSRFCookieSecure: cfg.CSRF.CookieSecure,
		CSRFHeaderName:   cfg.CSRF.HeaderName,
		Logger:           logger,
		Bundle:           bundle,
		Loader:           loader,
		Dispatcher:       dispatcher,
	})
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	logger.Info("profile server listening",
		zap.String("addr", cfg.Server.Address),
		zap.String("base_path", cfg.Server.BasePath),
		zap.String("certificates", cfg.Certificates.Source),
		zap.String("edit_state", cfg.EditState.Backend),
	)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("profile server stopped")
	return nil
}

func usesFirestore(cfg config.Config) bool {
	return cfg.Certificates.Source == config.SourceFirestore || cfg.Preferences.Backend == config.BackendFirestore
}

func buildFirestoreProvider(cfg config.Config) *pfirestore.Provider {
	var opts []pfirestore.ProviderOption
	if cfg.Firebase.CredentialsFile != "" {
		opts = append(opts, pfirestore.WithClientOptions(option.WithCredentialsFile(cfg.Firebase.CredentialsFile)))
	}
	return pfirestore.NewProvider(pfirestore.Config{
		ProjectID:    cfg.Firestore.ProjectID,
		EmulatorHost: cfg.Firestore.EmulatorHost,
	}, opts...)
}

func buildCertificates(cfg config.Config, provider *pfirestore.Provider) (certificates.Service, error) {
	switch cfg.Certificates.Source {
	case config.SourceHTTP:
		return certificates.NewHTTPService(cfg.Certificates.BaseURL, &http.Client{Timeout: cfg.Certificates.Timeout})
	case config.SourceFirestore:
		var signer certificates.DownloadSigner
		if cfg.Storage.DownloadsBucket != "" {
			keys, err := storage.LoadKeySigner(cfg.Storage.SignerKeyFile)
			if err != nil {
				return nil, fmt.Errorf("load signer: %w", err)
			}
			downloads, err := storage.NewDownloads(cfg.Storage.DownloadsBucket, keys, storage.WithExpiry(cfg.Storage.URLExpiry))
			if err != nil {
				return nil, fmt.Errorf("init downloads: %w", err)
			}
			signer = downloads
		}
		return certificates.NewFirestoreService(provider, cfg.Certificates.Collection, signer)
	default:
		return certificates.NewStaticService(nil), nil
	}
}

func buildPreferences(cfg config.Config, provider *pfirestore.Provider) (preferences.Store, error) {
	if cfg.Preferences.Backend == config.BackendFirestore {
		return preferences.NewFirestoreStore(provider, cfg.Preferences.Collection)
	}
	return preferences.NewMemoryStore(), nil
}

func buildEditStore(ctx context.Context, cfg config.Config) (editing.Store, func(), error) {
	if cfg.EditState.Backend != config.BackendRedis {
		return editing.NewMemoryStore(editing.WithTTL(cfg.EditState.TTL)), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.EditState.RedisAddr,
		Password: cfg.EditState.RedisPassword,
		DB:       cfg.EditState.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}

	store, err := editing.NewRedisStore(client, cfg.EditState.TTL)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return store, func() { _ = client.Close() }, nil
}

func buildAuthenticator(ctx context.Context, cfg config.Config, logger *zap.Logger) (middleware.Authenticator, error) {
	if cfg.Firebase.ProjectID == "" {
		logger.Warn("firebase project not set; using development authenticator")
		return middleware.DevAuthenticator(), nil
	}

	var opts []option.ClientOption
	if cfg.Firebase.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.Firebase.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}

	logger.Info("firebase authenticator enabled", zap.String("project", cfg.Firebase.ProjectID))
	return middleware.NewFirebaseAuthenticator(client)
}
