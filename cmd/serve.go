package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/spf13/cobra"

	"github.com/s/ecourse/internal/activity"
	"github.com/s/ecourse/internal/auth"
	"github.com/s/ecourse/internal/cache"
	"github.com/s/ecourse/internal/config"
	"github.com/s/ecourse/internal/database"
	"github.com/s/ecourse/internal/handlers"
	"github.com/s/ecourse/internal/logger"
	"github.com/s/ecourse/internal/media"
	"github.com/s/ecourse/internal/messaging"
	"github.com/s/ecourse/internal/middleware"
	"github.com/s/ecourse/internal/storage"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	log := logger.CLI()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	store := storage.New(db)
	sessionStore := newSessionStore(cfg)
	h := handlers.NewHandler(store, sessionStore, cfg.OAuth2, logger.HTTP())
	h.CategoryTTL = cfg.Redis.CategoryTTL

	if cfg.Redis.Addr != "" {
		rc, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer rc.Close()
		h.Cache = rc
		logger.Cache().Info("category cache enabled", "addr", cfg.Redis.Addr)
	}

	if cfg.Minio.Endpoint != "" {
		files, err := media.NewMinio(media.MinioOptions{
			Endpoint:       cfg.Minio.Endpoint,
			PublicEndpoint: cfg.Minio.PublicEndpoint,
			AccessKey:      cfg.Minio.AccessKey,
			SecretKey:      cfg.Minio.SecretKey,
			Bucket:         cfg.Minio.Bucket,
			UseSSL:         cfg.Minio.UseSSL,
		})
		if err != nil {
			return err
		}
		if err := files.EnsureBucket(ctx, log); err != nil {
			return err
		}
		h.Media = files
	}

	var events messaging.Publisher = messaging.Discard{}
	if cfg.NATS.URL != "" {
		nc, err := messaging.Connect(cfg.NATS.URL, cfg.NATS.SubjectPrefix, logger.Events())
		if err != nil {
			return err
		}
		events = nc
	}
	defer events.Close()
	h.Activity = activity.NewRecorder(db, events, logger.Events())

	authn := &middleware.Authenticator{
		Tokens:   auth.NewTokenValidator(cfg.Auth.TokenSecret, cfg.Auth.TokenIssuer),
		Users:    store,
		Sessions: sessionStore,
		Log:      logger.HTTP(),
	}

	var handler http.Handler = h.Routes(authn)
	handler = middleware.CORS(cfg.CORS.AllowedOrigins).Handler(handler)
	handler = middleware.Recover(logger.HTTP())(handler)
	handler = middleware.Logging(logger.HTTP())(handler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newSessionStore(cfg *config.Config) *sessions.CookieStore {
	key := []byte(cfg.Auth.SessionKey)
	if len(key) == 0 && cfg.IsDevelopment() {
		key = securecookie.GenerateRandomKey(32)
		logger.CLI().Warn("SESSION_KEY not set, sessions will not survive a restart")
	}

	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   cfg.Auth.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}
