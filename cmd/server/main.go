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

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/R-Vicente/watchnext/internal/config"
	"github.com/R-Vicente/watchnext/internal/database"
	"github.com/R-Vicente/watchnext/internal/handlers"
	"github.com/R-Vicente/watchnext/internal/logging"
	"github.com/R-Vicente/watchnext/internal/middleware"
	"github.com/R-Vicente/watchnext/internal/onboarding"
	"github.com/R-Vicente/watchnext/internal/preferences"
	"github.com/R-Vicente/watchnext/internal/recommend"
	"github.com/R-Vicente/watchnext/internal/services"
)

const sessionTTL = 7 * 24 * time.Hour

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Caller: cfg.Log.Caller,
	}, os.Stdout)

	// Check for migrate command
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		down := len(os.Args) > 2 && os.Args[2] == "down"
		if err := runMigrations(cfg, logger, down); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
		return
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

//nolint:gocritic // zerolog.Logger is passed by value
func run(cfg *config.Config, logger zerolog.Logger) error {
	logger.Info().Str("env", cfg.Server.Env).Str("backend", cfg.Storage.Backend).Msg("starting WatchNext server")

	ctx := context.Background()

	db, err := database.New(ctx, database.Config{URL: cfg.Database.URL}, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       0,
		TLS:      cfg.Redis.TLS,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	sessionStore := database.NewSessionStore(redisClient.Client, sessionTTL)

	// Services
	userService := services.NewUserService(db.Pool)
	tmdbService := services.NewTMDBService(services.TMDBConfig{
		APIKey:            cfg.TMDB.APIKey,
		BaseURL:           cfg.TMDB.BaseURL,
		ImageBaseURL:      cfg.TMDB.ImageBaseURL,
		Timeout:           cfg.Recommend.RequestTimeout,
		RequestsPerSecond: cfg.TMDB.RequestsPerSecond,
		Burst:             cfg.TMDB.Burst,
	}, logger)
	search := services.NewCachedSearch(tmdbService, redisClient.Client, cfg.TMDB.CacheTTL, logger)

	engine := recommend.NewEngine(search, recommend.Config{
		WatchRegion:    cfg.Recommend.WatchRegion,
		UserLanguage:   cfg.Recommend.UserLanguage,
		RequestTimeout: cfg.Recommend.RequestTimeout,
		Seed:           cfg.Recommend.Seed,
	}, logger)
	onboardingController := onboarding.NewController(search, cfg.Recommend.RequestTimeout, cfg.Recommend.Seed, logger)

	var openKV preferences.KVFactory
	switch cfg.Storage.Backend {
	case config.BackendRedis:
		openKV = func(userID uuid.UUID) preferences.KV {
			return database.NewRedisKV(redisClient.Client, userID)
		}
	default:
		openKV = func(userID uuid.UUID) preferences.KV {
			return database.NewPostgresKV(db.Pool, userID)
		}
	}
	prefs := preferences.NewRegistry(openKV, logger)
	flows := handlers.NewFlows()

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(sessionStore, userService, "session", cfg.IsProduction())
	rateLimiter := middleware.NewRateLimiter(redisClient.Client, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window, cfg.IsProduction(), logger)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, sessionStore, authMiddleware, handlers.AuthConfig{
		GoogleClientID:     cfg.OAuth.GoogleClientID,
		GoogleClientSecret: cfg.OAuth.GoogleClientSecret,
		GitHubClientID:     cfg.OAuth.GitHubClientID,
		GitHubClientSecret: cfg.OAuth.GitHubClientSecret,
		CallbackHost:       cfg.OAuth.CallbackHost,
		Secure:             cfg.IsProduction(),
	}, logger)
	recommendHandler := handlers.NewRecommendHandler(engine, prefs, flows, logger)
	onboardingHandler := handlers.NewOnboardingHandler(onboardingController, prefs, flows, logger)
	listHandler := handlers.NewListHandler(prefs, flows, logger)
	contentHandler := handlers.NewContentHandler(search, prefs, cfg.Recommend.WatchRegion, logger)
	userHandler := handlers.NewUserHandler(userService, sessionStore, authMiddleware, prefs, flows, logger)

	mux := http.NewServeMux()

	// Auth routes (public)
	mux.HandleFunc("GET /auth/google/login", authHandler.GoogleLogin)
	mux.HandleFunc("GET /auth/google/callback", authHandler.GoogleCallback)
	mux.HandleFunc("GET /auth/github/login", authHandler.GitHubLogin)
	mux.HandleFunc("GET /auth/github/callback", authHandler.GitHubCallback)
	mux.HandleFunc("POST /auth/logout", authHandler.Logout)

	// API routes (protected with auth and rate limiting)
	protect := func(h http.HandlerFunc) http.Handler {
		return rateLimiter.Limit(authMiddleware.RequireAuth(h))
	}

	mux.Handle("GET /api/catalog", protect(contentHandler.Catalog))
	mux.Handle("GET /api/search", protect(contentHandler.Search))
	mux.Handle("GET /api/discover", protect(contentHandler.Discover))
	mux.Handle("GET /api/titles/{mediaType}/{id}", protect(contentHandler.Title))

	mux.Handle("POST /api/recommendations", protect(recommendHandler.Recommend))
	mux.Handle("POST /api/recommendations/another", protect(recommendHandler.Another))
	mux.Handle("DELETE /api/recommendations/session", protect(recommendHandler.Reset))

	mux.Handle("GET /api/onboarding", protect(onboardingHandler.Status))
	mux.Handle("POST /api/onboarding/start", protect(onboardingHandler.Start))
	mux.Handle("POST /api/onboarding/rate", protect(onboardingHandler.Rate))
	mux.Handle("POST /api/onboarding/skip", protect(onboardingHandler.Skip))

	mux.Handle("GET /api/lists/{kind}", protect(listHandler.Get))
	mux.Handle("DELETE /api/lists/{kind}", protect(listHandler.Clear))
	mux.Handle("DELETE /api/lists/{kind}/{mediaType}/{id}", protect(listHandler.Remove))
	mux.Handle("POST /api/lists/move", protect(listHandler.Move))
	mux.Handle("POST /api/swipes", protect(listHandler.Swipe))
	mux.Handle("DELETE /api/preferences", protect(listHandler.Reset))
	mux.Handle("GET /api/stats", protect(listHandler.Stats))

	mux.Handle("GET /api/me", protect(userHandler.Me))
	mux.Handle("PUT /api/me/language", protect(userHandler.SetLanguage))
	mux.Handle("DELETE /api/me", protect(userHandler.Delete))

	mux.Handle("GET /metrics", promhttp.Handler())

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		dbErr := db.Health(r.Context())
		redisErr := redisClient.Health(r.Context())

		if dbErr != nil || redisErr != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, `{"status":"unhealthy","database":"%s","redis":"%s"}`, upDown(dbErr), upDown(redisErr))
			return
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"ok","database":"up","redis":"up"}`)
	})

	handler := middleware.Logger(logger)(mux)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-quit:
	}

	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info().Msg("server exited")
	return nil
}

func upDown(err error) string {
	if err != nil {
		return "down"
	}
	return "up"
}

// runMigrations applies, or with down reverts, database migrations
//
//nolint:gocritic // zerolog.Logger is passed by value
func runMigrations(cfg *config.Config, logger zerolog.Logger, down bool) error {
	ctx := context.Background()

	db, err := database.New(ctx, database.Config{URL: cfg.Database.URL}, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	migrator := database.NewMigrator(db.Pool, logger)
	if down {
		if err := migrator.Down(ctx); err != nil {
			return fmt.Errorf("failed to roll back migrations: %w", err)
		}
		logger.Info().Msg("migrations rolled back")
		return nil
	}

	if err := migrator.Up(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info().Msg("migrations completed successfully")
	return nil
}
