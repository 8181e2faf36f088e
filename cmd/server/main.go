package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"signlearn/internal/config"
	"signlearn/internal/database"
	"signlearn/internal/handlers"
	"signlearn/internal/importer"
	"signlearn/internal/repository"
	"signlearn/internal/scheduler"
	"signlearn/internal/security"
	"signlearn/internal/service"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"
)

func main() {
	// Load configuration
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	ctx := context.Background()
	if err := db.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	mistakeRepo := repository.NewMistakeRepository(db)

	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.EmailDebug)
	if err != nil {
		log.Printf("Warning: Failed to initialize email service, emails disabled: %v", err)
		emailService, _ = service.NewEmailService(ctx, "", "", "", cfg.AppBaseURL, cfg.EmailDebug)
	}

	// Initialize services
	tokens := security.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	authService := service.NewAuthService(db, userRepo, catalogRepo, progressRepo, tokens, emailService, cfg.SessionDuration)
	progressService := service.NewProgressService(db, catalogRepo, progressRepo, mistakeRepo, userRepo, emailService)
	catalogService := service.NewCatalogService(db, catalogRepo, progressRepo, userRepo)

	// Seed the catalog on first start
	if err := catalogService.SeedIfEmpty(ctx, cfg.CatalogSeedPath, importer.Load); err != nil {
		log.Printf("Warning: Failed to seed catalog: %v", err)
	}

	limiter, closeLimiter := newRateLimiter(cfg)
	defer closeLimiter()

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
		"facebook": {
			Name:  "facebook",
			Label: "Facebook",
			Config: &oauth2.Config{
				ClientID:     cfg.FacebookClientID,
				ClientSecret: cfg.FacebookClientSecret,
				Endpoint:     facebook.Endpoint,
				Scopes:       []string{"email", "public_profile"},
			},
			UserInfoURL: "https://graph.facebook.com/me?fields=id,name,email",
		},
	}

	// Initialize handlers
	csrf := security.NewCSRFTokens(cfg.CSRFSecret)
	router := &handlers.Router{
		Middleware: handlers.NewMiddleware(authService, csrf, limiter),
		Auth:       handlers.NewAuthHandler(authService, csrf, oauthProviders, cfg.OAuthRedirectBaseURL),
		Lessons:    handlers.NewLessonHandler(progressService),
		Progress:   handlers.NewProgressHandler(progressService),
		Admin:      handlers.NewAdminHandler(catalogService),
		Health:     handlers.Health(db),
	}

	// Start background session cleanup
	jobs := scheduler.New(authService, time.Hour)
	if err := jobs.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer jobs.Stop()

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}

// newRateLimiter uses Redis when REDIS_ADDR is set so limits are shared
// between instances, and an in-process limiter otherwise.
func newRateLimiter(cfg *config.Config) (security.RateLimiter, func()) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		log.Printf("Rate limiting via Redis at %s", cfg.RedisAddr)
		return security.NewRedisRateLimiter(client, "signlearn:ratelimit:", cfg.RateLimitRequests, cfg.RateLimitWindow), func() {
			client.Close()
		}
	}

	limiter := security.NewMemoryRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	return limiter, limiter.Close
}
