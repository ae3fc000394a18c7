package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/community-blog-api/internal/api"
	"github.com/community-blog-api/internal/config"
	"github.com/community-blog-api/internal/content"
	"github.com/community-blog-api/internal/database"
	"github.com/community-blog-api/internal/feed"
	"github.com/community-blog-api/internal/notify"
	"github.com/community-blog-api/internal/repository"
	"github.com/community-blog-api/internal/service"
	"github.com/community-blog-api/pkg/logger"
	"github.com/joho/godotenv"
)

func main() {
	migrateMode := flag.String("migrate", "up", "migration direction to apply on start: up or down")
	flag.Parse()

	// A missing .env is fine; the environment may already be set
	envErr := godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "json")
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Msg("Starting Community Blog API server...")
	if envErr != nil && !os.IsNotExist(envErr) {
		log.Warn().Err(envErr).Msg("Failed to read .env file")
	}

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	switch *migrateMode {
	case "down":
		if err := db.MigrateDown(cfg.Database.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to roll back database migrations")
		}
		log.Info().Msg("Migrations rolled back")
		return
	default:
		if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
	}

	// Initialize repositories
	repos := repository.New(db)

	// Initialize collaborators
	pipeline := content.New(cfg.Content)
	dispatcher, closeDispatcher, err := notify.New(cfg.Notify, repos.Notification, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize notification dispatcher")
	}
	defer closeDispatcher()
	pinger := feed.New(cfg.Feed, log)

	// Initialize services
	services := service.NewServices(repos, pipeline, dispatcher, pinger, cfg, log)

	// Initialize router
	router := api.NewRouter(services, cfg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("notify_backend", cfg.Notify.Backend).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}
