package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"storyquiz/internal/config"
	"storyquiz/internal/database"
	"storyquiz/internal/dialogue"
	"storyquiz/internal/handlers"
	"storyquiz/internal/logger"
	"storyquiz/internal/repository"
	"storyquiz/internal/security"
	"storyquiz/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	log := logger.New(cfg)
	ctx := context.Background()

	bank, closeBank, err := openStoryBank(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to open story bank")
	}
	defer closeBank()

	source, err := dialogue.NewSource(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize dialogue source")
	}

	quizService, err := service.NewQuizService(ctx, bank, source, log, service.QuizServiceOptions{
		SessionDuration:      cfg.SessionDuration,
		CelebrationThreshold: cfg.CelebrationThreshold,
		CelebrationDuration:  cfg.CelebrationDuration,
		DialogueWait:         cfg.DialogueTimeout,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize quiz service")
	}

	log.WithFields(logrus.Fields{
		"stories": quizService.StoryCount(),
		"content": cfg.ContentSource,
		"dialog":  cfg.DialogueSource,
	}).Info("Stories loaded")

	// Load templates
	templates, err := handlers.LoadTemplates(cfg.TemplatesPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to load templates")
	}

	secret := cfg.SessionSecret
	if secret == "" {
		secret = randomSecret()
		log.Warn("SESSION_SECRET not set; using a random secret, sessions will not survive a restart")
	}

	middleware := handlers.NewMiddleware(
		quizService,
		security.NewTokenIssuer(secret, cfg.SessionDuration),
		security.NewCSRFGenerator(secret),
		log,
	)
	quizHandler := handlers.NewQuizHandler(quizService, middleware, templates, cfg.Speakers, log)

	// Setup routes
	mux := http.NewServeMux()
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticFilesPath))))
	handlers.RegisterQuizRoutes(mux, quizHandler, middleware)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handlers.Logging(log, mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background session cleanup
	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go cleanupExpiredSessions(cleanupCtx, quizService, log)

	go func() {
		log.WithField("addr", addr).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}

// openStoryBank returns the configured story collection and a func releasing its resources
func openStoryBank(ctx context.Context, cfg *config.Config, log *logrus.Logger) (service.StoryBank, func(), error) {
	if cfg.ContentSource != "database" {
		log.WithField("path", cfg.StoriesPath).Info("Reading stories from JSON")
		return repository.NewJSONStoryRepository(cfg.StoriesPath), func() {}, nil
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	log.WithField("type", cfg.DatabaseType).Info("Database connection established")

	applied, err := db.RunMigrations(ctx, cfg.MigrationsPath)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	log.WithField("applied", applied).Info("Migrations completed successfully")

	return repository.NewStoryRepository(db), func() { db.Close() }, nil
}

// cleanupExpiredSessions periodically removes expired sessions
func cleanupExpiredSessions(ctx context.Context, quizService *service.QuizService, log logrus.FieldLogger) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := quizService.CleanupExpiredSessions()
			log.WithFields(logrus.Fields{
				"removed": removed,
				"active":  quizService.ActiveSessions(),
			}).Info("Expired quiz sessions cleaned up")
		}
	}
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		logrus.WithError(err).Fatal("Failed to generate session secret")
	}
	return hex.EncodeToString(buf)
}
