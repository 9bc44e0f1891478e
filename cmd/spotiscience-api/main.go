package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"

	"spotiscience/internal/app"
	"spotiscience/internal/config"
	"spotiscience/internal/handlers"
	"spotiscience/internal/mood"
	"spotiscience/internal/topics"
)

func main() {
	// Load .env file for local development
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	classifier, err := mood.Load(cfg.MoodModelPath)
	if err != nil {
		slog.Error("Failed to load mood model", "path", cfg.MoodModelPath, "error", err)
		os.Exit(1)
	}

	config.WatchModelDefaults(ctx, 30*time.Second)

	var mongoDB *mongo.Database
	if a.Database != nil {
		mongoDB = a.Database.DB
	}

	router := handlers.NewRouter(handlers.Router{
		Analysis:    handlers.NewAnalysisHandler(topics.NewPipeline(), classifier, a.Acquisition, a.Records),
		Collections: handlers.NewCollectionHandler(a.Acquisition, a.Records),
		Tracks:      handlers.NewTrackHandler(a.Acquisition, a.Records),
		Health:      handlers.NewHealthHandler(a.Acquisition, a.Records),
		Admin:       handlers.NewAdminHandler(a.Records, mongoDB),
		TokenSecret: cfg.APITokenSecret,
	})
	if cfg.APITokenSecret == "" {
		slog.Warn("API_TOKEN_SECRET not set; /api/v1 is unauthenticated")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "port", cfg.Port, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Shutdown failed", "error", err)
		}
	}
}
