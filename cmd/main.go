package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/handlers"
	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/observability"
	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/platform/config"
	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/platform/envutil"
	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/platform/gemini"
	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/platform/logger"
	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/platform/tavily"
	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/server"
	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config defaults
	if err := config.Load(); err != nil {
		log.Error("Config load failed", "error", err.Error())
		os.Exit(1)
	}

	// Tracing
	ctx := context.Background()
	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: envutil.String("SERVICE_NAME", "roadmap-guide"),
		Environment: envutil.String("ENVIRONMENT", "development"),
		Version:     envutil.String("SERVICE_VERSION", "dev"),
	})
	if shutdownOTel != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOTel(shutdownCtx)
		}()
	}

	// Gemini
	log.Info("Setting up Gemini client from main...")
	aiClient, err := gemini.NewClient(log)
	if err != nil {
		log.Error("Gemini client init failed", "error", err.Error())
		os.Exit(1)
	}

	// Redis (optional enrichment cache)
	var cache *redis.Client
	if addr := envutil.String("REDIS_ADDR", ""); addr != "" {
		cache = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envutil.Int("REDIS_DB", 0),
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := cache.Ping(pingCtx).Err(); err != nil {
			log.Warn("Redis unreachable, enrichment cache disabled", "addr", addr, "error", err.Error())
			cache = nil
		}
		cancel()
	}

	// Services
	log.Info("Setting up Services from main...")
	searchClient := tavily.NewClient(log)
	enrichment := services.NewEnrichmentService(log, searchClient, cache)
	generator := services.NewRoadmapGeneratorService(log, aiClient, enrichment)

	// Handlers
	roadmapHandler := handlers.NewRoadmapHandler(log, generator)

	// Router
	router := server.NewRouter(server.RouterConfig{
		Log:            log,
		RoadmapHandler: roadmapHandler,
	})

	port := envutil.String("PORT", "8080")
	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server exited", "error", err.Error())
		os.Exit(1)
	}
}
