package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/handlers"
	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/middleware"
	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	RoadmapHandler *handlers.RoadmapHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("roadmap-guide"))
	if cfg.Log != nil {
		router.Use(middleware.RequestLog(cfg.Log))
	}

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/roadmap/generate", cfg.RoadmapHandler.Generate)
	}

	return router
}
