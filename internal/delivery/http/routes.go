package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/catalogbridge/migrator/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")

	router := gin.New()

	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	if handler.gatherer != nil {
		router.GET("/metrics", handler.Metrics())
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/migration/status", handler.MigrationStatus)
	}

	return router
}
