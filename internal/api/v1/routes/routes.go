package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"aitranscribe/internal/api/middleware"
	"aitranscribe/internal/api/v1/handlers"
)

// ServiceContainer holds what the routes need.
type ServiceContainer struct {
	Processor      handlers.Processor
	MaxUploadBytes int64
	RateLimiter    *middleware.IPRateLimiter
	Logger         *zap.Logger
}

// RegisterRoutes registers the transcription routes on router.
func RegisterRoutes(router gin.IRoutes, container *ServiceContainer) {
	transcribeHandler := handlers.NewTranscribeHandler(container.Processor, container.MaxUploadBytes, container.Logger)

	chain := []gin.HandlerFunc{}
	if container.RateLimiter != nil {
		chain = append(chain, middleware.RateLimit(container.RateLimiter))
	}
	chain = append(chain, transcribeHandler.Transcribe)

	router.POST("/transcribe", chain...)
}
