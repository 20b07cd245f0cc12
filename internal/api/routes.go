package api

import (
	"github.com/ankit071105/VedaScore/internal/config"
	"github.com/ankit071105/VedaScore/internal/metrics"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(cfg *config.Config, handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// Create rate limiter
	rateLimiter := NewRateLimiter(cfg.RateLimitRPS, max(1, int(cfg.RateLimitRPS*2)))

	// Middleware
	router.Use(metrics.GinMiddleware())
	router.Use(ErrorHandlerMiddleware())

	// Health endpoint (no auth)
	router.GET("/health", handler.Health)

	// API routes (with auth and rate limiting)
	api := router.Group("/api/v1")
	api.Use(JWTAuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer))
	api.Use(RateLimitMiddleware(rateLimiter))
	{
		api.POST("/similarity", handler.Similarity)
		api.POST("/features", handler.Features)

		assignments := api.Group("/assignments/:assignmentId")
		assignments.POST("/corpus", handler.InsertCorpus)
		assignments.POST("/match", handler.MatchCorpus)
		assignments.DELETE("/corpus", handler.ResetCorpus)

		submissions := api.Group("/submissions/:submissionId")
		submissions.POST("/check", handler.Check)
		submissions.GET("/status", handler.Status)
		submissions.GET("/report", handler.Report)

		api.GET("/reports", handler.Reports)
	}

	return router
}
