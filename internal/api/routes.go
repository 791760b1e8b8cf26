package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up the API routes
func SetupRoutes(handler *Handler, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	router := gin.New()

	// Middleware
	router.Use(Recovery(logger))
	router.Use(CORS())
	router.Use(Logger(logger))

	// Health check
	router.GET("/health", handler.HealthCheck)

	// API v1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/search", handler.Search)

		saved := v1.Group("/saved")
		{
			saved.GET("", handler.GetSavedList)
			saved.POST("", handler.AddSaved)
			saved.DELETE("/:id", handler.RemoveSaved)
		}

		preview := v1.Group("/preview")
		{
			preview.GET("", handler.GetPreviewed)
			preview.PUT("", handler.SetPreviewed)
		}

		home := v1.Group("/home")
		{
			home.GET("", handler.GetHome)
			home.PUT("/keyword", handler.UpdateKeyword)
			home.DELETE("/keyword", handler.ClearKeyword)
			home.POST("/search", handler.HomeSearch)
			home.POST("/refresh", handler.RefreshSavedFlags)
			home.POST("/select", handler.SelectRepository)
			home.POST("/toggle", handler.ToggleSaved)
			home.GET("/events", handler.HomeEvents)
		}
	}

	return router
}
