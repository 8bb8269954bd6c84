package api

import (
	"bedesign/internal/config"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with all routes registered
func NewRouter(cfg config.ServerConfig, h *Handlers) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/health", h.Health)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", h.Health)
		v1.POST("/search/start", h.StartSearch)
		v1.GET("/search/results/:projectID", h.SearchResults)
		v1.GET("/projects/:projectID", h.GetProject)
		v1.POST("/reports/:projectID/generate", h.GenerateReport)
		v1.GET("/reports/:projectID/download", h.DownloadReport)
	}

	return router
}
