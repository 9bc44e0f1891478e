package handlers

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// Router groups the handlers mounted by NewRouter
type Router struct {
	Analysis    *AnalysisHandler
	Collections *CollectionHandler
	Tracks      *TrackHandler
	Health      *HealthHandler
	Admin       *AdminHandler

	// TokenSecret guards /api/v1 when set
	TokenSecret string
}

// NewRouter builds the gin engine with every route registered
func NewRouter(r Router) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	engine.GET("/health", r.Health.Health)

	api := engine.Group("/api/v1")
	if r.TokenSecret != "" {
		api.Use(RequireToken(r.TokenSecret))
	}

	api.POST("/topics", r.Analysis.PredictTopics)
	api.POST("/mood", r.Analysis.PredictMood)
	api.POST("/similar", r.Analysis.FindSimilar)

	api.POST("/collections/albums", r.Collections.DownloadAlbums)
	api.POST("/collections/playlists", r.Collections.DownloadPlaylist)
	api.GET("/collections", r.Collections.ListCollections)
	api.GET("/collections/:id", r.Collections.GetCollection)

	api.GET("/tracks/:id/genres", r.Tracks.GetGenres)
	api.GET("/lyrics", r.Tracks.GetLyrics)

	if r.Admin != nil {
		api.GET("/admin/stats", r.Admin.GetStats)
	}

	return engine
}

// requestLogger logs every request once it has been served
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client", c.ClientIP())
	}
}
