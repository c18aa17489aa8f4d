// Package rest provides the host-facing HTTP surface.
package rest

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	zlog "github.com/rs/zerolog/log"

	"github.com/dwrth/spotlink/internal/api/ws"
	"github.com/dwrth/spotlink/internal/infra/config"
)

// Handlers bundles the request handlers mounted on the router.
type Handlers struct {
	Enqueue *EnqueueHandler
	Artist  *ArtistHandler
	Player  *PlayerHandler
	Search  *SearchHandler
}

// NewRouter builds the gin engine with middleware and routes.
func NewRouter(cfg config.ServerConfig, h Handlers, hub *ws.Hub) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	r.Use(corsMiddleware(cfg.CORSOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/enqueue", h.Enqueue.Enqueue)
		v1.GET("/search", h.Search.Search)
		v1.POST("/artists/ban", h.Artist.Ban)
		v1.GET("/artists/banned", h.Artist.Banned)
		v1.GET("/queue", h.Player.Queue)
		v1.GET("/track", h.Player.Track)
		v1.PUT("/player/repeat", h.Player.Repeat)
		v1.GET("/player/devices", h.Player.Devices)
		v1.GET("/events", func(c *gin.Context) {
			if err := hub.Serve(c.Writer, c.Request); err != nil {
				zlog.Warn().Msgf("websocket upgrade failed: %v", err)
			}
		})
	}

	return r
}

// corsMiddleware configures CORS for the host platform's UI origins.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	return cors.New(cfg)
}

// requestLogger logs each request through the global zerolog logger.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		zlog.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}
