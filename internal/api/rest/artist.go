package rest

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/dwrth/spotlink/internal/api/ws"
	"github.com/dwrth/spotlink/internal/app/artistban"
	"github.com/dwrth/spotlink/internal/domain/track"
)

// BanService is the registry boundary used by the artist endpoints.
type BanService interface {
	BanByURI(ctx context.Context, channel, artistURI string) error
	BanByName(ctx context.Context, channel, name string) (*track.Artist, error)
	Banned(ctx context.Context, channel string) ([]string, error)
}

// ArtistHandler handles banned artist management endpoints.
type ArtistHandler struct {
	registry BanService
	hub      *ws.Hub
}

// NewArtistHandler creates an artist handler.
func NewArtistHandler(registry BanService, hub *ws.Hub) *ArtistHandler {
	return &ArtistHandler{registry: registry, hub: hub}
}

type banRequest struct {
	Channel string `json:"channel"`
	URI     string `json:"uri"`
	Name    string `json:"name"`
}

// Ban handles POST /api/v1/artists/ban. Exactly one of uri or name must be
// set; name resolves through the catalog's top artist match.
func (h *ArtistHandler) Ban(c *gin.Context) {
	var req banRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if (req.URI == "") == (req.Name == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exactly one of uri or name is required"})
		return
	}

	banned := gin.H{"channel": req.Channel}
	if req.URI != "" {
		if err := h.registry.BanByURI(c.Request.Context(), req.Channel, req.URI); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		banned["uri"] = req.URI
	} else {
		artist, err := h.registry.BanByName(c.Request.Context(), req.Channel, req.Name)
		if err != nil {
			if errors.Is(err, artistban.ErrArtistNotFound) {
				c.JSON(http.StatusNotFound, gin.H{
					"error": "artist not found",
					"code":  "artist_not_found",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		banned["uri"] = artist.URI
		banned["name"] = artist.Name
	}

	h.hub.Publish(ws.EventArtistBanned, banned)
	c.JSON(http.StatusOK, gin.H{"success": true, "banned": banned})
}

// Banned handles GET /api/v1/artists/banned.
func (h *ArtistHandler) Banned(c *gin.Context) {
	channel := c.Query("channel")

	uris, err := h.registry.Banned(c.Request.Context(), channel)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"channel": channel,
		"artists": uris,
	})
}
