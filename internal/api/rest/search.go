package rest

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/dwrth/spotlink/internal/domain/track"
	"github.com/dwrth/spotlink/internal/infra/spotify"
)

// CatalogSearcher is the catalog boundary used by the search endpoint.
type CatalogSearcher interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]track.Track, error)
	SearchArtist(ctx context.Context, name string) (*track.Artist, error)
	SearchAlbum(ctx context.Context, query string) (*spotify.Album, error)
	SearchPlaylist(ctx context.Context, query string) (*spotify.Playlist, error)
}

// SearchHandler handles catalog search endpoints.
type SearchHandler struct {
	catalog CatalogSearcher
}

// NewSearchHandler creates a search handler.
func NewSearchHandler(catalog CatalogSearcher) *SearchHandler {
	return &SearchHandler{catalog: catalog}
}

// Search handles GET /api/v1/search. type selects the category; track searches
// return a ranked list, the other categories return the top match only.
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	searchType := c.DefaultQuery("type", "track")
	ctx := c.Request.Context()

	switch searchType {
	case "track":
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		tracks, err := h.catalog.SearchTracks(ctx, query, limit)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "code": "transport_error"})
			return
		}
		results := make([]track.Summary, 0, len(tracks))
		for _, t := range tracks {
			results = append(results, t.Summarize())
		}
		c.JSON(http.StatusOK, gin.H{"type": searchType, "results": results})

	case "artist":
		artist, err := h.catalog.SearchArtist(ctx, query)
		h.topMatch(c, searchType, artist, err)

	case "album":
		album, err := h.catalog.SearchAlbum(ctx, query)
		h.topMatch(c, searchType, album, err)

	case "playlist":
		playlist, err := h.catalog.SearchPlaylist(ctx, query)
		h.topMatch(c, searchType, playlist, err)

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be one of track, artist, album, playlist"})
	}
}

// topMatch writes a single-result category response.
func (h *SearchHandler) topMatch(c *gin.Context, searchType string, result any, err error) {
	if err != nil {
		if errors.Is(err, spotify.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no match found", "code": "not_found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "code": "transport_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"type": searchType, "result": result})
}
