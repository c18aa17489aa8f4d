package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwrth/spotlink/internal/domain/track"
	"github.com/dwrth/spotlink/internal/infra/spotify"
)

type stubCatalog struct {
	tracks      []track.Track
	artist      *track.Artist
	album       *spotify.Album
	playlist    *spotify.Playlist
	err         error
	trackLimits []int
}

func (s *stubCatalog) SearchTracks(_ context.Context, _ string, limit int) ([]track.Track, error) {
	s.trackLimits = append(s.trackLimits, limit)
	return s.tracks, s.err
}

func (s *stubCatalog) SearchArtist(_ context.Context, _ string) (*track.Artist, error) {
	return s.artist, s.err
}

func (s *stubCatalog) SearchAlbum(_ context.Context, _ string) (*spotify.Album, error) {
	return s.album, s.err
}

func (s *stubCatalog) SearchPlaylist(_ context.Context, _ string) (*spotify.Playlist, error) {
	return s.playlist, s.err
}

func searchRouter(catalog *stubCatalog) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/v1/search", NewSearchHandler(catalog).Search)
	return r
}

func TestSearchHandler_Tracks(t *testing.T) {
	catalog := &stubCatalog{tracks: []track.Track{
		{URI: "spotify:track:one", Name: "One", Duration: 3 * time.Minute},
		{URI: "spotify:track:two", Name: "Two", Duration: 4 * time.Minute},
	}}
	r := searchRouter(catalog)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=some+song&limit=5", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Type    string          `json:"type"`
		Results []track.Summary `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "track", resp.Type)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "spotify:track:one", resp.Results[0].URI)
	assert.Equal(t, []int{5}, catalog.trackLimits)
}

func TestSearchHandler_TopArtist(t *testing.T) {
	catalog := &stubCatalog{artist: &track.Artist{URI: "spotify:artist:abc", Name: "Abc"}}
	r := searchRouter(catalog)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/search?type=artist&q=abc", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Type   string       `json:"type"`
		Result track.Artist `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "artist", resp.Type)
	assert.Equal(t, "spotify:artist:abc", resp.Result.URI)
}

func TestSearchHandler_TopAlbumNotFound(t *testing.T) {
	catalog := &stubCatalog{err: errors.Wrap(spotify.ErrNotFound, "empty")}
	r := searchRouter(catalog)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/search?type=album&q=nope", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"not_found"`)
}

func TestSearchHandler_Validation(t *testing.T) {
	r := searchRouter(&stubCatalog{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/search?type=track", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/search?type=podcast&q=x", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
