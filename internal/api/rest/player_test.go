package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwrth/spotlink/internal/api/ws"
	"github.com/dwrth/spotlink/internal/app/player"
	"github.com/dwrth/spotlink/internal/domain/track"
	"github.com/dwrth/spotlink/internal/infra/spotify"
)

type stubQueue struct {
	state      *track.QueueState
	refreshErr error
}

func (s *stubQueue) Refresh(_ context.Context) (*track.QueueState, error) {
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	return s.state, nil
}

func (s *stubQueue) Raw() *track.QueueState { return s.state }

type stubPlayer struct {
	current     *track.Track
	repeatErr   error
	repeatCalls []player.RepeatState
}

func (s *stubPlayer) CurrentTrack() *track.Track { return s.current }

func (s *stubPlayer) TrackURL() string {
	if s.current == nil {
		return ""
	}
	return s.current.URL
}

func (s *stubPlayer) ChangeRepeat(_ context.Context, state player.RepeatState) error {
	s.repeatCalls = append(s.repeatCalls, state)
	return s.repeatErr
}

func (s *stubPlayer) ActiveDevice(_ context.Context) (*spotify.Device, bool, error) {
	return nil, false, nil
}

func playerRouter(q *stubQueue, p *stubPlayer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewPlayerHandler(q, p, ws.NewHub())
	r.GET("/api/v1/queue", h.Queue)
	r.GET("/api/v1/track", h.Track)
	r.PUT("/api/v1/player/repeat", h.Repeat)
	return r
}

func TestPlayerHandler_Queue(t *testing.T) {
	q := &stubQueue{state: &track.QueueState{
		NowPlaying: &track.Track{URI: "spotify:track:now", Name: "Now"},
		Upcoming:   []track.Track{{URI: "spotify:track:next", Name: "Next"}},
	}}
	r := playerRouter(q, &stubPlayer{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/queue", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp queueResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.NowPlaying)
	assert.Equal(t, "spotify:track:now", resp.NowPlaying.URI)
	require.Len(t, resp.Upcoming, 1)
}

func TestPlayerHandler_Queue_NoActiveDevice(t *testing.T) {
	q := &stubQueue{refreshErr: errors.Wrap(spotify.ErrNoActiveDevice, "404")}
	r := playerRouter(q, &stubPlayer{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/queue", nil))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "no_active_device")
}

func TestPlayerHandler_Track_EmptyWhenNoSnapshot(t *testing.T) {
	r := playerRouter(&stubQueue{}, &stubPlayer{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/track", nil))

	require.Equal(t, http.StatusOK, w.Code, "missing snapshot reads as empty, never a crash")
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["playing"])
	assert.Equal(t, "", resp["url"])
}

func TestPlayerHandler_Track_Playing(t *testing.T) {
	p := &stubPlayer{current: &track.Track{
		URI: "spotify:track:now",
		URL: "https://open.spotify.com/track/now",
	}}
	r := playerRouter(&stubQueue{}, p)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/track", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://open.spotify.com/track/now")
}

func TestPlayerHandler_Repeat(t *testing.T) {
	p := &stubPlayer{}
	r := playerRouter(&stubQueue{}, p)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/player/repeat", strings.NewReader(`{"state":"track"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []player.RepeatState{player.RepeatTrack}, p.repeatCalls)
}

func TestPlayerHandler_Repeat_InvalidState(t *testing.T) {
	p := &stubPlayer{}
	r := playerRouter(&stubQueue{}, p)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/player/repeat", strings.NewReader(`{"state":"loop"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, p.repeatCalls)
}
