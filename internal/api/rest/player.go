package rest

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/dwrth/spotlink/internal/api/ws"
	"github.com/dwrth/spotlink/internal/app/player"
	"github.com/dwrth/spotlink/internal/domain/track"
	"github.com/dwrth/spotlink/internal/infra/spotify"
)

// QueueReader reads the perceived playback queue.
type QueueReader interface {
	Refresh(ctx context.Context) (*track.QueueState, error)
	Raw() *track.QueueState
}

// PlayerService issues player commands and reads playback state.
type PlayerService interface {
	CurrentTrack() *track.Track
	TrackURL() string
	ChangeRepeat(ctx context.Context, state player.RepeatState) error
	ActiveDevice(ctx context.Context) (*spotify.Device, bool, error)
}

// PlayerHandler handles queue and player state endpoints.
type PlayerHandler struct {
	queue  QueueReader
	player PlayerService
	hub    *ws.Hub
}

// NewPlayerHandler creates a player handler.
func NewPlayerHandler(queue QueueReader, playerSvc PlayerService, hub *ws.Hub) *PlayerHandler {
	return &PlayerHandler{queue: queue, player: playerSvc, hub: hub}
}

// queueResponse is the host-facing queue snapshot shape.
type queueResponse struct {
	NowPlaying *track.Summary  `json:"now_playing,omitempty"`
	Upcoming   []track.Summary `json:"upcoming"`
}

// Queue handles GET /api/v1/queue. It refreshes from the device; device
// failures surface as typed codes rather than fabricated empty state.
func (h *PlayerHandler) Queue(c *gin.Context) {
	state, err := h.queue.Refresh(c.Request.Context())
	if err != nil {
		status, code := deviceErrorStatus(err)
		c.JSON(status, gin.H{"error": err.Error(), "code": code})
		return
	}

	resp := queueResponse{Upcoming: make([]track.Summary, 0, len(state.Upcoming))}
	if state.NowPlaying != nil {
		summary := state.NowPlaying.Summarize()
		resp.NowPlaying = &summary
	}
	for _, t := range state.Upcoming {
		resp.Upcoming = append(resp.Upcoming, t.Summarize())
	}

	c.JSON(http.StatusOK, resp)
}

// Track handles GET /api/v1/track. Reads come off the last snapshot and are
// nil-safe: no snapshot or idle playback yields empty fields, never an error.
func (h *PlayerHandler) Track(c *gin.Context) {
	current := h.player.CurrentTrack()
	if current == nil {
		c.JSON(http.StatusOK, gin.H{"playing": false, "url": ""})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"playing": true,
		"url":     h.player.TrackURL(),
		"track":   current.Summarize(),
	})
}

type repeatRequest struct {
	State string `json:"state"`
}

// Repeat handles PUT /api/v1/player/repeat.
func (h *PlayerHandler) Repeat(c *gin.Context) {
	var req repeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	state, err := player.ParseRepeatState(req.State)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.player.ChangeRepeat(c.Request.Context(), state); err != nil {
		status, code := deviceErrorStatus(err)
		c.JSON(status, gin.H{"error": err.Error(), "code": code})
		return
	}

	h.hub.Publish(ws.EventRepeatChanged, gin.H{"state": string(state)})
	c.JSON(http.StatusOK, gin.H{"success": true, "state": string(state)})
}

// Devices handles GET /api/v1/player/devices.
func (h *PlayerHandler) Devices(c *gin.Context) {
	device, ok, err := h.player.ActiveDevice(c.Request.Context())
	if err != nil {
		status, code := deviceErrorStatus(err)
		c.JSON(status, gin.H{"error": err.Error(), "code": code})
		return
	}

	resp := gin.H{"active": ok}
	if ok {
		resp["device"] = device
	}
	c.JSON(http.StatusOK, resp)
}

// deviceErrorStatus maps device failures to HTTP status and outcome code.
func deviceErrorStatus(err error) (int, string) {
	if errors.Is(err, spotify.ErrNoActiveDevice) {
		return http.StatusConflict, "no_active_device"
	}
	return http.StatusBadGateway, "transport_error"
}
