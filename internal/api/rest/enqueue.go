package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/mitchellh/mapstructure"

	"github.com/dwrth/spotlink/internal/api/ws"
	"github.com/dwrth/spotlink/internal/app/enqueue"
	"github.com/dwrth/spotlink/internal/app/filter"
	"github.com/dwrth/spotlink/internal/domain/track"
	"github.com/dwrth/spotlink/internal/infra/config"
)

// Enqueuer runs the find-and-enqueue operation.
type Enqueuer interface {
	FindAndEnqueue(ctx context.Context, req enqueue.Request) enqueue.Result
}

// EnqueueHandler handles find-and-enqueue requests from the host.
type EnqueueHandler struct {
	orchestrator Enqueuer
	defaults     config.RequestsConfig
	hub          *ws.Hub
}

// NewEnqueueHandler creates an enqueue handler.
func NewEnqueueHandler(orchestrator Enqueuer, defaults config.RequestsConfig, hub *ws.Hub) *EnqueueHandler {
	return &EnqueueHandler{
		orchestrator: orchestrator,
		defaults:     defaults,
		hub:          hub,
	}
}

// enqueueParams are the host effect parameters. Hosts send loosely typed
// values ("3" for 3), so fields are decoded weakly and unset fields fall back
// to the configured defaults.
type enqueueParams struct {
	Query           string   `mapstructure:"query"`
	Channel         string   `mapstructure:"channel"`
	MaximumLength   *float64 `mapstructure:"maximum_length"`
	FilterExplicit  *bool    `mapstructure:"filter_explicit"`
	AllowDuplicates *bool    `mapstructure:"allow_duplicates"`
}

// decodeParams decodes the raw effect parameter map into enqueueParams.
func decodeParams(raw map[string]any, params *enqueueParams) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           params,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return errors.Wrap(err, "failed to decode effect params")
	}
	return nil
}

// criteria merges the request parameters with the configured defaults.
func (h *EnqueueHandler) criteria(params enqueueParams) filter.Criteria {
	c := filter.Criteria{
		MaximumLength:   h.defaults.MaxLength(),
		FilterExplicit:  h.defaults.FilterExplicit,
		AllowDuplicates: h.defaults.AllowDuplicates,
	}
	if params.MaximumLength != nil {
		c.MaximumLength = time.Duration(*params.MaximumLength * float64(time.Minute))
	}
	if params.FilterExplicit != nil {
		c.FilterExplicit = *params.FilterExplicit
	}
	if params.AllowDuplicates != nil {
		c.AllowDuplicates = *params.AllowDuplicates
	}
	return c
}

// rejectedTrack is a rejected candidate in the host-facing response.
type rejectedTrack struct {
	Reasons []filter.Reason `json:"reasons"`
	track.Summary
}

// enqueueResponse is the structured outcome reported back to the host.
type enqueueResponse struct {
	Success  bool           `json:"success"`
	Code     string         `json:"code"`
	Message  string         `json:"message"`
	Track    *track.Summary `json:"track,omitempty"`
	Position int            `json:"position"`
	Rejected []rejectedTrack `json:"rejected"`
}

// Enqueue handles POST /api/v1/enqueue.
// The response is always 200 with an explicit success flag; the host effect
// contract has no unhandled failure path.
func (h *EnqueueHandler) Enqueue(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object"})
		return
	}

	var params enqueueParams
	if err := decodeParams(raw, &params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if params.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	result := h.orchestrator.FindAndEnqueue(c.Request.Context(), enqueue.Request{
		Channel:  params.Channel,
		Query:    params.Query,
		Criteria: h.criteria(params),
	})

	resp := enqueueResponse{
		Success:  result.Enqueued,
		Code:     result.Code,
		Message:  result.Message,
		Position: result.Position,
		Rejected: make([]rejectedTrack, 0, len(result.Rejected)),
	}
	if result.Track != nil {
		summary := result.Track.Summarize()
		resp.Track = &summary
	}
	for _, r := range result.Rejected {
		resp.Rejected = append(resp.Rejected, rejectedTrack{
			Reasons: r.Reasons,
			Summary: r.Track.Summarize(),
		})
	}

	if result.Enqueued {
		h.hub.Publish(ws.EventTrackEnqueued, resp.Track)
	}

	c.JSON(http.StatusOK, resp)
}
