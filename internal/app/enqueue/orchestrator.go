// Package enqueue composes search, filtering and queue submission into the
// find-and-enqueue operation exposed to the host platform.
package enqueue

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/dwrth/spotlink/internal/app/filter"
	"github.com/dwrth/spotlink/internal/domain/track"
	"github.com/dwrth/spotlink/internal/infra/spotify"
)

// Outcome codes reported back to the host.
const (
	CodeSuccess          = "success"
	CodeTrackNotFound    = "track_not_found"
	CodeDuplicateBlocked = "duplicate_blocked"
	CodeNoActiveDevice   = "no_active_device"
	CodeTransportError   = "transport_error"
)

// Catalog is the search/resolution boundary.
type Catalog interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]track.Track, error)
	GetTrack(ctx context.Context, trackID string) (*track.Track, error)
}

// Queue is the queue submission boundary.
type Queue interface {
	Push(ctx context.Context, trackURI string, allowDuplicates bool) (bool, error)
	FindIndex(ctx context.Context, trackURI string) (int, error)
}

// BanRegistry supplies the channel's banned artist view for the pipeline.
type BanRegistry interface {
	Checker(ctx context.Context, channel string) (filter.BannedChecker, error)
}

// Request is one find-and-enqueue invocation.
type Request struct {
	Channel  string
	Query    string
	Criteria filter.Criteria
}

// Result is the structured outcome of a find-and-enqueue invocation. Every
// invocation resolves to a Result; failures carry whatever partial payload
// was gathered before the failure (resolved track, rejection list).
type Result struct {
	Enqueued bool               `json:"enqueued"`
	Code     string             `json:"code"`
	Message  string             `json:"message"`
	Track    *track.Track       `json:"-"`
	Position int                `json:"position"`
	Rejected []filter.Rejection `json:"-"`
}

// Orchestrator wires the catalog, filter pipeline, ban registry and queue
// manager together.
type Orchestrator struct {
	catalog     Catalog
	queue       Queue
	registry    BanRegistry
	searchLimit int
}

// NewOrchestrator creates an orchestrator. searchLimit caps how many
// candidates one search may return to the pipeline.
func NewOrchestrator(catalog Catalog, queue Queue, registry BanRegistry, searchLimit int) *Orchestrator {
	if searchLimit <= 0 {
		searchLimit = 50
	}
	return &Orchestrator{
		catalog:     catalog,
		queue:       queue,
		registry:    registry,
		searchLimit: searchLimit,
	}
}

// FindAndEnqueue resolves the query to a track, filters search candidates,
// pushes the accepted track and reports its queue position.
//
// A query that parses as a track link resolves directly and bypasses both
// search and the filter pipeline. Between the filter step and the push there
// is a consistency gap: the device queue may change under us. The device is
// the sole source of truth, so this is accepted as a best-effort race.
func (o *Orchestrator) FindAndEnqueue(ctx context.Context, req Request) Result {
	res := Result{Position: -1, Rejected: []filter.Rejection{}}

	found, rejected, early := o.resolve(ctx, req, res)
	if early != nil {
		return *early
	}
	res.Rejected = rejected

	if found == nil {
		res.Code = CodeTrackNotFound
		res.Message = "no track matched the request"
		return res
	}
	res.Track = found

	pushed, err := o.queue.Push(ctx, found.URI, req.Criteria.AllowDuplicates)
	if err != nil {
		// Partial-success-shaped failure: the resolved track and rejection
		// list stay populated so the host can still report them
		return o.failure(res, err)
	}
	if !pushed {
		res.Code = CodeDuplicateBlocked
		res.Message = "track is already in the queue"
		return res
	}

	res.Enqueued = true
	res.Code = CodeSuccess
	res.Message = "track enqueued"

	if idx, err := o.queue.FindIndex(ctx, found.URI); err != nil {
		// Position lookup is best-effort; the push already succeeded
		zlog.Warn().Str("track", found.URI).Msgf("queue position lookup failed: %v", err)
	} else {
		res.Position = idx
	}

	return res
}

// resolve produces the candidate track for the request, either via the direct
// link path or via search plus the filter pipeline. A non-nil early result
// means resolution already failed and should be returned as-is.
func (o *Orchestrator) resolve(ctx context.Context, req Request, res Result) (*track.Track, []filter.Rejection, *Result) {
	if id, ok := spotify.TrackIDFromLink(req.Query); ok {
		// Direct references are never filtered
		t, err := o.catalog.GetTrack(ctx, id)
		if err != nil {
			if errors.Is(err, spotify.ErrNotFound) {
				res.Code = CodeTrackNotFound
				res.Message = "no track matched the request"
				return nil, nil, &res
			}
			failed := o.failure(res, err)
			return nil, nil, &failed
		}
		return t, res.Rejected, nil
	}

	candidates, err := o.catalog.SearchTracks(ctx, req.Query, o.searchLimit)
	if err != nil {
		failed := o.failure(res, err)
		return nil, nil, &failed
	}

	checker, err := o.registry.Checker(ctx, req.Channel)
	if err != nil {
		failed := o.failure(res, err)
		return nil, nil, &failed
	}

	out := filter.FilterFirst(candidates, req.Criteria, checker)
	return out.Accepted, out.Rejected, nil
}

// failure converts a transport-level error into a structured outcome,
// preserving any payload already gathered.
func (o *Orchestrator) failure(res Result, err error) Result {
	zlog.Error().Msgf("find-and-enqueue failed: %v", err)

	switch {
	case errors.Is(err, spotify.ErrNoActiveDevice):
		res.Code = CodeNoActiveDevice
		res.Message = "no active Spotify device"
	default:
		res.Code = CodeTransportError
		res.Message = "Spotify request failed"
	}
	return res
}
