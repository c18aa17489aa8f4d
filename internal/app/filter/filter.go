// Package filter provides the candidate filter pipeline for track requests.
package filter

import (
	"time"

	"github.com/dwrth/spotlink/internal/domain/track"
)

// Reason identifies why a candidate was rejected.
type Reason string

const (
	ReasonExplicit     Reason = "explicit"
	ReasonTooShort     Reason = "too_short"
	ReasonBannedArtist Reason = "banned_artist"
)

// Criteria holds the per-request filter settings supplied by the host.
// The zero value disables all filters.
type Criteria struct {
	// MaximumLength rejects candidates whose duration falls strictly below it.
	// The host exposes this knob as "max length" but has always enforced it as
	// a minimum acceptable duration; existing setups rely on that reading, so
	// it is kept as-is.
	MaximumLength time.Duration

	// FilterExplicit rejects candidates carrying the explicit content flag.
	FilterExplicit bool

	// AllowDuplicates is not evaluated by the pipeline itself; it is carried
	// through to the queue push.
	AllowDuplicates bool
}

// BannedChecker answers artist ban membership queries.
type BannedChecker interface {
	IsBanned(artistURI string) bool
}

// Rejection pairs a rejected candidate with its verdict reasons, in the order
// the checks ran.
type Rejection struct {
	Track   track.Track `json:"track"`
	Reasons []Reason    `json:"reasons"`
}

// Outcome is the result of running the pipeline over a candidate sequence.
// Accepted is nil when no candidate passed; Rejected lists every candidate
// examined before acceptance (or all of them on exhaustion), in encounter
// order.
type Outcome struct {
	Accepted *track.Track
	Rejected []Rejection
}

// Verdict computes the rejection reasons for a single candidate. An empty
// result means the candidate is acceptable.
func Verdict(t track.Track, c Criteria, banned BannedChecker) []Reason {
	var reasons []Reason

	if c.FilterExplicit && t.Explicit {
		reasons = append(reasons, ReasonExplicit)
	}

	if c.MaximumLength > 0 && t.Duration < c.MaximumLength {
		reasons = append(reasons, ReasonTooShort)
	}

	if banned != nil {
		for _, a := range t.Artists {
			if banned.IsBanned(a.URI) {
				reasons = append(reasons, ReasonBannedArtist)
				break
			}
		}
	}

	return reasons
}

// FilterFirst consumes candidates strictly in input order and returns the
// first one whose verdict is empty. The input order is the catalog's relevance
// ranking and is never re-sorted. The input slice is not mutated and nothing
// is re-fetched; this is a pure function over what it is given.
func FilterFirst(candidates []track.Track, c Criteria, banned BannedChecker) Outcome {
	out := Outcome{Rejected: []Rejection{}}

	for _, candidate := range candidates {
		reasons := Verdict(candidate, c, banned)
		if len(reasons) == 0 {
			accepted := candidate
			out.Accepted = &accepted
			return out
		}
		out.Rejected = append(out.Rejected, Rejection{Track: candidate, Reasons: reasons})
	}

	return out
}
