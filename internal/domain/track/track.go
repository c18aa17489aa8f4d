// Package track provides the Track domain entities.
package track

import "time"

// Artist represents a Spotify artist reference as carried on a track.
type Artist struct {
	ID   string // Spotify artist ID
	URI  string // Spotify URI (spotify:artist:...)
	Name string // Display name
}

// Track represents a Spotify track entity.
// Contains only information retrieved from the Spotify API; immutable once fetched.
type Track struct {
	ID          string        // Spotify track ID
	URI         string        // Spotify URI (spotify:track:...)
	Name        string        // Track name
	Artists     []Artist      // Artists, main artist first
	Album       string        // Album name
	AlbumArtURL string        // Album art URL
	Duration    time.Duration // Track duration
	URL         string        // Spotify URL
	Popularity  int           // Popularity score (0-100)
	Explicit    bool          // Explicit content flag
}

// ArtistNames returns the display names of all artists on the track.
func (t *Track) ArtistNames() []string {
	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
	}
	return names
}

// Summary is the reduced track form reported back to the host platform.
type Summary struct {
	ID          string   `json:"id"`
	URI         string   `json:"uri"`
	Name        string   `json:"name"`
	Artists     []string `json:"artists"`
	Album       string   `json:"album"`
	AlbumArtURL string   `json:"album_art_url,omitempty"`
	DurationMs  int64    `json:"duration_ms"`
	URL         string   `json:"url"`
	Explicit    bool     `json:"explicit"`
}

// Summarize converts a track to its host-facing summary form.
func (t *Track) Summarize() Summary {
	return Summary{
		ID:          t.ID,
		URI:         t.URI,
		Name:        t.Name,
		Artists:     t.ArtistNames(),
		Album:       t.Album,
		AlbumArtURL: t.AlbumArtURL,
		DurationMs:  t.Duration.Milliseconds(),
		URL:         t.URL,
		Explicit:    t.Explicit,
	}
}

// QueueState is a point-in-time read of the playback queue as reported by the
// device: the currently playing track (nil when idle) plus the upcoming tracks
// in play order.
type QueueState struct {
	NowPlaying *Track
	Upcoming   []Track
}

// Contains reports whether a track with the given URI appears anywhere in the
// snapshot, including the currently playing slot.
func (q *QueueState) Contains(trackURI string) bool {
	if q == nil {
		return false
	}
	if q.NowPlaying != nil && q.NowPlaying.URI == trackURI {
		return true
	}
	return q.IndexOf(trackURI) >= 0
}

// IndexOf returns the zero-based position of the first occurrence of the given
// URI within the upcoming portion of the queue, or -1 if not present. The
// currently playing slot is not indexed.
func (q *QueueState) IndexOf(trackURI string) int {
	if q == nil {
		return -1
	}
	for i, t := range q.Upcoming {
		if t.URI == trackURI {
			return i
		}
	}
	return -1
}
