// Package spotify provides a client for the Spotify Web API.
package spotify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/dwrth/spotlink/internal/domain/track"
)

// Sentinel errors for API failures callers need to distinguish.
var (
	// ErrNotFound marks 404 responses for catalog lookups.
	ErrNotFound = errors.New("not found")
	// ErrNoActiveDevice marks player commands rejected because no Spotify
	// device is currently active.
	ErrNoActiveDevice = errors.New("no active device")
)

// Client is a Spotify API client.
type Client struct {
	client     *spotify.Client
	market     string
	maxRetries int
	retryDelay time.Duration
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Market       string
}

// New creates a new Spotify client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, errors.New("spotify credentials are required")
	}

	// Playback control requires the user-scoped player permissions
	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserModifyPlaybackState,
			spotifyauth.ScopeUserReadPlaybackState,
			spotifyauth.ScopeUserReadCurrentlyPlaying,
		),
	)

	// Create token from refresh token; the HTTP client refreshes it as needed
	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	}
	httpClient := auth.Client(ctx, token)
	client := spotify.New(httpClient)

	market := cfg.Market
	if market == "" {
		market = "US"
	}

	return &Client{
		client:     client,
		market:     market,
		maxRetries: 3,
		retryDelay: time.Second,
	}, nil
}

// SearchTracks searches the catalog for tracks matching the query and returns
// them in the catalog's relevance order.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]track.Track, error) {
	if query == "" {
		return nil, errors.New("search query is required")
	}

	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	var result *spotify.SearchResult
	err := c.retry(func() error {
		r, err := c.client.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(limit))
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(classify(err), "failed to search tracks")
	}

	if result.Tracks == nil {
		return []track.Track{}, nil
	}

	tracks := make([]track.Track, 0, len(result.Tracks.Tracks))
	for _, t := range result.Tracks.Tracks {
		tracks = append(tracks, *convertTrack(&t))
	}
	return tracks, nil
}

// SearchArtist returns the top artist match for the given name, or
// ErrNotFound when the search comes back empty.
func (c *Client) SearchArtist(ctx context.Context, name string) (*track.Artist, error) {
	if name == "" {
		return nil, errors.New("artist name is required")
	}

	var result *spotify.SearchResult
	err := c.retry(func() error {
		r, err := c.client.Search(ctx, name, spotify.SearchTypeArtist, spotify.Limit(1))
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(classify(err), "failed to search artists")
	}

	if result.Artists == nil || len(result.Artists.Artists) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "no artist matches %q", name)
	}

	a := result.Artists.Artists[0]
	return &track.Artist{
		ID:   string(a.ID),
		URI:  string(a.URI),
		Name: a.Name,
	}, nil
}

// Album describes an album returned by a catalog search.
type Album struct {
	ID     string `json:"id"`
	URI    string `json:"uri"`
	Name   string `json:"name"`
	Artist string `json:"artist"`
	ArtURL string `json:"art_url"`
}

// SearchAlbum returns the top album match for the given query, or ErrNotFound
// when the search comes back empty.
func (c *Client) SearchAlbum(ctx context.Context, query string) (*Album, error) {
	if query == "" {
		return nil, errors.New("search query is required")
	}

	var result *spotify.SearchResult
	err := c.retry(func() error {
		r, err := c.client.Search(ctx, query, spotify.SearchTypeAlbum, spotify.Limit(1))
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(classify(err), "failed to search albums")
	}

	if result.Albums == nil || len(result.Albums.Albums) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "no album matches %q", query)
	}

	a := result.Albums.Albums[0]
	album := &Album{
		ID:   string(a.ID),
		URI:  string(a.URI),
		Name: a.Name,
	}
	if len(a.Artists) > 0 {
		album.Artist = a.Artists[0].Name
	}
	if len(a.Images) > 0 {
		album.ArtURL = a.Images[0].URL
	}
	return album, nil
}

// Playlist describes a playlist returned by a catalog search.
type Playlist struct {
	ID     string `json:"id"`
	URI    string `json:"uri"`
	Name   string `json:"name"`
	Owner  string `json:"owner"`
	ArtURL string `json:"art_url"`
}

// SearchPlaylist returns the top playlist match for the given query, or
// ErrNotFound when the search comes back empty.
func (c *Client) SearchPlaylist(ctx context.Context, query string) (*Playlist, error) {
	if query == "" {
		return nil, errors.New("search query is required")
	}

	var result *spotify.SearchResult
	err := c.retry(func() error {
		r, err := c.client.Search(ctx, query, spotify.SearchTypePlaylist, spotify.Limit(1))
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(classify(err), "failed to search playlists")
	}

	if result.Playlists == nil || len(result.Playlists.Playlists) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "no playlist matches %q", query)
	}

	p := result.Playlists.Playlists[0]
	playlist := &Playlist{
		ID:    string(p.ID),
		URI:   string(p.URI),
		Name:  p.Name,
		Owner: p.Owner.DisplayName,
	}
	if len(p.Images) > 0 {
		playlist.ArtURL = p.Images[0].URL
	}
	return playlist, nil
}

// GetTrack retrieves track information by ID, URL, or URI.
func (c *Client) GetTrack(ctx context.Context, trackID string) (*track.Track, error) {
	id := trackID
	if linkID, ok := TrackIDFromLink(trackID); ok {
		id = linkID
	}

	var result *spotify.FullTrack
	err := c.retry(func() error {
		t, err := c.client.GetTrack(ctx, spotify.ID(id))
		if err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(classify(err), "failed to get track")
	}

	return convertTrack(result), nil
}

// QueueSnapshot fetches the authoritative queue state from the active device.
func (c *Client) QueueSnapshot(ctx context.Context) (*track.QueueState, error) {
	var queue *spotify.Queue
	err := c.retry(func() error {
		q, err := c.client.GetQueue(ctx)
		if err != nil {
			return err
		}
		queue = q
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(classify(err), "failed to get queue")
	}

	state := &track.QueueState{
		Upcoming: make([]track.Track, 0, len(queue.Items)),
	}
	if queue.CurrentlyPlaying.ID != "" {
		state.NowPlaying = convertTrack(&queue.CurrentlyPlaying)
	}
	for _, t := range queue.Items {
		state.Upcoming = append(state.Upcoming, *convertTrack(&t))
	}
	return state, nil
}

// Enqueue submits a track to the active device's playback queue.
// trackURI can be a Spotify URI, URL, or bare ID.
func (c *Client) Enqueue(ctx context.Context, trackURI string) error {
	id := trackURI
	if linkID, ok := TrackIDFromLink(trackURI); ok {
		id = linkID
	}

	err := c.retry(func() error {
		return c.client.QueueSong(ctx, spotify.ID(id))
	})
	if err != nil {
		return errors.Wrap(classify(err), "failed to enqueue track")
	}
	return nil
}

// SetRepeat changes the repeat mode of the active device.
// state must be one of "off", "track", or "context".
func (c *Client) SetRepeat(ctx context.Context, state string) error {
	err := c.retry(func() error {
		return c.client.Repeat(ctx, state)
	})
	if err != nil {
		return errors.Wrap(classify(err), "failed to set repeat state")
	}
	return nil
}

// Device describes a playback device known to the user's account.
type Device struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Active bool   `json:"active"`
}

// Devices lists the user's available playback devices.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	var devices []spotify.PlayerDevice
	err := c.retry(func() error {
		d, err := c.client.PlayerDevices(ctx)
		if err != nil {
			return err
		}
		devices = d
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(classify(err), "failed to list devices")
	}

	out := make([]Device, 0, len(devices))
	for _, d := range devices {
		out = append(out, Device{
			ID:     string(d.ID),
			Name:   d.Name,
			Type:   d.Type,
			Active: d.Active,
		})
	}
	return out, nil
}

// convertTrack converts a Spotify FullTrack to a domain Track.
func convertTrack(t *spotify.FullTrack) *track.Track {
	artists := make([]track.Artist, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = track.Artist{
			ID:   string(a.ID),
			URI:  string(a.URI),
			Name: a.Name,
		}
	}

	var albumArt string
	if len(t.Album.Images) > 0 {
		albumArt = t.Album.Images[0].URL
	}

	return &track.Track{
		ID:          string(t.ID),
		URI:         string(t.URI),
		Name:        t.Name,
		Artists:     artists,
		Album:       t.Album.Name,
		AlbumArtURL: albumArt,
		Duration:    time.Duration(t.Duration) * time.Millisecond,
		URL:         TrackURL(string(t.ID)),
		Popularity:  int(t.Popularity),
		Explicit:    t.Explicit,
	}
}

// TrackURL returns the open.spotify.com URL for a track.
func TrackURL(trackID string) string {
	return fmt.Sprintf("https://open.spotify.com/track/%s", trackID)
}

// classify marks API errors with the matching sentinel so callers can use
// errors.Is without knowing the transport.
func classify(err error) error {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		if strings.Contains(strings.ToLower(apiErr.Message), "no active device") {
			return errors.Mark(err, ErrNoActiveDevice)
		}
		return errors.Mark(err, ErrNotFound)
	}
	return err
}

// retry retries an operation with linear backoff.
func (c *Client) retry(fn func() error) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelay * time.Duration(i+1))
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	// Rate limit errors and server errors are retryable
	errStr := err.Error()
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504")
}
