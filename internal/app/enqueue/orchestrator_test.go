package enqueue

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwrth/spotlink/internal/app/filter"
	"github.com/dwrth/spotlink/internal/domain/track"
	"github.com/dwrth/spotlink/internal/infra/spotify"
)

type fakeCatalog struct {
	tracks    []track.Track
	searchErr error
	byID      map[string]*track.Track
	getErr    error
	searched  []string
}

func (f *fakeCatalog) SearchTracks(_ context.Context, query string, _ int) ([]track.Track, error) {
	f.searched = append(f.searched, query)
	return f.tracks, f.searchErr
}

func (f *fakeCatalog) GetTrack(_ context.Context, trackID string) (*track.Track, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	t, ok := f.byID[trackID]
	if !ok {
		return nil, errors.Wrap(spotify.ErrNotFound, "track lookup")
	}
	return t, nil
}

type fakeQueue struct {
	pushOK    bool
	pushErr   error
	pushed    []string
	position  int
	indexErr  error
	allowDups []bool
}

func (f *fakeQueue) Push(_ context.Context, trackURI string, allowDuplicates bool) (bool, error) {
	f.pushed = append(f.pushed, trackURI)
	f.allowDups = append(f.allowDups, allowDuplicates)
	return f.pushOK, f.pushErr
}

func (f *fakeQueue) FindIndex(_ context.Context, _ string) (int, error) {
	return f.position, f.indexErr
}

type fakeRegistry struct {
	banned map[string]bool
}

func (f *fakeRegistry) Checker(_ context.Context, _ string) (filter.BannedChecker, error) {
	return bannedSet(f.banned), nil
}

type bannedSet map[string]bool

func (b bannedSet) IsBanned(artistURI string) bool { return b[artistURI] }

func cleanTrack(uri, name string) track.Track {
	return track.Track{
		URI:      uri,
		Name:     name,
		Duration: 3 * time.Minute,
		Artists:  []track.Artist{{URI: "spotify:artist:x", Name: "X"}},
	}
}

func newOrchestrator(c *fakeCatalog, q *fakeQueue, r *fakeRegistry) *Orchestrator {
	if r == nil {
		r = &fakeRegistry{}
	}
	return NewOrchestrator(c, q, r, 50)
}

func TestFindAndEnqueue_SearchPath(t *testing.T) {
	explicit := cleanTrack("spotify:track:x", "X")
	explicit.Explicit = true
	catalog := &fakeCatalog{tracks: []track.Track{
		explicit,
		cleanTrack("spotify:track:y", "Y"),
		cleanTrack("spotify:track:z", "Z"),
	}}
	queue := &fakeQueue{pushOK: true, position: 2}
	o := newOrchestrator(catalog, queue, nil)

	res := o.FindAndEnqueue(context.Background(), Request{
		Query:    "test song",
		Criteria: filter.Criteria{FilterExplicit: true},
	})

	assert.True(t, res.Enqueued)
	assert.Equal(t, CodeSuccess, res.Code)
	require.NotNil(t, res.Track)
	assert.Equal(t, "spotify:track:y", res.Track.URI)
	assert.Equal(t, 2, res.Position)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, "spotify:track:x", res.Rejected[0].Track.URI)
	assert.Equal(t, []filter.Reason{filter.ReasonExplicit}, res.Rejected[0].Reasons)
	assert.Equal(t, []string{"spotify:track:y"}, queue.pushed)
}

func TestFindAndEnqueue_DirectLinkBypassesSearch(t *testing.T) {
	// Direct references resolve without search and without filtering, but the
	// push and position steps still run.
	direct := cleanTrack("spotify:track:abc123", "Direct")
	direct.Explicit = true
	catalog := &fakeCatalog{byID: map[string]*track.Track{"abc123": &direct}}
	queue := &fakeQueue{pushOK: true, position: 0}
	o := newOrchestrator(catalog, queue, nil)

	res := o.FindAndEnqueue(context.Background(), Request{
		Query:    "https://open.spotify.com/track/abc123",
		Criteria: filter.Criteria{FilterExplicit: true},
	})

	assert.True(t, res.Enqueued)
	assert.Empty(t, catalog.searched, "search is bypassed")
	assert.Empty(t, res.Rejected)
	require.NotNil(t, res.Track)
	assert.Equal(t, "spotify:track:abc123", res.Track.URI)
	assert.Equal(t, 0, res.Position)
}

func TestFindAndEnqueue_DirectLinkNotFound(t *testing.T) {
	catalog := &fakeCatalog{byID: map[string]*track.Track{}}
	queue := &fakeQueue{pushOK: true}
	o := newOrchestrator(catalog, queue, nil)

	res := o.FindAndEnqueue(context.Background(), Request{
		Query: "spotify:track:doesnotexist",
	})

	assert.False(t, res.Enqueued)
	assert.Equal(t, CodeTrackNotFound, res.Code)
	assert.Empty(t, res.Rejected, "direct path carries no rejection list")
	assert.Empty(t, queue.pushed)
}

func TestFindAndEnqueue_AllCandidatesFiltered(t *testing.T) {
	e1 := cleanTrack("spotify:track:a", "A")
	e1.Explicit = true
	e2 := cleanTrack("spotify:track:b", "B")
	e2.Explicit = true
	catalog := &fakeCatalog{tracks: []track.Track{e1, e2}}
	queue := &fakeQueue{pushOK: true}
	o := newOrchestrator(catalog, queue, nil)

	res := o.FindAndEnqueue(context.Background(), Request{
		Query:    "something",
		Criteria: filter.Criteria{FilterExplicit: true},
	})

	assert.False(t, res.Enqueued)
	assert.Equal(t, CodeTrackNotFound, res.Code)
	assert.Len(t, res.Rejected, 2, "rejected list reported alongside the failure")
	assert.Empty(t, queue.pushed)
}

func TestFindAndEnqueue_BannedArtistRejected(t *testing.T) {
	banned := cleanTrack("spotify:track:bad", "Bad")
	banned.Artists = []track.Artist{{URI: "spotify:artist:bad", Name: "Bad Artist"}}
	catalog := &fakeCatalog{tracks: []track.Track{
		banned,
		cleanTrack("spotify:track:ok", "OK"),
	}}
	queue := &fakeQueue{pushOK: true}
	registry := &fakeRegistry{banned: map[string]bool{"spotify:artist:bad": true}}
	o := newOrchestrator(catalog, queue, registry)

	res := o.FindAndEnqueue(context.Background(), Request{Query: "anything"})

	assert.True(t, res.Enqueued)
	assert.Equal(t, "spotify:track:ok", res.Track.URI)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, []filter.Reason{filter.ReasonBannedArtist}, res.Rejected[0].Reasons)
}

func TestFindAndEnqueue_DuplicateBlocked(t *testing.T) {
	catalog := &fakeCatalog{tracks: []track.Track{cleanTrack("spotify:track:dup", "Dup")}}
	queue := &fakeQueue{pushOK: false}
	o := newOrchestrator(catalog, queue, nil)

	res := o.FindAndEnqueue(context.Background(), Request{Query: "dup song"})

	assert.False(t, res.Enqueued)
	assert.Equal(t, CodeDuplicateBlocked, res.Code)
	require.NotNil(t, res.Track, "resolved track stays populated on duplicate block")
	assert.Equal(t, "spotify:track:dup", res.Track.URI)
	assert.Equal(t, -1, res.Position)
}

func TestFindAndEnqueue_NoActiveDevice(t *testing.T) {
	catalog := &fakeCatalog{tracks: []track.Track{cleanTrack("spotify:track:a", "A")}}
	queue := &fakeQueue{pushErr: errors.Wrap(spotify.ErrNoActiveDevice, "player command failed")}
	o := newOrchestrator(catalog, queue, nil)

	res := o.FindAndEnqueue(context.Background(), Request{Query: "a song"})

	assert.False(t, res.Enqueued)
	assert.Equal(t, CodeNoActiveDevice, res.Code)
	assert.NotNil(t, res.Track)
}

func TestFindAndEnqueue_SearchTransportError(t *testing.T) {
	catalog := &fakeCatalog{searchErr: errors.New("connection reset")}
	queue := &fakeQueue{}
	o := newOrchestrator(catalog, queue, nil)

	res := o.FindAndEnqueue(context.Background(), Request{Query: "a song"})

	assert.False(t, res.Enqueued)
	assert.Equal(t, CodeTransportError, res.Code)
	assert.NotEmpty(t, res.Message)
}

func TestFindAndEnqueue_PositionLookupFailureIsNonFatal(t *testing.T) {
	catalog := &fakeCatalog{tracks: []track.Track{cleanTrack("spotify:track:a", "A")}}
	queue := &fakeQueue{pushOK: true, indexErr: errors.New("timeout")}
	o := newOrchestrator(catalog, queue, nil)

	res := o.FindAndEnqueue(context.Background(), Request{Query: "a song"})

	assert.True(t, res.Enqueued, "push already succeeded")
	assert.Equal(t, CodeSuccess, res.Code)
	assert.Equal(t, -1, res.Position)
}

func TestFindAndEnqueue_AllowDuplicatesPassedThrough(t *testing.T) {
	catalog := &fakeCatalog{tracks: []track.Track{cleanTrack("spotify:track:a", "A")}}
	queue := &fakeQueue{pushOK: true}
	o := newOrchestrator(catalog, queue, nil)

	o.FindAndEnqueue(context.Background(), Request{
		Query:    "a song",
		Criteria: filter.Criteria{AllowDuplicates: true},
	})

	require.Len(t, queue.allowDups, 1)
	assert.True(t, queue.allowDups[0])
}
