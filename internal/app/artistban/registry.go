// Package artistban maintains the per-channel banned artist registry.
package artistban

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/dwrth/spotlink/internal/app/filter"
	"github.com/dwrth/spotlink/internal/domain/track"
	"github.com/dwrth/spotlink/internal/infra/spotify"
)

// ErrArtistNotFound is returned by BanByName when no artist matches the name.
var ErrArtistNotFound = errors.New("artist not found")

// SettingsStore persists the banned artist lists.
type SettingsStore interface {
	GetStringList(ctx context.Context, key string) ([]string, error)
	SaveStringList(ctx context.Context, key string, values []string) error
}

// ArtistSearcher resolves an artist name to its top catalog match.
type ArtistSearcher interface {
	SearchArtist(ctx context.Context, name string) (*track.Artist, error)
}

const settingKeyPrefix = "banned_artists"

// Registry holds the banned artist URI sets, one per channel. The in-memory
// sets are a cache; the settings store is the source of truth and is written
// through after every mutation.
type Registry struct {
	mu       sync.Mutex
	store    SettingsStore
	searcher ArtistSearcher
	channels map[string]*channelSet
}

// channelSet keeps membership plus insertion order, so the persisted list
// round-trips in the order bans were issued.
type channelSet struct {
	order   []string
	members map[string]struct{}
}

// NewRegistry creates a registry. Channels are loaded from the store on first
// access; call Load for channels that should be warm at startup.
func NewRegistry(store SettingsStore, searcher ArtistSearcher) *Registry {
	return &Registry{
		store:    store,
		searcher: searcher,
		channels: make(map[string]*channelSet),
	}
}

func settingKey(channel string) string {
	if channel == "" {
		return settingKeyPrefix
	}
	return settingKeyPrefix + ":" + channel
}

// loadLocked returns the cached set for a channel, reading it from the store
// on first access. r.mu must be held.
func (r *Registry) loadLocked(ctx context.Context, channel string) (*channelSet, error) {
	if set, ok := r.channels[channel]; ok {
		return set, nil
	}

	uris, err := r.store.GetStringList(ctx, settingKey(channel))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load banned artists")
	}

	set := &channelSet{members: make(map[string]struct{}, len(uris))}
	for _, uri := range uris {
		if _, ok := set.members[uri]; ok {
			continue
		}
		set.order = append(set.order, uri)
		set.members[uri] = struct{}{}
	}
	r.channels[channel] = set
	return set, nil
}

// Load warms the cache for a channel.
func (r *Registry) Load(ctx context.Context, channel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.loadLocked(ctx, channel)
	return err
}

// IsBanned reports whether the artist URI is banned in the channel. An
// unloaded channel is treated as having no bans; use Load or Checker first
// when that matters.
func (r *Registry) IsBanned(channel, artistURI string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.channels[channel]
	if !ok {
		return false
	}
	_, banned := set.members[artistURI]
	return banned
}

// Banned returns the channel's banned artist URIs in ban order.
func (r *Registry) Banned(ctx context.Context, channel string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, err := r.loadLocked(ctx, channel)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(set.order))
	copy(out, set.order)
	return out, nil
}

// BanByURI adds an artist URI to the channel's banned set. Banning an already
// banned artist is a no-op and does not persist redundantly. A persistence
// failure is surfaced to the caller; the in-memory entry is kept and the store
// wins on next load.
func (r *Registry) BanByURI(ctx context.Context, channel, artistURI string) error {
	if artistURI == "" {
		return errors.New("artist URI is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	set, err := r.loadLocked(ctx, channel)
	if err != nil {
		return err
	}

	if _, ok := set.members[artistURI]; ok {
		return nil
	}

	set.order = append(set.order, artistURI)
	set.members[artistURI] = struct{}{}

	if err := r.store.SaveStringList(ctx, settingKey(channel), set.order); err != nil {
		zlog.Error().Str("channel", channel).Str("artist", artistURI).
			Msgf("banned artist persist failed: %v", err)
		return errors.Wrap(err, "failed to persist banned artists")
	}
	return nil
}

// BanByName resolves the name to the top artist search match and bans its URI.
// Returns the resolved artist, or ErrArtistNotFound when nothing matches.
func (r *Registry) BanByName(ctx context.Context, channel, name string) (*track.Artist, error) {
	artist, err := r.searcher.SearchArtist(ctx, name)
	if err != nil {
		if errors.Is(err, spotify.ErrNotFound) {
			return nil, errors.Mark(err, ErrArtistNotFound)
		}
		return nil, errors.Wrap(err, "artist lookup failed")
	}

	if err := r.BanByURI(ctx, channel, artist.URI); err != nil {
		return nil, err
	}
	return artist, nil
}

// Checker loads the channel if needed and returns a pure membership view
// suitable for the filter pipeline.
func (r *Registry) Checker(ctx context.Context, channel string) (filter.BannedChecker, error) {
	if err := r.Load(ctx, channel); err != nil {
		return nil, err
	}
	return channelChecker{registry: r, channel: channel}, nil
}

type channelChecker struct {
	registry *Registry
	channel  string
}

func (c channelChecker) IsBanned(artistURI string) bool {
	return c.registry.IsBanned(c.channel, artistURI)
}
