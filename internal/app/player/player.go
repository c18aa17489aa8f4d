// Package player exposes playback-level state: repeat mode, devices, and
// current track reads off the latest queue snapshot.
package player

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/dwrth/spotlink/internal/domain/track"
	"github.com/dwrth/spotlink/internal/infra/spotify"
)

// RepeatState is the device repeat mode.
type RepeatState string

const (
	RepeatOff     RepeatState = "off"
	RepeatTrack   RepeatState = "track"
	RepeatContext RepeatState = "context"
)

// ParseRepeatState validates a host-supplied repeat state string.
func ParseRepeatState(s string) (RepeatState, error) {
	switch RepeatState(s) {
	case RepeatOff, RepeatTrack, RepeatContext:
		return RepeatState(s), nil
	default:
		return "", errors.Newf("invalid repeat state %q (must be off, track, or context)", s)
	}
}

// Transport is the device-facing boundary for player commands.
type Transport interface {
	SetRepeat(ctx context.Context, state string) error
	Devices(ctx context.Context) ([]spotify.Device, error)
}

// SnapshotSource provides the last known queue snapshot, possibly nil.
type SnapshotSource interface {
	Raw() *track.QueueState
}

// Player reads playback state and issues player commands.
type Player struct {
	transport Transport
	queue     SnapshotSource
}

// New creates a player over the given transport and snapshot source.
func New(transport Transport, queue SnapshotSource) *Player {
	return &Player{transport: transport, queue: queue}
}

// CurrentTrack returns the currently playing track from the latest snapshot,
// or nil when no snapshot exists or nothing is playing.
func (p *Player) CurrentTrack() *track.Track {
	snapshot := p.queue.Raw()
	if snapshot == nil {
		return nil
	}
	return snapshot.NowPlaying
}

// TrackURL returns the URL of the currently playing track, or the empty
// string when nothing is playing.
func (p *Player) TrackURL() string {
	t := p.CurrentTrack()
	if t == nil {
		return ""
	}
	return t.URL
}

// ChangeRepeat sets the repeat mode of the active device.
func (p *Player) ChangeRepeat(ctx context.Context, state RepeatState) error {
	if _, err := ParseRepeatState(string(state)); err != nil {
		return err
	}
	return p.transport.SetRepeat(ctx, string(state))
}

// ActiveDevice returns the currently active playback device, if any.
func (p *Player) ActiveDevice(ctx context.Context) (*spotify.Device, bool, error) {
	devices, err := p.transport.Devices(ctx)
	if err != nil {
		return nil, false, err
	}
	for _, d := range devices {
		if d.Active {
			device := d
			return &device, true, nil
		}
	}
	return nil, false, nil
}
