// Package queue tracks the perceived playback queue of the active device.
package queue

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/dwrth/spotlink/internal/domain/track"
)

// Transport is the device-facing boundary the manager talks to.
type Transport interface {
	QueueSnapshot(ctx context.Context) (*track.QueueState, error)
	Enqueue(ctx context.Context, trackURI string) error
}

// Manager maintains the perceived playback queue. The external device is the
// sole source of truth; the manager refreshes snapshots on demand and
// tolerates staleness between refreshes. The currently playing slot only ever
// changes via a refresh, never via a push.
type Manager struct {
	mu        sync.Mutex
	transport Transport
	snapshot  *track.QueueState
}

// NewManager creates a queue manager over the given transport.
func NewManager(transport Transport) *Manager {
	return &Manager{transport: transport}
}

// Refresh fetches the authoritative snapshot from the device. Failures (no
// active device, transport error) are returned to the caller; the previously
// held snapshot is kept untouched rather than replaced with empty state.
func (m *Manager) Refresh(ctx context.Context) (*track.QueueState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshLocked(ctx)
}

func (m *Manager) refreshLocked(ctx context.Context) (*track.QueueState, error) {
	state, err := m.transport.QueueSnapshot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to refresh queue")
	}
	m.snapshot = state
	return state, nil
}

// Push submits a track to the device queue. When allowDuplicates is false the
// current snapshot (including the currently playing slot) is checked first and
// an already queued track makes the push a no-op reporting false, nil. That
// is a normal negative outcome, not an error.
//
// The duplicate check and the enqueue run under the manager's lock, so two
// concurrent pushes of the same track through this manager cannot both pass
// the check. No retry is attempted here; retrying a queue push can itself
// create duplicates, so retries are a caller policy decision.
func (m *Manager) Push(ctx context.Context, trackURI string, allowDuplicates bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !allowDuplicates {
		state, err := m.refreshLocked(ctx)
		if err != nil {
			return false, err
		}
		if state.Contains(trackURI) {
			zlog.Debug().Str("track", trackURI).Msg("duplicate push blocked")
			return false, nil
		}
	}

	if err := m.transport.Enqueue(ctx, trackURI); err != nil {
		return false, errors.Wrap(err, "failed to push track")
	}

	return true, nil
}

// FindIndex refreshes the snapshot and returns the zero-based position of the
// first occurrence of the URI within the upcoming portion, or -1 when absent.
// The currently playing slot is excluded from indexing.
func (m *Manager) FindIndex(ctx context.Context, trackURI string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.refreshLocked(ctx)
	if err != nil {
		return -1, err
	}
	return state.IndexOf(trackURI), nil
}

// Raw returns the last fetched snapshot, or nil when none has been fetched
// yet. Callers must treat a nil snapshot as an empty queue.
func (m *Manager) Raw() *track.QueueState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}
