package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueueState_Contains(t *testing.T) {
	tests := []struct {
		name     string
		state    *QueueState
		uri      string
		expected bool
	}{
		{
			name:     "nil snapshot",
			state:    nil,
			uri:      "spotify:track:abc",
			expected: false,
		},
		{
			name:     "empty snapshot",
			state:    &QueueState{},
			uri:      "spotify:track:abc",
			expected: false,
		},
		{
			name: "currently playing slot counts",
			state: &QueueState{
				NowPlaying: &Track{URI: "spotify:track:abc"},
			},
			uri:      "spotify:track:abc",
			expected: true,
		},
		{
			name: "upcoming track counts",
			state: &QueueState{
				NowPlaying: &Track{URI: "spotify:track:other"},
				Upcoming: []Track{
					{URI: "spotify:track:one"},
					{URI: "spotify:track:abc"},
				},
			},
			uri:      "spotify:track:abc",
			expected: true,
		},
		{
			name: "not present",
			state: &QueueState{
				NowPlaying: &Track{URI: "spotify:track:other"},
				Upcoming:   []Track{{URI: "spotify:track:one"}},
			},
			uri:      "spotify:track:abc",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.Contains(tt.uri))
		})
	}
}

func TestQueueState_IndexOf(t *testing.T) {
	state := &QueueState{
		NowPlaying: &Track{URI: "spotify:track:playing"},
		Upcoming: []Track{
			{URI: "spotify:track:first"},
			{URI: "spotify:track:second"},
			{URI: "spotify:track:second"},
		},
	}

	assert.Equal(t, 0, state.IndexOf("spotify:track:first"))
	assert.Equal(t, 1, state.IndexOf("spotify:track:second"), "first occurrence wins")
	assert.Equal(t, -1, state.IndexOf("spotify:track:missing"))
	assert.Equal(t, -1, state.IndexOf("spotify:track:playing"),
		"currently playing slot is not indexed")

	var nilState *QueueState
	assert.Equal(t, -1, nilState.IndexOf("spotify:track:first"))
}

func TestTrack_Summarize(t *testing.T) {
	trk := Track{
		ID:   "4uLU6hMCjMI75M1A2tKUQC",
		URI:  "spotify:track:4uLU6hMCjMI75M1A2tKUQC",
		Name: "Never Gonna Give You Up",
		Artists: []Artist{
			{ID: "0gxyHStUsqpMadRV0Di1Qt", URI: "spotify:artist:0gxyHStUsqpMadRV0Di1Qt", Name: "Rick Astley"},
		},
		Album:    "Whenever You Need Somebody",
		Duration: 3*time.Minute + 33*time.Second,
		URL:      "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC",
	}

	s := trk.Summarize()
	assert.Equal(t, trk.ID, s.ID)
	assert.Equal(t, trk.URI, s.URI)
	assert.Equal(t, []string{"Rick Astley"}, s.Artists)
	assert.Equal(t, int64(213000), s.DurationMs)
	assert.False(t, s.Explicit)
}
