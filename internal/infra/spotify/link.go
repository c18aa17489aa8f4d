package spotify

import "strings"

// TrackIDFromLink extracts the track ID from a Spotify track link and reports
// whether the input was a recognized link format. Unlike a bare ID fallback,
// plain text returns false so search queries are never mistaken for direct
// track references.
//
// Recognized formats:
//   - spotify:track:TRACK_ID
//   - https://open.spotify.com/track/TRACK_ID
//   - https://open.spotify.com/intl-xx/track/TRACK_ID
func TrackIDFromLink(input string) (string, bool) {
	input = strings.TrimSpace(input)

	if strings.HasPrefix(input, "spotify:track:") {
		id := strings.TrimPrefix(input, "spotify:track:")
		return id, id != ""
	}

	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, "/track/") {
		parts := strings.Split(input, "/track/")
		if len(parts) >= 2 {
			// Remove query parameters and trailing slashes
			id := strings.Split(parts[len(parts)-1], "?")[0]
			id = strings.TrimRight(id, "/")
			return id, id != ""
		}
	}

	return "", false
}

// ArtistIDFromURI extracts the artist ID from a spotify:artist URI, falling
// back to the input when it is already a bare ID.
func ArtistIDFromURI(input string) string {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "spotify:artist:") {
		return strings.TrimPrefix(input, "spotify:artist:")
	}
	return input
}

// TrackURIFromID builds the spotify:track URI for a bare ID.
func TrackURIFromID(id string) string {
	if id == "" {
		return ""
	}
	return "spotify:track:" + id
}
