// Package tracklist defines the reconciled tracklist model and its two
// serializations: the human-readable markdown format and the JSON sidecar
// that carries fields markdown cannot express.
package tracklist

import (
	"fmt"
	"strconv"
	"strings"
)

// Track is a single reconciled entry in a tracklist.
//
// An empty artist and title together mean the stretch could not be
// identified; consumers must use IsUnidentified rather than checking a
// single field.
type Track struct {
	// Timestamp is the start of the track in seconds from the beginning
	// of the recording.
	Timestamp int
	Artist    string
	Title     string
	// Rejected excludes the track from all exported output. Rejected
	// tracks stay in memory so the exclusion can be undone.
	Rejected   bool
	ShazamURL  string
	Album      string
	ArtworkURL string
	// OriginalArtist and OriginalTitle hold the values assigned during
	// reconciliation, set the first time a correction or manual edit
	// changes the pair.
	OriginalArtist *string
	OriginalTitle  *string
}

// TimeString formats the track start as H:MM:SS, or M:SS below one hour.
func (t Track) TimeString() string {
	return FormatTimestamp(t.Timestamp)
}

// IsUnidentified reports whether the track carries no identification.
func (t Track) IsUnidentified() bool {
	return t.Artist == "" && t.Title == ""
}

// WasCorrected reports whether the artist or title was changed away from
// the originally reconciled values.
func (t Track) WasCorrected() bool {
	if t.OriginalArtist == nil && t.OriginalTitle == nil {
		return false
	}
	return t.Artist != deref(t.OriginalArtist) || t.Title != deref(t.OriginalTitle)
}

// Rename updates the artist and title, preserving the pre-edit pair in
// OriginalArtist/OriginalTitle the first time it is called.
func (t *Track) Rename(artist, title string) {
	if t.OriginalArtist == nil && t.OriginalTitle == nil {
		prevArtist, prevTitle := t.Artist, t.Title
		t.OriginalArtist = &prevArtist
		t.OriginalTitle = &prevTitle
	}
	t.Artist = artist
	t.Title = title
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// FormatTimestamp converts seconds to H:MM:SS, or M:SS below one hour.
// The leftmost unit carries no leading zero.
func FormatTimestamp(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// ParseTimestamp converts an M:SS or H:MM:SS string back to seconds.
func ParseTimestamp(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("timestamp %q: expected M:SS or H:MM:SS", value)
	}
	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("timestamp %q: invalid component %q", value, part)
		}
		total = total*60 + n
	}
	return total, nil
}
