// Package recognize talks to the fingerprint recognition gateway and
// shapes its responses into match results keyed by sample timestamp.
package recognize

import (
	"encoding/json"
	"fmt"
)

// Match is a successful identification of one audio sample. A nil *Match
// means the sample was submitted and came back unmatched.
type Match struct {
	Title          string  `json:"title"`
	Artist         string  `json:"artist"`
	ShazamURL      string  `json:"shazam_url,omitempty"`
	Album          string  `json:"album,omitempty"`
	ArtworkURL     string  `json:"coverart_url,omitempty"`
	OriginalArtist *string `json:"original_artist,omitempty"`
	OriginalTitle  *string `json:"original_title,omitempty"`
}

// Result pairs a sample timestamp with its recognition outcome.
type Result struct {
	// Timestamp is the sample start in seconds from the beginning of the
	// recording.
	Timestamp int
	// Match is nil when the service returned no identification.
	Match *Match
}

// MarshalJSON encodes the result as a two-element array so progress
// snapshots stay compact: [timestamp, match-or-null].
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{r.Timestamp, r.Match})
}

// UnmarshalJSON decodes the [timestamp, match-or-null] pair form.
func (r *Result) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("result must be a [timestamp, match] pair: %w", err)
	}
	if err := json.Unmarshal(raw[0], &r.Timestamp); err != nil {
		return fmt.Errorf("result timestamp: %w", err)
	}
	r.Match = nil
	if string(raw[1]) == "null" || len(raw[1]) == 0 {
		return nil
	}
	var match Match
	if err := json.Unmarshal(raw[1], &match); err != nil {
		return fmt.Errorf("result match: %w", err)
	}
	r.Match = &match
	return nil
}
