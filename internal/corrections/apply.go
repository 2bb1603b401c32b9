package corrections

import "setlist/internal/tracklist"

// ApplyTo rewrites every identified track that has a known correction and
// returns the number of tracks changed. Unidentified tracks are skipped.
func (s *Store) ApplyTo(list *tracklist.Tracklist) int {
	applied := 0
	for i := range list.Tracks {
		track := &list.Tracks[i]
		if track.IsUnidentified() {
			continue
		}
		artist, title, ok := s.Lookup(track.Artist, track.Title)
		if !ok {
			continue
		}
		if artist == track.Artist && title == track.Title {
			continue
		}
		track.Rename(artist, title)
		applied++
	}
	return applied
}

// LearnFrom records a correction for every track whose pair was edited
// away from its originally recognized values. Returns the number of
// corrections recorded.
func (s *Store) LearnFrom(list *tracklist.Tracklist) (int, error) {
	learned := 0
	for _, track := range list.Tracks {
		if !track.WasCorrected() || track.IsUnidentified() {
			continue
		}
		if track.OriginalArtist == nil || track.OriginalTitle == nil {
			continue
		}
		if err := s.Record(*track.OriginalArtist, *track.OriginalTitle, track.Artist, track.Title); err != nil {
			return learned, err
		}
		learned++
	}
	return learned, nil
}
