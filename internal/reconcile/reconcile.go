// Package reconcile turns per-sample recognition results into a clean
// tracklist: corrections are applied first, one-off matches are treated
// as misfires, and consecutive samples of the same track collapse into a
// single entry.
package reconcile

import (
	"time"

	"setlist/internal/recognize"
	"setlist/internal/textutil"
	"setlist/internal/tracklist"
)

// Corrector maps a recognized artist/title pair to its corrected form.
// Implementations return ok=false when no correction is known.
type Corrector interface {
	Lookup(artist, title string) (correctedArtist, correctedTitle string, ok bool)
}

type trackKey struct {
	title  string
	artist string
}

func keyOf(m *recognize.Match) trackKey {
	return trackKey{
		title:  textutil.NormalizeKey(m.Title),
		artist: textutil.NormalizeKey(m.Artist),
	}
}

// Build reconciles raw results into a Tracklist for the given source
// file. A nil corrector skips the correction pass.
func Build(results []recognize.Result, sourceFile string, corrector Corrector) *tracklist.Tracklist {
	return &tracklist.Tracklist{
		SourceFile:  sourceFile,
		GeneratedOn: time.Now(),
		Tracks:      Reconcile(results, corrector),
	}
}

// Reconcile runs the full pipeline: correction overlay, singleton
// suppression, and run collapse.
func Reconcile(results []recognize.Result, corrector Corrector) []tracklist.Track {
	corrected := applyCorrections(results, corrector)
	filtered := suppressSingletons(corrected)
	return collapseRuns(filtered)
}

// applyCorrections rewrites each matched result through the corrector,
// recording the pre-correction pair. Input results are not mutated.
func applyCorrections(results []recognize.Result, corrector Corrector) []recognize.Result {
	if corrector == nil {
		return results
	}
	out := make([]recognize.Result, 0, len(results))
	for _, result := range results {
		if result.Match == nil {
			out = append(out, result)
			continue
		}
		artist, title, ok := corrector.Lookup(result.Match.Artist, result.Match.Title)
		if !ok {
			out = append(out, result)
			continue
		}
		match := *result.Match
		originalArtist, originalTitle := match.Artist, match.Title
		match.OriginalArtist = &originalArtist
		match.OriginalTitle = &originalTitle
		match.Artist = artist
		match.Title = title
		out = append(out, recognize.Result{Timestamp: result.Timestamp, Match: &match})
	}
	return out
}

// suppressSingletons demotes any track recognized in exactly one sample
// to unmatched. A single hit across a long recording is almost always a
// sampled fragment or a misfire, not a played track.
func suppressSingletons(results []recognize.Result) []recognize.Result {
	counts := make(map[trackKey]int)
	for _, result := range results {
		if result.Match != nil {
			counts[keyOf(result.Match)]++
		}
	}
	out := make([]recognize.Result, 0, len(results))
	for _, result := range results {
		if result.Match != nil && counts[keyOf(result.Match)] == 1 {
			out = append(out, recognize.Result{Timestamp: result.Timestamp})
			continue
		}
		out = append(out, result)
	}
	return out
}

// collapseRuns emits one track per run of samples that agree on the same
// artist/title pair, stamped with the run's first timestamp. Unmatched
// stretches become a single unidentified entry, except before the first
// identified track where they are dropped: recordings routinely open with
// crowd noise and announcements that are not part of the set.
func collapseRuns(results []recognize.Result) []tracklist.Track {
	tracks := []tracklist.Track{}
	var lastKey *trackKey
	pendingGap := -1

	for _, result := range results {
		if result.Match == nil {
			if lastKey != nil && pendingGap < 0 {
				pendingGap = result.Timestamp
			}
			continue
		}
		key := keyOf(result.Match)
		if lastKey != nil && key == *lastKey {
			continue
		}
		if pendingGap >= 0 {
			tracks = append(tracks, tracklist.Track{Timestamp: pendingGap})
			pendingGap = -1
		}
		tracks = append(tracks, trackFromMatch(result.Timestamp, result.Match))
		keyCopy := key
		lastKey = &keyCopy
	}
	if pendingGap >= 0 {
		tracks = append(tracks, tracklist.Track{Timestamp: pendingGap})
	}
	// A recording where nothing was ever identified still gets one
	// unidentified entry covering the whole file.
	if len(tracks) == 0 && len(results) > 0 {
		tracks = append(tracks, tracklist.Track{Timestamp: results[0].Timestamp})
	}
	return tracks
}

func trackFromMatch(timestamp int, match *recognize.Match) tracklist.Track {
	return tracklist.Track{
		Timestamp:      timestamp,
		Artist:         match.Artist,
		Title:          match.Title,
		ShazamURL:      match.ShazamURL,
		Album:          match.Album,
		ArtworkURL:     match.ArtworkURL,
		OriginalArtist: match.OriginalArtist,
		OriginalTitle:  match.OriginalTitle,
	}
}
