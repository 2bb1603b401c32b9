package tracklist

import "time"

// Tracklist is the reconciled output for one recording.
type Tracklist struct {
	SourceFile  string
	GeneratedOn time.Time
	Tracks      []Track
}

// Active returns the tracks that are not rejected, in order.
func (l *Tracklist) Active() []Track {
	active := make([]Track, 0, len(l.Tracks))
	for _, track := range l.Tracks {
		if !track.Rejected {
			active = append(active, track)
		}
	}
	return active
}

// Identified returns the active tracks that carry an identification.
func (l *Tracklist) Identified() []Track {
	identified := make([]Track, 0, len(l.Tracks))
	for _, track := range l.Active() {
		if !track.IsUnidentified() {
			identified = append(identified, track)
		}
	}
	return identified
}
