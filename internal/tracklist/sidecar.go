package tracklist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"setlist/internal/services"
)

// sidecarTrack is the JSON shape of one track in the sidecar document.
type sidecarTrack struct {
	Timestamp      int     `json:"timestamp"`
	Artist         string  `json:"artist"`
	Title          string  `json:"title"`
	ShazamURL      string  `json:"shazam_url,omitempty"`
	Album          string  `json:"album,omitempty"`
	ArtworkURL     string  `json:"coverart_url,omitempty"`
	OriginalArtist *string `json:"original_artist,omitempty"`
	OriginalTitle  *string `json:"original_title,omitempty"`
}

type sidecarDocument struct {
	SourceFile  string         `json:"source_file"`
	GeneratedOn time.Time      `json:"generated_on"`
	Tracks      []sidecarTrack `json:"tracks"`
}

// SidecarPath returns the sidecar location for a markdown tracklist path.
func SidecarPath(markdownPath string) string {
	base := markdownPath[:len(markdownPath)-len(filepath.Ext(markdownPath))]
	return base + ".json"
}

// WriteSidecar stores the non-rejected tracks with the fields the
// markdown rendering cannot carry, next to the markdown document.
// Rejected tracks are omitted the same way the markdown omits them.
func (l *Tracklist) WriteSidecar(path string) error {
	active := l.Active()
	doc := sidecarDocument{
		SourceFile:  l.SourceFile,
		GeneratedOn: l.GeneratedOn,
		Tracks:      make([]sidecarTrack, 0, len(active)),
	}
	for _, track := range active {
		doc.Tracks = append(doc.Tracks, sidecarTrack{
			Timestamp:      track.Timestamp,
			Artist:         track.Artist,
			Title:          track.Title,
			ShazamURL:      track.ShazamURL,
			Album:          track.Album,
			ArtworkURL:     track.ArtworkURL,
			OriginalArtist: track.OriginalArtist,
			OriginalTitle:  track.OriginalTitle,
		})
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrTransient, "tracklist", "sidecar", "encode sidecar", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "tracklist", "sidecar", "create output directory", err)
	}
	if err := os.WriteFile(path, append(payload, '\n'), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "tracklist", "sidecar", "write sidecar", err)
	}
	return nil
}

// LoadSidecar reads a sidecar document into a Tracklist.
func LoadSidecar(path string) (*Tracklist, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "tracklist", "sidecar", fmt.Sprintf("open %s", path), err)
		}
		return nil, services.Wrap(services.ErrTransient, "tracklist", "sidecar", "read sidecar", err)
	}
	var doc sidecarDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, services.Wrap(services.ErrValidation, "tracklist", "sidecar", "decode sidecar", err)
	}
	list := &Tracklist{
		SourceFile:  doc.SourceFile,
		GeneratedOn: doc.GeneratedOn,
		Tracks:      make([]Track, 0, len(doc.Tracks)),
	}
	for _, track := range doc.Tracks {
		list.Tracks = append(list.Tracks, Track{
			Timestamp:      track.Timestamp,
			Artist:         track.Artist,
			Title:          track.Title,
			ShazamURL:      track.ShazamURL,
			Album:          track.Album,
			ArtworkURL:     track.ArtworkURL,
			OriginalArtist: track.OriginalArtist,
			OriginalTitle:  track.OriginalTitle,
		})
	}
	return list, nil
}

// MergeSidecar overlays the sidecar's extended fields onto a tracklist
// that was re-parsed from markdown. Tracks are matched by timestamp, so
// hand edits that renumber or remove markdown entries still pick up the
// right metadata. When the markdown pair differs from the sidecar pair,
// the markdown values win and the sidecar values are preserved as the
// originals.
func (l *Tracklist) MergeSidecar(sidecar *Tracklist) {
	byTimestamp := make(map[int]Track, len(sidecar.Tracks))
	for _, track := range sidecar.Tracks {
		byTimestamp[track.Timestamp] = track
	}
	for i := range l.Tracks {
		stored, ok := byTimestamp[l.Tracks[i].Timestamp]
		if !ok {
			continue
		}
		edited := l.Tracks[i]
		merged := stored
		if edited.Artist != stored.Artist || edited.Title != stored.Title {
			merged.Rename(edited.Artist, edited.Title)
		}
		l.Tracks[i] = merged
	}
	if l.SourceFile == "" {
		l.SourceFile = sidecar.SourceFile
	}
}
