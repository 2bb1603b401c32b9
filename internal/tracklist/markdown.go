package tracklist

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"setlist/internal/services"
)

const generatedOnLayout = "2006-01-02 15:04:05"

var (
	matchedLineRe      = regexp.MustCompile(`^\d+\.\s+\*\*(.+)\*\*\s+-\s+(.+?)\s+\((\d+:\d{2}(?::\d{2})?)\)\s*$`)
	unidentifiedLineRe = regexp.MustCompile(`^\d+\.\s+\*Unidentified\*\s+\((\d+:\d{2}(?::\d{2})?)\)\s*$`)
	titleLineRe        = regexp.MustCompile(`^#\s+Tracklist:\s+(.+?)\s*$`)
	generatedLineRe    = regexp.MustCompile(`^\*Generated on (.+?)\*\s*$`)
)

// ToMarkdown renders the tracklist in the exported document format.
// Rejected tracks are omitted and the remaining entries are renumbered
// densely from 1.
func (l *Tracklist) ToMarkdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Tracklist: %s\n\n", l.SourceFile)
	fmt.Fprintf(&b, "*Generated on %s*\n\n", l.GeneratedOn.Format(generatedOnLayout))
	position := 0
	for _, track := range l.Active() {
		position++
		if track.IsUnidentified() {
			fmt.Fprintf(&b, "%d. *Unidentified* (%s)\n", position, track.TimeString())
			continue
		}
		fmt.Fprintf(&b, "%d. **%s** - %s (%s)\n", position, track.Artist, track.Title, track.TimeString())
	}
	return b.String()
}

// WriteMarkdown writes the rendered tracklist to path.
func (l *Tracklist) WriteMarkdown(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "tracklist", "write", "create output directory", err)
	}
	if err := os.WriteFile(path, []byte(l.ToMarkdown()), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "tracklist", "write", "write markdown", err)
	}
	return nil
}

// ParseMarkdown reads a tracklist document back into a Tracklist. Lines
// that match neither the matched nor the unidentified entry shape are
// ignored, so hand-edited notes between entries do not break parsing.
func ParseMarkdown(path string) (*Tracklist, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "tracklist", "parse", fmt.Sprintf("open %s", path), err)
	}
	defer file.Close()

	list := &Tracklist{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if m := titleLineRe.FindStringSubmatch(line); m != nil {
			list.SourceFile = m[1]
			continue
		}
		if m := generatedLineRe.FindStringSubmatch(line); m != nil {
			if ts, err := time.ParseInLocation(generatedOnLayout, m[1], time.Local); err == nil {
				list.GeneratedOn = ts
			}
			continue
		}
		if m := unidentifiedLineRe.FindStringSubmatch(line); m != nil {
			seconds, err := ParseTimestamp(m[1])
			if err != nil {
				return nil, services.Wrap(services.ErrValidation, "tracklist", "parse", err.Error(), nil)
			}
			list.Tracks = append(list.Tracks, Track{Timestamp: seconds})
			continue
		}
		if m := matchedLineRe.FindStringSubmatch(line); m != nil {
			seconds, err := ParseTimestamp(m[3])
			if err != nil {
				return nil, services.Wrap(services.ErrValidation, "tracklist", "parse", err.Error(), nil)
			}
			list.Tracks = append(list.Tracks, Track{
				Timestamp: seconds,
				Artist:    m[1],
				Title:     m[2],
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, services.Wrap(services.ErrTransient, "tracklist", "parse", "read markdown", err)
	}
	return list, nil
}
