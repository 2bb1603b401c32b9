// Package corrections persists user edits to recognized artist/title
// pairs so future runs apply them automatically.
package corrections

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"setlist/internal/logging"
	"setlist/internal/textutil"
)

// Entry records one learned correction. The key fields keep the pair as
// the user originally saw it; Artist and Title are the corrected values.
type Entry struct {
	Artist         string    `json:"artist"`
	Title          string    `json:"title"`
	OriginalArtist string    `json:"original_artist"`
	OriginalTitle  string    `json:"original_title"`
	CorrectedAt    time.Time `json:"corrected_at"`
}

type document struct {
	Corrections map[string]Entry `json:"corrections"`
}

// Store provides thread-safe access to the correction file.
type Store struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewStore opens the correction store at path. If path is empty, the
// store is non-functional (all operations become no-ops). The file is
// created lazily on first Record call; an unreadable file starts the
// store empty with a warning rather than failing the run.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "corrections")

	s := &Store{
		path:    path,
		logger:  logger,
		entries: make(map[string]Entry),
	}
	if path == "" {
		return s
	}
	if err := s.load(); err != nil {
		logger.Warn("failed to load correction store, starting empty",
			logging.String("path", path),
			logging.Error(err))
	}
	return s
}

// makeKey builds the lookup key for an artist/title pair. Keys are
// case-folded and trimmed so re-recognized variants still hit.
func makeKey(artist, title string) string {
	return textutil.NormalizeKey(artist) + "|||" + textutil.NormalizeKey(title)
}

// Lookup returns the corrected pair for a recognized artist/title.
func (s *Store) Lookup(artist, title string) (string, string, bool) {
	if s.path == "" {
		return "", "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, found := s.entries[makeKey(artist, title)]
	if !found {
		return "", "", false
	}
	return entry.Artist, entry.Title, true
}

// Record stores a correction from the original pair to the corrected pair
// and persists it.
func (s *Store) Record(originalArtist, originalTitle, artist, title string) error {
	if strings.TrimSpace(artist) == "" && strings.TrimSpace(title) == "" {
		return errors.New("corrected pair cannot be empty")
	}
	if s.path == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := makeKey(originalArtist, originalTitle)
	s.entries[key] = Entry{
		Artist:         artist,
		Title:          title,
		OriginalArtist: originalArtist,
		OriginalTitle:  originalTitle,
		CorrectedAt:    time.Now(),
	}
	if err := s.save(); err != nil {
		return fmt.Errorf("persist corrections: %w", err)
	}

	s.logger.Debug("recorded correction",
		logging.String("from_artist", originalArtist),
		logging.String("from_title", originalTitle),
		logging.String("to_artist", artist),
		logging.String("to_title", title))
	return nil
}

// List returns all corrections sorted by CorrectedAt descending.
func (s *Store) List() []Entry {
	if s.path == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CorrectedAt.After(entries[j].CorrectedAt)
	})
	return entries
}

// Clear removes all corrections and persists the empty store.
func (s *Store) Clear() error {
	if s.path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]Entry)
	if err := s.save(); err != nil {
		return fmt.Errorf("persist corrections: %w", err)
	}
	s.logger.Debug("cleared correction store")
	return nil
}

// Count returns the number of stored corrections.
func (s *Store) Count() int {
	if s.path == "" {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// load reads the correction file into memory.
func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // fresh start
		}
		return fmt.Errorf("read correction file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse correction file: %w", err)
	}
	s.entries = make(map[string]Entry, len(doc.Corrections))
	for key, entry := range doc.Corrections {
		if strings.TrimSpace(key) != "" {
			s.entries[key] = entry
		}
	}

	s.logger.Debug("loaded correction store",
		logging.Int("entry_count", len(s.entries)),
		logging.String("path", s.path))
	return nil
}

// save writes the correction file atomically.
func (s *Store) save() error {
	data, err := json.MarshalIndent(document{Corrections: s.entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal corrections: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create correction directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath) // cleanup on failure
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
