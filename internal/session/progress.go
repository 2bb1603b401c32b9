// Package session drives identification runs: slicing a recording,
// submitting samples at a polite pace, snapshotting progress so a run can
// resume, and writing the reconciled outputs.
package session

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"setlist/internal/recognize"
	"setlist/internal/services"
)

// OutputPaths are the artifacts of one recording's run.
type OutputPaths struct {
	Markdown string
	Sidecar  string
	Progress string
}

// PathsFor derives the output locations for a recording. An empty
// outputDir puts everything next to the recording.
func PathsFor(audioPath, outputDir string) OutputPaths {
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	dir := outputDir
	if dir == "" {
		dir = filepath.Dir(audioPath)
	}
	markdown := filepath.Join(dir, base+"_tracklist.md")
	return OutputPaths{
		Markdown: markdown,
		Sidecar:  filepath.Join(dir, base+"_tracklist.json"),
		Progress: filepath.Join(dir, base+"_progress.json"),
	}
}

// SaveProgress snapshots the results gathered so far. The snapshot is
// rewritten after every sample, so the write is atomic to keep a crash
// from destroying the previous snapshot.
func SaveProgress(path string, results []recognize.Result) error {
	payload, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrTransient, "session", "progress", "encode progress", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "session", "progress", "create output directory", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, payload, 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "session", "progress", "write progress", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return services.Wrap(services.ErrTransient, "session", "progress", "rename progress", err)
	}
	return nil
}

// LoadProgress reads a progress snapshot. A missing file returns an empty
// result set; an unreadable or corrupt file returns an error so the
// caller can decide whether to start over.
func LoadProgress(path string) ([]recognize.Result, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrTransient, "session", "progress", "read progress", err)
	}
	var results []recognize.Result
	if err := json.Unmarshal(payload, &results); err != nil {
		return nil, services.Wrap(services.ErrValidation, "session", "progress", "decode progress", err)
	}
	return results, nil
}

// RemoveProgress deletes the snapshot after a run completes.
func RemoveProgress(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return services.Wrap(services.ErrTransient, "session", "progress", "remove progress", err)
	}
	return nil
}
