package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".m4a":  true,
	".aac":  true,
	".ogg":  true,
	".aiff": true,
}

func isAudioFile(path string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(path))]
}

// collectAudioFiles expands the argument list into audio file paths.
// Directory arguments contribute their immediate audio files, sorted.
func collectAudioFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			if !isAudioFile(arg) {
				return nil, fmt.Errorf("%s is not a supported audio file", arg)
			}
			files = append(files, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("read directory %s: %w", arg, err)
		}
		var found []string
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(arg, entry.Name())
			if isAudioFile(path) {
				found = append(found, path)
			}
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("no audio files found in %s", arg)
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no audio files to process")
	}
	return files, nil
}
