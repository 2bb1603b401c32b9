package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"setlist/internal/sampler"
)

// SampleCutter extracts recognition windows from a recording as MP3
// payloads suitable for fingerprint submission. Cutting goes through
// stdout so no temp files accumulate across a long run.
type SampleCutter struct {
	binary string
}

// NewSampleCutter returns a SampleCutter using the given binary, or
// "ffmpeg" when empty.
func NewSampleCutter(binary string) *SampleCutter {
	return &SampleCutter{binary: binary}
}

// Extract cuts the window from the recording at path and returns the
// encoded sample bytes.
func (c *SampleCutter) Extract(ctx context.Context, path string, window sampler.Window) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("ffmpeg extract: empty path")
	}
	if window.Duration < 1 {
		return nil, fmt.Errorf("ffmpeg extract: window duration %d too short", window.Duration)
	}
	binary := c.binary
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}

	args := []string{
		"-hide_banner", "-v", "error",
		"-ss", strconv.Itoa(window.Start),
		"-t", strconv.Itoa(window.Duration),
		"-i", path,
		"-c:a", "libmp3lame",
		"-b:a", "128k",
		"-f", "mp3",
		"pipe:1",
	}
	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg extract: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg extract: empty sample at %ds", window.Start)
	}
	return stdout.Bytes(), nil
}
