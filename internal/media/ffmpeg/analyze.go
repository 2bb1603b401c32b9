package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// LoudnessStats holds the measured loudness of a processed file.
type LoudnessStats struct {
	IntegratedLoudness float64 // LUFS
	TruePeak           float64 // dBTP
	LoudnessRange      float64 // LU
}

// loudnorm prints its JSON report to stderr between the regular log
// lines.
var loudnormJSONRe = regexp.MustCompile(`(?s)\{[^}]+\}`)

// AnalyzeLoudness runs a read-only loudnorm pass and parses the measured
// stats from ffmpeg's stderr.
func (p *Processor) AnalyzeLoudness(ctx context.Context, path string) (LoudnessStats, error) {
	args := []string{
		"-hide_banner",
		"-i", path,
		"-af", "loudnorm=print_format=json",
		"-f", "null", "-",
	}
	cmd := exec.CommandContext(ctx, p.binaryName(), args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return LoudnessStats{}, fmt.Errorf("ffmpeg analyze: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return ParseLoudnessReport(stderr.String())
}

// ParseLoudnessReport extracts the loudnorm JSON block from an ffmpeg
// stderr transcript.
func ParseLoudnessReport(transcript string) (LoudnessStats, error) {
	block := loudnormJSONRe.FindString(transcript)
	if block == "" {
		return LoudnessStats{}, fmt.Errorf("ffmpeg analyze: no loudnorm report found")
	}
	var raw map[string]string
	if err := json.Unmarshal([]byte(block), &raw); err != nil {
		return LoudnessStats{}, fmt.Errorf("ffmpeg analyze: parse loudnorm report: %w", err)
	}
	return LoudnessStats{
		IntegratedLoudness: parseStat(raw["input_i"]),
		TruePeak:           parseStat(raw["input_tp"]),
		LoudnessRange:      parseStat(raw["input_lra"]),
	}, nil
}

func parseStat(value string) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return parsed
}
