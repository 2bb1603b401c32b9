// Package ffmpeg wraps the ffmpeg binary for sample extraction, the
// mastering pipeline, and loudness analysis.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"setlist/internal/config"
)

// BuildFilterChain assembles the -af argument for the mastering pipeline:
// leading-silence removal, gentle compression, then loudness
// normalization. Disabled stages are skipped; an empty string means no
// filtering at all.
func BuildFilterChain(cfg config.Processing) string {
	var filters []string
	if cfg.RemoveSilence {
		filters = append(filters, fmt.Sprintf(
			"silenceremove=start_periods=1:start_threshold=%gdB:start_duration=%g",
			cfg.SilenceThresholdDB, cfg.SilenceDuration))
	}
	if cfg.ApplyCompression {
		filters = append(filters, fmt.Sprintf(
			"acompressor=threshold=%gdB:ratio=%g:attack=%g:release=%g",
			cfg.CompressorThresholdDB, cfg.CompressorRatio, cfg.CompressorAttack, cfg.CompressorRelease))
	}
	if cfg.ApplyNormalization {
		filters = append(filters, fmt.Sprintf(
			"loudnorm=I=%g:TP=%g:LRA=%g",
			cfg.TargetLoudness, cfg.TruePeak, cfg.LoudnessRange))
	}
	return strings.Join(filters, ",")
}

// ConcatFileContent renders the concat demuxer input listing the files in
// order. Single quotes in paths are escaped the way the demuxer expects.
func ConcatFileContent(inputs []string) string {
	var b strings.Builder
	for _, input := range inputs {
		escaped := strings.ReplaceAll(input, "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}
	return b.String()
}

// Processor runs the mastering pipeline with a configurable ffmpeg
// binary.
type Processor struct {
	binary string
}

// NewProcessor returns a Processor using the given binary, or "ffmpeg"
// when empty.
func NewProcessor(binary string) *Processor {
	return &Processor{binary: binary}
}

func (p *Processor) binaryName() string {
	if strings.TrimSpace(p.binary) == "" {
		return "ffmpeg"
	}
	return p.binary
}

// Process joins the inputs in order, applies the filter chain, and writes
// a constant-bitrate MP3 to outputPath.
func (p *Processor) Process(ctx context.Context, inputs []string, outputPath string, cfg config.Processing) error {
	if len(inputs) == 0 {
		return errors.New("ffmpeg process: no input files")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("ffmpeg process: create output directory: %w", err)
	}

	args := []string{"-y", "-hide_banner", "-v", "error"}
	var cleanup func()
	if len(inputs) == 1 {
		args = append(args, "-i", inputs[0])
	} else {
		concatPath, err := writeConcatFile(inputs)
		if err != nil {
			return err
		}
		cleanup = func() { os.Remove(concatPath) }
		args = append(args, "-f", "concat", "-safe", "0", "-i", concatPath)
	}
	if cleanup != nil {
		defer cleanup()
	}

	if chain := BuildFilterChain(cfg); chain != "" {
		args = append(args, "-af", chain)
	}
	args = append(args, "-c:a", "libmp3lame", "-b:a", cfg.Bitrate, outputPath)

	cmd := exec.CommandContext(ctx, p.binaryName(), args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg process: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func writeConcatFile(inputs []string) (string, error) {
	file, err := os.CreateTemp("", "setlist-concat-*.txt")
	if err != nil {
		return "", fmt.Errorf("ffmpeg process: create concat file: %w", err)
	}
	defer file.Close()
	if _, err := file.WriteString(ConcatFileContent(inputs)); err != nil {
		os.Remove(file.Name())
		return "", fmt.Errorf("ffmpeg process: write concat file: %w", err)
	}
	return file.Name(), nil
}
