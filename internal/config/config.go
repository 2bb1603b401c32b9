package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// OutputDir receives tracklists, sidecars, and progress snapshots.
	// When empty, output lands next to each input recording.
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
}

// Sampling contains configuration for slicing recordings into windows.
type Sampling struct {
	SampleSeconds int  `toml:"sample_seconds"`
	DelaySeconds  int  `toml:"delay_seconds"`
	Resume        bool `toml:"resume"`
}

// Recognition contains configuration for the fingerprint recognition service.
type Recognition struct {
	BaseURL               string  `toml:"base_url"`
	TimeoutSeconds        int     `toml:"timeout_seconds"`
	MaxAttempts           int     `toml:"max_attempts"`
	InitialBackoffSeconds int     `toml:"initial_backoff_seconds"`
	BackoffMultiplier     float64 `toml:"backoff_multiplier"`
	JitterFraction        float64 `toml:"jitter_fraction"`
}

// Corrections contains configuration for the persistent correction store.
type Corrections struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Processing contains configuration for the audio processing pipeline.
type Processing struct {
	SilenceThresholdDB    float64 `toml:"silence_threshold_db"`
	SilenceDuration       float64 `toml:"silence_duration"`
	CompressorThresholdDB float64 `toml:"compressor_threshold_db"`
	CompressorRatio       float64 `toml:"compressor_ratio"`
	CompressorAttack      float64 `toml:"compressor_attack"`
	CompressorRelease     float64 `toml:"compressor_release"`
	TargetLoudness        float64 `toml:"target_loudness"`
	TruePeak              float64 `toml:"true_peak"`
	LoudnessRange         float64 `toml:"loudness_range"`
	Bitrate               string  `toml:"bitrate"`
	RemoveSilence         bool    `toml:"remove_silence"`
	ApplyCompression      bool    `toml:"apply_compression"`
	ApplyNormalization    bool    `toml:"apply_normalization"`
}

// Artwork contains configuration for chapter artwork fetching.
type Artwork struct {
	Enabled        bool   `toml:"enabled"`
	ITunesBaseURL  string `toml:"itunes_base_url"`
	ImageSize      int    `toml:"image_size"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for setlist.
//
// Configuration sections by subsystem:
//   - Paths: output and log directories
//   - Sampling: window length and inter-sample delay
//   - Recognition: fingerprint service endpoint and retry policy
//   - Corrections: learned correction store
//   - Processing: ffmpeg pipeline parameters
//   - Artwork: chapter artwork fetching
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Sampling    Sampling    `toml:"sampling"`
	Recognition Recognition `toml:"recognition"`
	Corrections Corrections `toml:"corrections"`
	Processing  Processing  `toml:"processing"`
	Artwork     Artwork     `toml:"artwork"`
	Logging     Logging     `toml:"logging"`
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. Missing files are not
// an error: defaults apply and exists reports false.
func Load(path string) (cfg *Config, resolvedPath string, exists bool, err error) {
	loaded := Default()

	resolvedPath, exists, err = resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&loaded); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loaded.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := loaded.Validate(); err != nil {
		return nil, "", false, err
	}

	return &loaded, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath := DefaultConfigPath()
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	for _, field := range []*string{&c.Paths.OutputDir, &c.Paths.LogDir, &c.Corrections.Path} {
		if strings.TrimSpace(*field) == "" {
			*field = ""
			continue
		}
		expanded, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}
	c.Recognition.BaseURL = strings.TrimSpace(c.Recognition.BaseURL)
	c.Artwork.ITunesBaseURL = strings.TrimSpace(c.Artwork.ITunesBaseURL)
	c.Processing.Bitrate = strings.TrimSpace(c.Processing.Bitrate)
	return nil
}

// EnsureDirectories creates the directories a run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Corrections.Path != "" {
		if err := os.MkdirAll(filepath.Dir(c.Corrections.Path), 0o755); err != nil {
			return fmt.Errorf("create corrections directory: %w", err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string { return "ffmpeg" }

// FFprobeBinary returns the ffprobe executable name.
func (c *Config) FFprobeBinary() string { return "ffprobe" }

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
