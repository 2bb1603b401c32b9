package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	defaultSampleSeconds         = 30
	defaultDelaySeconds          = 15
	defaultRecognitionTimeout    = 30
	defaultMaxAttempts           = 5
	defaultInitialBackoffSeconds = 30
	defaultBackoffMultiplier     = 2.0
	defaultJitterFraction        = 0.1

	defaultSilenceThresholdDB    = -50.0
	defaultSilenceDuration       = 0.1
	defaultCompressorThresholdDB = -18.0
	defaultCompressorRatio       = 3.0
	defaultCompressorAttack      = 20.0
	defaultCompressorRelease     = 250.0
	defaultTargetLoudness        = -16.0
	defaultTruePeak              = -1.5
	defaultLoudnessRange         = 11.0
	defaultBitrate               = "192k"

	defaultITunesBaseURL        = "https://itunes.apple.com/search"
	defaultArtworkImageSize     = 600
	defaultArtworkTimeoutSecond = 15

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "setlist", "config.toml")
}

// DefaultCorrectionsPath returns the default correction store location.
func DefaultCorrectionsPath() string {
	return filepath.Join(xdg.ConfigHome, "setlist", "corrections.json")
}

func defaultLogDir() string {
	return filepath.Join(xdg.DataHome, "setlist", "logs")
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir(),
		},
		Sampling: Sampling{
			SampleSeconds: defaultSampleSeconds,
			DelaySeconds:  defaultDelaySeconds,
			Resume:        true,
		},
		Recognition: Recognition{
			TimeoutSeconds:        defaultRecognitionTimeout,
			MaxAttempts:           defaultMaxAttempts,
			InitialBackoffSeconds: defaultInitialBackoffSeconds,
			BackoffMultiplier:     defaultBackoffMultiplier,
			JitterFraction:        defaultJitterFraction,
		},
		Corrections: Corrections{
			Enabled: true,
			Path:    DefaultCorrectionsPath(),
		},
		Processing: Processing{
			SilenceThresholdDB:    defaultSilenceThresholdDB,
			SilenceDuration:       defaultSilenceDuration,
			CompressorThresholdDB: defaultCompressorThresholdDB,
			CompressorRatio:       defaultCompressorRatio,
			CompressorAttack:      defaultCompressorAttack,
			CompressorRelease:     defaultCompressorRelease,
			TargetLoudness:        defaultTargetLoudness,
			TruePeak:              defaultTruePeak,
			LoudnessRange:         defaultLoudnessRange,
			Bitrate:               defaultBitrate,
			RemoveSilence:         true,
			ApplyCompression:      true,
			ApplyNormalization:    true,
		},
		Artwork: Artwork{
			Enabled:        true,
			ITunesBaseURL:  defaultITunesBaseURL,
			ImageSize:      defaultArtworkImageSize,
			TimeoutSeconds: defaultArtworkTimeoutSecond,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
