package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSampling(); err != nil {
		return err
	}
	if err := c.validateRecognition(); err != nil {
		return err
	}
	if err := c.validateProcessing(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSampling() error {
	if c.Sampling.SampleSeconds <= 0 {
		return fmt.Errorf("sampling.sample_seconds must be positive, got %d", c.Sampling.SampleSeconds)
	}
	if c.Sampling.DelaySeconds < 0 {
		return fmt.Errorf("sampling.delay_seconds must not be negative, got %d", c.Sampling.DelaySeconds)
	}
	return nil
}

func (c *Config) validateRecognition() error {
	if c.Recognition.BaseURL != "" {
		parsed, err := url.Parse(c.Recognition.BaseURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("recognition.base_url %q is not a valid URL", c.Recognition.BaseURL)
		}
	}
	if c.Recognition.MaxAttempts < 1 {
		return fmt.Errorf("recognition.max_attempts must be at least 1, got %d", c.Recognition.MaxAttempts)
	}
	if c.Recognition.InitialBackoffSeconds < 0 {
		return fmt.Errorf("recognition.initial_backoff_seconds must not be negative, got %d", c.Recognition.InitialBackoffSeconds)
	}
	if c.Recognition.BackoffMultiplier < 1 {
		return fmt.Errorf("recognition.backoff_multiplier must be at least 1, got %g", c.Recognition.BackoffMultiplier)
	}
	if c.Recognition.JitterFraction < 0 || c.Recognition.JitterFraction > 1 {
		return fmt.Errorf("recognition.jitter_fraction must be within [0,1], got %g", c.Recognition.JitterFraction)
	}
	return nil
}

func (c *Config) validateProcessing() error {
	if strings.TrimSpace(c.Processing.Bitrate) == "" {
		return fmt.Errorf("processing.bitrate must not be empty")
	}
	if c.Processing.CompressorRatio <= 0 {
		return fmt.Errorf("processing.compressor_ratio must be positive, got %g", c.Processing.CompressorRatio)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
