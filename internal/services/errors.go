// Package services provides the shared error taxonomy and context
// annotations used across the setlist pipeline.
package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrExternalTool marks failures of external binaries (ffmpeg, ffprobe).
	ErrExternalTool = errors.New("external tool error")
	// ErrValidation marks bad input data (no tracks, missing audio file).
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable configuration; aborts the invocation.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks missing files or lookups with no result.
	ErrNotFound = errors.New("not found")
	// ErrTransient marks failures worth retrying or downgrading.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFileFatal reports whether an error should abort processing of the
// current file while letting the batch continue with the remaining files.
// Configuration errors are never file-scoped; they abort the invocation.
func IsFileFatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrConfiguration)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
