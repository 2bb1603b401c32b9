// Package sampler plans the fixed-interval recognition windows over a
// recording.
package sampler

import "time"

// Window is one stretch of audio submitted for recognition.
type Window struct {
	// Start is the window offset in seconds from the beginning of the
	// recording.
	Start int
	// Duration is the window length in seconds. The final window may be
	// shorter than the configured size when the recording does not divide
	// evenly.
	Duration int
}

// StartDuration returns the window offset as a time.Duration.
func (w Window) StartDuration() time.Duration {
	return time.Duration(w.Start) * time.Second
}

// Slice plans back-to-back windows of windowSeconds covering the whole
// recording. A trailing remainder shorter than the window size still gets
// its own window; stretches shorter than one second are skipped since the
// recognition service cannot fingerprint them.
func Slice(totalSeconds float64, windowSeconds int) []Window {
	if totalSeconds <= 0 || windowSeconds <= 0 {
		return nil
	}
	total := int(totalSeconds)
	windows := make([]Window, 0, total/windowSeconds+1)
	for start := 0; start < total; start += windowSeconds {
		duration := windowSeconds
		if start+duration > total {
			duration = total - start
		}
		if duration < 1 {
			break
		}
		windows = append(windows, Window{Start: start, Duration: duration})
	}
	return windows
}
