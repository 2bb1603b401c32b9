package ffmpeg

import (
	"strings"
	"testing"

	"setlist/internal/config"
)

func TestBuildFilterChainFull(t *testing.T) {
	cfg := config.Default().Processing
	chain := BuildFilterChain(cfg)

	want := "silenceremove=start_periods=1:start_threshold=-50dB:start_duration=0.1," +
		"acompressor=threshold=-18dB:ratio=3:attack=20:release=250," +
		"loudnorm=I=-16:TP=-1.5:LRA=11"
	if chain != want {
		t.Errorf("chain = %q\nwant  %q", chain, want)
	}
}

func TestBuildFilterChainSkipsDisabledStages(t *testing.T) {
	cfg := config.Default().Processing
	cfg.RemoveSilence = false
	cfg.ApplyCompression = false
	chain := BuildFilterChain(cfg)
	if strings.Contains(chain, "silenceremove") || strings.Contains(chain, "acompressor") {
		t.Errorf("disabled stages present: %q", chain)
	}
	if !strings.HasPrefix(chain, "loudnorm=") {
		t.Errorf("chain = %q", chain)
	}

	cfg.ApplyNormalization = false
	if chain := BuildFilterChain(cfg); chain != "" {
		t.Errorf("all stages disabled should yield empty chain, got %q", chain)
	}
}

func TestConcatFileContent(t *testing.T) {
	content := ConcatFileContent([]string{
		"/music/part one.wav",
		"/music/dj's set.wav",
	})
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if lines[0] != "file '/music/part one.wav'" {
		t.Errorf("line[0] = %q", lines[0])
	}
	if lines[1] != `file '/music/dj'\''s set.wav'` {
		t.Errorf("quote escaping wrong: %q", lines[1])
	}
}

func TestParseLoudnessReport(t *testing.T) {
	transcript := `
[Parsed_loudnorm_0 @ 0x5555]
{
	"input_i" : "-23.47",
	"input_tp" : "-4.12",
	"input_lra" : "9.80",
	"input_thresh" : "-33.77",
	"output_i" : "-16.00",
	"normalization_type" : "dynamic",
	"target_offset" : "0.25"
}
size=N/A time=01:30:00.00 bitrate=N/A speed= 142x
`
	stats, err := ParseLoudnessReport(transcript)
	if err != nil {
		t.Fatalf("ParseLoudnessReport: %v", err)
	}
	if stats.IntegratedLoudness != -23.47 {
		t.Errorf("integrated = %v", stats.IntegratedLoudness)
	}
	if stats.TruePeak != -4.12 {
		t.Errorf("true peak = %v", stats.TruePeak)
	}
	if stats.LoudnessRange != 9.8 {
		t.Errorf("lra = %v", stats.LoudnessRange)
	}
}

func TestParseLoudnessReportMissingBlock(t *testing.T) {
	if _, err := ParseLoudnessReport("size=N/A time=00:00:10.00"); err == nil {
		t.Fatal("expected error when no JSON block present")
	}
}
