package tracklist_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"setlist/internal/tracklist"
)

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{60, "1:00"},
		{754, "12:34"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{4330, "1:12:10"},
		{36930, "10:15:30"},
	}
	for _, tc := range cases {
		if got := tracklist.FormatTimestamp(tc.seconds); got != tc.want {
			t.Errorf("FormatTimestamp(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		value   string
		want    int
		wantErr bool
	}{
		{"0:00", 0, false},
		{"12:34", 754, false},
		{"1:00:00", 3600, false},
		{"1:12:10", 4330, false},
		{"90", 0, true},
		{"1:2:3:4", 0, true},
		{"a:bc", 0, true},
	}
	for _, tc := range cases {
		got, err := tracklist.ParseTimestamp(tc.value)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseTimestamp(%q) expected error", tc.value)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimestamp(%q) returned error: %v", tc.value, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseTimestamp(%q) = %d, want %d", tc.value, got, tc.want)
		}
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	for _, seconds := range []int{0, 1, 59, 60, 61, 3599, 3600, 3661, 7199, 86399} {
		formatted := tracklist.FormatTimestamp(seconds)
		parsed, err := tracklist.ParseTimestamp(formatted)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", formatted, err)
		}
		if parsed != seconds {
			t.Errorf("round trip %d -> %q -> %d", seconds, formatted, parsed)
		}
	}
}

func TestRenamePreservesOriginals(t *testing.T) {
	track := tracklist.Track{Artist: "Unknwon Artist", Title: "Sme Title"}
	track.Rename("Known Artist", "Some Title")
	track.Rename("Known Artist", "Some Title (Remix)")

	if track.OriginalArtist == nil || *track.OriginalArtist != "Unknwon Artist" {
		t.Errorf("OriginalArtist = %v, want first pre-edit value", track.OriginalArtist)
	}
	if track.OriginalTitle == nil || *track.OriginalTitle != "Sme Title" {
		t.Errorf("OriginalTitle = %v, want first pre-edit value", track.OriginalTitle)
	}
	if !track.WasCorrected() {
		t.Error("WasCorrected should report true after rename")
	}
}

func sampleList() *tracklist.Tracklist {
	return &tracklist.Tracklist{
		SourceFile:  "friday_night_set.wav",
		GeneratedOn: time.Date(2025, 6, 14, 22, 30, 0, 0, time.Local),
		Tracks: []tracklist.Track{
			{Timestamp: 0, Artist: "Bicep", Title: "Glue", ShazamURL: "https://shazam.example/glue", Album: "Bicep"},
			{Timestamp: 270},
			{Timestamp: 540, Artist: "Overmono", Title: "So U Kno", Rejected: true},
			{Timestamp: 3900, Artist: "Four Tet", Title: "Baby"},
		},
	}
}

func TestToMarkdownRenumbersAroundRejected(t *testing.T) {
	rendered := sampleList().ToMarkdown()

	wantLines := []string{
		"# Tracklist: friday_night_set.wav",
		"*Generated on 2025-06-14 22:30:00*",
		"1. **Bicep** - Glue (0:00)",
		"2. *Unidentified* (4:30)",
		"3. **Four Tet** - Baby (1:05:00)",
	}
	for _, line := range wantLines {
		if !strings.Contains(rendered, line+"\n") {
			t.Errorf("markdown missing line %q:\n%s", line, rendered)
		}
	}
	if strings.Contains(rendered, "Overmono") {
		t.Errorf("rejected track should not be rendered:\n%s", rendered)
	}
}

func TestMarkdownRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "set.md")
	list := sampleList()
	if err := list.WriteMarkdown(path); err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}

	parsed, err := tracklist.ParseMarkdown(path)
	if err != nil {
		t.Fatalf("ParseMarkdown: %v", err)
	}
	if parsed.SourceFile != "friday_night_set.wav" {
		t.Errorf("SourceFile = %q", parsed.SourceFile)
	}
	if !parsed.GeneratedOn.Equal(list.GeneratedOn) {
		t.Errorf("GeneratedOn = %v, want %v", parsed.GeneratedOn, list.GeneratedOn)
	}
	if len(parsed.Tracks) != 3 {
		t.Fatalf("parsed %d tracks, want 3 (rejected omitted)", len(parsed.Tracks))
	}
	if parsed.Tracks[0].Artist != "Bicep" || parsed.Tracks[0].Timestamp != 0 {
		t.Errorf("first track = %+v", parsed.Tracks[0])
	}
	if !parsed.Tracks[1].IsUnidentified() || parsed.Tracks[1].Timestamp != 270 {
		t.Errorf("second track should be unidentified at 270s, got %+v", parsed.Tracks[1])
	}
	if parsed.Tracks[2].Timestamp != 3900 {
		t.Errorf("third track timestamp = %d, want 3900", parsed.Tracks[2].Timestamp)
	}
}

func TestParseMarkdownSkipsForeignLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "set.md")
	content := "# Tracklist: set.wav\n\nsome stray note\n\n1. **A** - B (0:30)\n\n- not an entry\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	parsed, err := tracklist.ParseMarkdown(path)
	if err != nil {
		t.Fatalf("ParseMarkdown: %v", err)
	}
	if len(parsed.Tracks) != 1 {
		t.Fatalf("parsed %d tracks, want 1", len(parsed.Tracks))
	}
}

func TestSidecarRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := tracklist.SidecarPath(filepath.Join(dir, "set.md"))
	if !strings.HasSuffix(path, "set.json") {
		t.Fatalf("SidecarPath = %q", path)
	}

	list := sampleList()
	list.Tracks[3].Rename("Four Tet", "Baby (Edit)")
	if err := list.WriteSidecar(path); err != nil {
		t.Fatalf("WriteSidecar: %v", err)
	}

	loaded, err := tracklist.LoadSidecar(path)
	if err != nil {
		t.Fatalf("LoadSidecar: %v", err)
	}
	if len(loaded.Tracks) != 3 {
		t.Fatalf("loaded %d tracks, want 3 (rejected omitted)", len(loaded.Tracks))
	}
	for _, track := range loaded.Tracks {
		if track.Artist == "Overmono" {
			t.Errorf("rejected track should not be exported: %+v", loaded.Tracks)
		}
	}
	if loaded.Tracks[0].ShazamURL != "https://shazam.example/glue" {
		t.Errorf("shazam url lost: %+v", loaded.Tracks[0])
	}
	if loaded.Tracks[2].OriginalTitle == nil || *loaded.Tracks[2].OriginalTitle != "Baby" {
		t.Errorf("original title lost: %+v", loaded.Tracks[2])
	}
}

func TestMergeSidecarMatchesByTimestamp(t *testing.T) {
	stored := sampleList()

	// Re-parsed markdown: rejected track absent, last track edited.
	edited := &tracklist.Tracklist{
		SourceFile: "friday_night_set.wav",
		Tracks: []tracklist.Track{
			{Timestamp: 0, Artist: "Bicep", Title: "Glue"},
			{Timestamp: 270},
			{Timestamp: 3900, Artist: "Four Tet", Title: "Baby (VIP)"},
		},
	}
	edited.MergeSidecar(stored)

	if edited.Tracks[0].ShazamURL != "https://shazam.example/glue" {
		t.Errorf("metadata not merged onto first track: %+v", edited.Tracks[0])
	}
	last := edited.Tracks[2]
	if last.Title != "Baby (VIP)" {
		t.Errorf("edited title should win, got %q", last.Title)
	}
	if last.OriginalTitle == nil || *last.OriginalTitle != "Baby" {
		t.Errorf("original title should come from sidecar, got %v", last.OriginalTitle)
	}
}

func TestLoadSidecarMissing(t *testing.T) {
	if _, err := tracklist.LoadSidecar(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing sidecar")
	}
}
