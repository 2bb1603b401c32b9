package session_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"setlist/internal/recognize"
	"setlist/internal/sampler"
	"setlist/internal/session"
)

// fakeProber reports fixed durations per base name.
type fakeProber struct {
	durations map[string]float64
}

func (p *fakeProber) Duration(ctx context.Context, path string) (float64, error) {
	duration, ok := p.durations[filepath.Base(path)]
	if !ok {
		return 0, errors.New("probe failed: unknown file")
	}
	return duration, nil
}

// fakeExtractor encodes the window offset into the sample payload so the
// identifier can answer per offset. Offsets in failAt return errors.
type fakeExtractor struct {
	failAt map[int]bool
	calls  int
}

func (e *fakeExtractor) Extract(ctx context.Context, path string, window sampler.Window) ([]byte, error) {
	e.calls++
	if e.failAt[window.Start] {
		return nil, errors.New("ffmpeg extract: boom")
	}
	return []byte(strconv.Itoa(window.Start)), nil
}

// fakeIdentifier maps sample payloads (window offsets) to matches.
type fakeIdentifier struct {
	matches map[int]*recognize.Match
	calls   int
}

func (f *fakeIdentifier) Identify(ctx context.Context, sample []byte) (*recognize.Match, error) {
	f.calls++
	offset, err := strconv.Atoi(string(sample))
	if err != nil {
		return nil, fmt.Errorf("bad sample payload %q", sample)
	}
	return f.matches[offset], nil
}

func glue() *recognize.Match { return &recognize.Match{Artist: "Bicep", Title: "Glue"} }
func soUKno() *recognize.Match {
	return &recognize.Match{Artist: "Overmono", Title: "So U Kno"}
}

func newRunner(t *testing.T, identifier recognize.Service, extractor session.SampleExtractor, outputDir string) *session.Runner {
	t.Helper()
	prober := &fakeProber{durations: map[string]float64{"set.wav": 180}}
	opts := session.Options{SampleSeconds: 30, DelaySeconds: 0, Resume: true, OutputDir: outputDir}
	return session.NewRunner(prober, extractor, identifier, nil, opts, nil)
}

func standardMatches() map[int]*recognize.Match {
	return map[int]*recognize.Match{
		0:   glue(),
		30:  glue(),
		60:  glue(),
		90:  soUKno(),
		120: soUKno(),
		150: nil,
	}
}

func TestProcessFileWritesOutputsAndCleansProgress(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "set.wav")
	identifier := &fakeIdentifier{matches: standardMatches()}
	runner := newRunner(t, identifier, &fakeExtractor{}, dir)

	list, paths, err := runner.ProcessFile(context.Background(), audioPath)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if identifier.calls != 6 {
		t.Errorf("identifier calls = %d, want 6", identifier.calls)
	}
	// Two distinct tracks plus the trailing unidentified stretch.
	if len(list.Tracks) != 3 {
		t.Fatalf("tracks = %+v", list.Tracks)
	}
	if list.Tracks[0].Artist != "Bicep" || list.Tracks[1].Artist != "Overmono" {
		t.Errorf("tracks = %+v", list.Tracks)
	}
	if !list.Tracks[2].IsUnidentified() || list.Tracks[2].Timestamp != 150 {
		t.Errorf("trailing gap = %+v", list.Tracks[2])
	}

	if _, err := os.Stat(paths.Markdown); err != nil {
		t.Errorf("markdown not written: %v", err)
	}
	if _, err := os.Stat(paths.Sidecar); err != nil {
		t.Errorf("sidecar not written: %v", err)
	}
	if _, err := os.Stat(paths.Progress); !os.IsNotExist(err) {
		t.Errorf("progress snapshot should be deleted, stat err = %v", err)
	}
}

func TestProcessFileResumeMatchesUninterruptedRun(t *testing.T) {
	ctxBg := context.Background()

	// Reference run with no interruption.
	refDir := t.TempDir()
	refRunner := newRunner(t, &fakeIdentifier{matches: standardMatches()}, &fakeExtractor{}, refDir)
	refList, _, err := refRunner.ProcessFile(ctxBg, filepath.Join(refDir, "set.wav"))
	if err != nil {
		t.Fatalf("reference run: %v", err)
	}

	// Interrupted run: seed a snapshot covering the first three windows.
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "set.wav")
	paths := session.PathsFor(audioPath, dir)
	seed := []recognize.Result{
		{Timestamp: 0, Match: glue()},
		{Timestamp: 30, Match: glue()},
		{Timestamp: 60, Match: glue()},
	}
	if err := session.SaveProgress(paths.Progress, seed); err != nil {
		t.Fatal(err)
	}

	identifier := &fakeIdentifier{matches: standardMatches()}
	runner := newRunner(t, identifier, &fakeExtractor{}, dir)
	list, _, err := runner.ProcessFile(ctxBg, audioPath)
	if err != nil {
		t.Fatalf("resumed run: %v", err)
	}
	if identifier.calls != 3 {
		t.Errorf("resumed run should only identify remaining windows, calls = %d", identifier.calls)
	}
	if len(list.Tracks) != len(refList.Tracks) {
		t.Fatalf("resumed tracks = %+v, reference = %+v", list.Tracks, refList.Tracks)
	}
	for i := range list.Tracks {
		if list.Tracks[i].Timestamp != refList.Tracks[i].Timestamp ||
			list.Tracks[i].Artist != refList.Tracks[i].Artist ||
			list.Tracks[i].Title != refList.Tracks[i].Title {
			t.Errorf("track[%d] = %+v, reference %+v", i, list.Tracks[i], refList.Tracks[i])
		}
	}
}

func TestProcessFileCorruptSnapshotStartsOver(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "set.wav")
	paths := session.PathsFor(audioPath, dir)
	if err := os.WriteFile(paths.Progress, []byte("{corrupt"), 0o644); err != nil {
		t.Fatal(err)
	}

	identifier := &fakeIdentifier{matches: standardMatches()}
	runner := newRunner(t, identifier, &fakeExtractor{}, dir)
	if _, _, err := runner.ProcessFile(context.Background(), audioPath); err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if identifier.calls != 6 {
		t.Errorf("corrupt snapshot should restart the run, calls = %d", identifier.calls)
	}
}

func TestProcessFileExtractionFailureBecomesUnmatched(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "set.wav")
	extractor := &fakeExtractor{failAt: map[int]bool{90: true, 120: true}}
	identifier := &fakeIdentifier{matches: standardMatches()}
	runner := newRunner(t, identifier, extractor, dir)

	list, _, err := runner.ProcessFile(context.Background(), audioPath)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if identifier.calls != 4 {
		t.Errorf("failed extractions should not reach the identifier, calls = %d", identifier.calls)
	}
	for _, track := range list.Tracks {
		if track.Artist == "Overmono" {
			t.Errorf("track from failed windows should be absent: %+v", list.Tracks)
		}
	}
}

func TestProcessBatchContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	prober := &fakeProber{durations: map[string]float64{"good.wav": 60}}
	identifier := &fakeIdentifier{matches: map[int]*recognize.Match{0: glue(), 30: glue()}}
	opts := session.Options{SampleSeconds: 30, Resume: true, OutputDir: dir}
	runner := session.NewRunner(prober, &fakeExtractor{}, identifier, nil, opts, nil)

	outcomes, err := runner.ProcessBatch(context.Background(), []string{
		filepath.Join(dir, "broken.wav"),
		filepath.Join(dir, "good.wav"),
	})
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("outcomes = %+v", outcomes)
	}
	if outcomes[0].Err == nil {
		t.Error("broken file should report an error")
	}
	if outcomes[1].Err != nil || outcomes[1].Tracklist == nil {
		t.Errorf("good file should succeed: %+v", outcomes[1])
	}
}

func TestProcessBatchStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner := newRunner(t, &fakeIdentifier{}, &fakeExtractor{}, t.TempDir())
	if _, err := runner.ProcessBatch(ctx, []string{"a.wav", "b.wav"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestPathsFor(t *testing.T) {
	paths := session.PathsFor("/music/friday night.wav", "")
	if paths.Markdown != "/music/friday night_tracklist.md" {
		t.Errorf("markdown = %q", paths.Markdown)
	}
	if paths.Sidecar != "/music/friday night_tracklist.json" {
		t.Errorf("sidecar = %q", paths.Sidecar)
	}
	if paths.Progress != "/music/friday night_progress.json" {
		t.Errorf("progress = %q", paths.Progress)
	}

	out := session.PathsFor("/music/set.wav", "/out")
	if !strings.HasPrefix(out.Markdown, "/out/") {
		t.Errorf("output dir not honored: %q", out.Markdown)
	}
}

func TestProgressRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "set_progress.json")
	results := []recognize.Result{
		{Timestamp: 0, Match: glue()},
		{Timestamp: 30},
	}
	if err := session.SaveProgress(path, results); err != nil {
		t.Fatalf("SaveProgress: %v", err)
	}
	loaded, err := session.LoadProgress(path)
	if err != nil {
		t.Fatalf("LoadProgress: %v", err)
	}
	if len(loaded) != 2 || loaded[0].Match == nil || loaded[1].Match != nil {
		t.Fatalf("loaded = %+v", loaded)
	}
	if err := session.RemoveProgress(path); err != nil {
		t.Fatalf("RemoveProgress: %v", err)
	}
	if loaded, err := session.LoadProgress(path); err != nil || loaded != nil {
		t.Fatalf("after removal: %v %v", loaded, err)
	}
	// Removing twice is fine.
	if err := session.RemoveProgress(path); err != nil {
		t.Fatalf("second RemoveProgress: %v", err)
	}
}
