package session

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"setlist/internal/logging"
	"setlist/internal/recognize"
	"setlist/internal/reconcile"
	"setlist/internal/sampler"
	"setlist/internal/services"
	"setlist/internal/tracklist"
)

// DurationProber reports a recording's length in seconds.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// SampleExtractor cuts one recognition window out of a recording.
type SampleExtractor interface {
	Extract(ctx context.Context, path string, window sampler.Window) ([]byte, error)
}

// Options configures a Runner.
type Options struct {
	// SampleSeconds is the recognition window length.
	SampleSeconds int
	// DelaySeconds paces sample submissions; zero disables pacing.
	DelaySeconds int
	// Resume picks up interrupted runs from their progress snapshot.
	Resume bool
	// OutputDir overrides where artifacts are written; empty means next
	// to each recording.
	OutputDir string
}

// Runner executes identification runs over one or more recordings.
type Runner struct {
	prober     DurationProber
	extractor  SampleExtractor
	identifier recognize.Service
	corrector  reconcile.Corrector
	opts       Options
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewRunner assembles a Runner. corrector may be nil to skip the
// correction pass.
func NewRunner(prober DurationProber, extractor SampleExtractor, identifier recognize.Service, corrector reconcile.Corrector, opts Options, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.SampleSeconds <= 0 {
		opts.SampleSeconds = 30
	}
	pace := rate.Inf
	if opts.DelaySeconds > 0 {
		pace = rate.Every(time.Duration(opts.DelaySeconds) * time.Second)
	}
	return &Runner{
		prober:     prober,
		extractor:  extractor,
		identifier: identifier,
		corrector:  corrector,
		opts:       opts,
		limiter:    rate.NewLimiter(pace, 1),
		logger:     logging.NewComponentLogger(logger, "session"),
	}
}

// ProcessFile identifies one recording end to end and writes its
// markdown tracklist and sidecar. The progress snapshot is deleted once
// both outputs are written.
func (r *Runner) ProcessFile(ctx context.Context, audioPath string) (*tracklist.Tracklist, OutputPaths, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	ctx = services.WithSource(ctx, filepath.Base(audioPath))
	logger := logging.WithContext(ctx, r.logger)

	paths := PathsFor(audioPath, r.opts.OutputDir)

	duration, err := r.prober.Duration(ctx, audioPath)
	if err != nil {
		return nil, paths, services.Wrap(services.ErrExternalTool, "session", "probe", fmt.Sprintf("probe %s", audioPath), err)
	}
	windows := sampler.Slice(duration, r.opts.SampleSeconds)
	if len(windows) == 0 {
		return nil, paths, services.Wrap(services.ErrValidation, "session", "probe", fmt.Sprintf("%s is too short to sample", audioPath), nil)
	}

	results := r.resumeResults(paths.Progress, len(windows), logger)
	logger.Info("starting identification run",
		logging.Float64("duration_seconds", duration),
		logging.Int("windows", len(windows)),
		logging.Int("resumed", len(results)))

	for i := len(results); i < len(windows); i++ {
		window := windows[i]
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, paths, err
		}

		result := recognize.Result{Timestamp: window.Start}
		sample, err := r.extractor.Extract(ctx, audioPath, window)
		if err != nil {
			if ctx.Err() != nil {
				return nil, paths, ctx.Err()
			}
			logger.Warn("sample extraction failed, treating as unmatched",
				logging.Int("offset_seconds", window.Start),
				logging.Error(err))
		} else {
			match, err := r.identifier.Identify(ctx, sample)
			if err != nil {
				return nil, paths, err
			}
			result.Match = match
		}

		if result.Match != nil {
			logger.Info("sample identified",
				logging.Int("offset_seconds", window.Start),
				logging.String("artist", result.Match.Artist),
				logging.String("title", result.Match.Title))
		} else {
			logger.Debug("sample not identified", logging.Int("offset_seconds", window.Start))
		}

		results = append(results, result)
		if err := SaveProgress(paths.Progress, results); err != nil {
			return nil, paths, err
		}
	}

	list := reconcile.Build(results, filepath.Base(audioPath), r.corrector)
	if err := list.WriteMarkdown(paths.Markdown); err != nil {
		return nil, paths, err
	}
	if err := list.WriteSidecar(paths.Sidecar); err != nil {
		return nil, paths, err
	}
	if err := RemoveProgress(paths.Progress); err != nil {
		return nil, paths, err
	}

	logger.Info("identification run complete",
		logging.Int("tracks", len(list.Tracks)),
		logging.String("tracklist", paths.Markdown))
	return list, paths, nil
}

// resumeResults loads the prior snapshot when resuming is enabled. A
// corrupt snapshot starts the run over rather than failing it.
func (r *Runner) resumeResults(progressPath string, totalWindows int, logger *slog.Logger) []recognize.Result {
	if !r.opts.Resume {
		return nil
	}
	results, err := LoadProgress(progressPath)
	if err != nil {
		logger.Warn("progress snapshot unreadable, starting over", logging.Error(err))
		return nil
	}
	if len(results) > totalWindows {
		logger.Warn("progress snapshot longer than plan, starting over",
			logging.Int("snapshot", len(results)),
			logging.Int("windows", totalWindows))
		return nil
	}
	return results
}

// Outcome reports one recording's result within a batch.
type Outcome struct {
	AudioPath string
	Tracklist *tracklist.Tracklist
	Paths     OutputPaths
	Err       error
}

// ProcessBatch identifies each recording in sequence. A failing file is
// reported in its Outcome and does not stop the rest of the batch;
// context cancellation does.
func (r *Runner) ProcessBatch(ctx context.Context, audioPaths []string) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(audioPaths))
	for _, audioPath := range audioPaths {
		if ctx.Err() != nil {
			return outcomes, ctx.Err()
		}
		list, paths, err := r.ProcessFile(ctx, audioPath)
		if err != nil {
			if ctx.Err() != nil {
				return outcomes, ctx.Err()
			}
			r.logger.Error("recording failed, continuing batch",
				logging.String("source", audioPath),
				logging.Error(err))
		}
		outcomes = append(outcomes, Outcome{AudioPath: audioPath, Tracklist: list, Paths: paths, Err: err})
	}
	return outcomes, nil
}
