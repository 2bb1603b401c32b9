package main

import (
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"setlist/internal/config"
	"setlist/internal/corrections"
	"setlist/internal/media/ffmpeg"
	"setlist/internal/media/ffprobe"
	"setlist/internal/recognize"
	"setlist/internal/reconcile"
	"setlist/internal/session"
)

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	var noResume bool
	var noCorrections bool

	cmd := &cobra.Command{
		Use:   "identify <audio-file|directory>...",
		Short: "Identify the tracks in one or more recordings",
		Long: "Identify slices each recording into recognition windows, submits them " +
			"to the configured recognition gateway, and writes a markdown tracklist " +
			"plus a JSON sidecar next to each recording (or into --output).",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Recognition.BaseURL == "" {
				return errors.New("recognition.base_url is not configured (run: setlist config init)")
			}
			if err := requireTools(cfg); err != nil {
				return err
			}
			files, err := collectAudioFiles(args)
			if err != nil {
				return err
			}

			dir := outputDir
			if dir == "" {
				dir = cfg.Paths.OutputDir
			}
			runner, err := newSessionRunner(ctx, cfg, dir, cfg.Sampling.Resume && !noResume, !noCorrections)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			outcomes, err := runner.ProcessBatch(runCtx, files)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := 0
			rows := make([][]string, 0, len(outcomes))
			for _, outcome := range outcomes {
				if outcome.Err != nil {
					failed++
					rows = append(rows, []string{outcome.AudioPath, "-", "-", "failed: " + outcome.Err.Error()})
					continue
				}
				rows = append(rows, []string{
					outcome.AudioPath,
					strconv.Itoa(len(outcome.Tracklist.Tracks)),
					strconv.Itoa(len(outcome.Tracklist.Identified())),
					outcome.Paths.Markdown,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Recording", "Tracks", "Identified", "Result"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
			))
			if failed > 0 {
				return fmt.Errorf("%d of %d recordings failed", failed, len(outcomes))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for tracklists and sidecars")
	cmd.Flags().BoolVar(&noResume, "no-resume", false, "Ignore progress snapshots and start over")
	cmd.Flags().BoolVar(&noCorrections, "no-corrections", false, "Skip the learned correction pass")
	return cmd
}

// newSessionRunner wires the recognition stack for an identification run.
// Shared with the process command's --identify chaining.
func newSessionRunner(ctx *commandContext, cfg *config.Config, outputDir string, resume, useCorrections bool) (*session.Runner, error) {
	logger := ctx.ensureLogger()

	client, err := recognize.NewClient(cfg.Recognition.BaseURL,
		recognize.WithTimeout(time.Duration(cfg.Recognition.TimeoutSeconds)*time.Second))
	if err != nil {
		return nil, err
	}
	identifier := recognize.NewAdapter(client, recognize.RetryPolicy{
		MaxAttempts:    cfg.Recognition.MaxAttempts,
		InitialBackoff: time.Duration(cfg.Recognition.InitialBackoffSeconds) * time.Second,
		Multiplier:     cfg.Recognition.BackoffMultiplier,
		JitterFraction: cfg.Recognition.JitterFraction,
	}, logger)

	var corrector reconcile.Corrector
	if cfg.Corrections.Enabled && useCorrections {
		corrector = corrections.NewStore(cfg.Corrections.Path, logger)
	}

	return session.NewRunner(
		ffprobe.NewProber(cfg.FFprobeBinary()),
		ffmpeg.NewSampleCutter(cfg.FFmpegBinary()),
		identifier,
		corrector,
		session.Options{
			SampleSeconds: cfg.Sampling.SampleSeconds,
			DelaySeconds:  cfg.Sampling.DelaySeconds,
			Resume:        resume,
			OutputDir:     outputDir,
		},
		logger,
	), nil
}
