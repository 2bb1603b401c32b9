package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"setlist/internal/media/ffmpeg"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var bitrate string
	var noSilenceRemoval bool
	var noCompression bool
	var noNormalization bool
	var analyze bool
	var identifyAfter bool

	cmd := &cobra.Command{
		Use:   "process <audio-file>...",
		Short: "Master recordings into a single podcast-ready MP3",
		Long: "Process joins the given recordings in order, trims leading silence, " +
			"applies gentle compression and loudness normalization, and encodes a " +
			"constant-bitrate MP3.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if identifyAfter && cfg.Recognition.BaseURL == "" {
				return errors.New("recognition.base_url is not configured (run: setlist config init)")
			}
			if err := requireTools(cfg); err != nil {
				return err
			}
			files, err := collectAudioFiles(args)
			if err != nil {
				return err
			}

			processing := cfg.Processing
			if bitrate != "" {
				processing.Bitrate = bitrate
			}
			if noSilenceRemoval {
				processing.RemoveSilence = false
			}
			if noCompression {
				processing.ApplyCompression = false
			}
			if noNormalization {
				processing.ApplyNormalization = false
			}

			target := strings.TrimSpace(outputPath)
			if target == "" {
				first := files[0]
				base := strings.TrimSuffix(first, filepath.Ext(first))
				target = base + "_processed.mp3"
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			processor := ffmpeg.NewProcessor(cfg.FFmpegBinary())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Processing %d file(s) -> %s\n", len(files), target)
			if err := processor.Process(runCtx, files, target, processing); err != nil {
				return err
			}

			if info, err := os.Stat(target); err == nil {
				fmt.Fprintf(out, "Wrote %s (%s)\n", target, humanize.Bytes(uint64(info.Size())))
			} else {
				fmt.Fprintf(out, "Wrote %s\n", target)
			}

			if analyze {
				stats, err := processor.AnalyzeLoudness(runCtx, target)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Loudness: %.1f LUFS, true peak %.1f dBTP, range %.1f LU\n",
					stats.IntegratedLoudness, stats.TruePeak, stats.LoudnessRange)
			}

			if identifyAfter {
				runner, err := newSessionRunner(ctx, cfg, cfg.Paths.OutputDir, cfg.Sampling.Resume, true)
				if err != nil {
					return err
				}
				list, paths, err := runner.ProcessFile(runCtx, target)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Tracklist: %s (%d tracks)\n", paths.Markdown, len(list.Tracks))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output MP3 path (default: <first input>_processed.mp3)")
	cmd.Flags().StringVar(&bitrate, "bitrate", "", "Output bitrate, e.g. 192k")
	cmd.Flags().BoolVar(&noSilenceRemoval, "no-silence-removal", false, "Keep leading silence")
	cmd.Flags().BoolVar(&noCompression, "no-compression", false, "Skip the compressor stage")
	cmd.Flags().BoolVar(&noNormalization, "no-normalization", false, "Skip loudness normalization")
	cmd.Flags().BoolVar(&analyze, "analyze", false, "Measure loudness of the result")
	cmd.Flags().BoolVar(&identifyAfter, "identify", false, "Run track identification on the processed file")
	return cmd
}
