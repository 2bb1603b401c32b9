package main

import (
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"setlist/internal/artwork"
	"setlist/internal/chapters"
	"setlist/internal/media/ffprobe"
	"setlist/internal/tracklist"
)

func newChaptersCommand(ctx *commandContext) *cobra.Command {
	var audioPath string
	var noArtwork bool

	cmd := &cobra.Command{
		Use:   "chapters <tracklist.md>",
		Short: "Embed tracklist chapters into a processed MP3",
		Long: "Chapters reads a tracklist (markdown plus its JSON sidecar) and embeds " +
			"ID3v2 chapter markers into the MP3 given via --audio, with per-chapter " +
			"artwork and an episode cover when available.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if audioPath == "" {
				return errors.New("--audio is required")
			}
			if err := requireTools(cfg); err != nil {
				return err
			}
			logger := ctx.ensureLogger()

			list, err := loadTracklist(args[0])
			if err != nil {
				return err
			}
			active := list.Active()
			if len(active) == 0 {
				return fmt.Errorf("%s contains no tracks", args[0])
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			duration, err := ffprobe.NewProber(cfg.FFprobeBinary()).Duration(runCtx, audioPath)
			if err != nil {
				return err
			}

			var images map[int][]byte
			var cover []byte
			if cfg.Artwork.Enabled && !noArtwork {
				fetcher := artwork.NewFetcher(cfg.Artwork.ITunesBaseURL, cfg.Artwork.ImageSize, logger,
					artwork.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Artwork.TimeoutSeconds) * time.Second}))
				images = make(map[int][]byte)
				for i, track := range active {
					if track.IsUnidentified() {
						continue
					}
					if data := fetcher.Fetch(runCtx, track.Artist, track.Title, track.ArtworkURL); data != nil {
						images[i] = data
						if cover == nil {
							cover = data
						}
					}
				}
			}

			if err := chapters.Embed(audioPath, active, images, cover, int(duration*1000)); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Embedded %d chapters into %s", len(active), audioPath)
			if len(images) > 0 {
				fmt.Fprintf(out, " (%d with artwork)", len(images))
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&audioPath, "audio", "a", "", "Processed MP3 to embed chapters into")
	cmd.Flags().BoolVar(&noArtwork, "no-artwork", false, "Skip chapter and cover artwork")
	return cmd
}

// loadTracklist reads a markdown tracklist and overlays its sidecar when
// one exists, so edits made to the markdown win while sidecar-only fields
// survive.
func loadTracklist(markdownPath string) (*tracklist.Tracklist, error) {
	list, err := tracklist.ParseMarkdown(markdownPath)
	if err != nil {
		return nil, err
	}
	sidecar, err := tracklist.LoadSidecar(tracklist.SidecarPath(markdownPath))
	if err == nil {
		list.MergeSidecar(sidecar)
	}
	return list, nil
}
