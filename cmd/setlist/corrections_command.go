package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"setlist/internal/corrections"
	"setlist/internal/tracklist"
)

func newCorrectionsCommand(ctx *commandContext) *cobra.Command {
	correctionsCmd := &cobra.Command{
		Use:   "corrections",
		Short: "Manage learned artist/title corrections",
	}
	correctionsCmd.AddCommand(newCorrectionsListCommand(ctx))
	correctionsCmd.AddCommand(newCorrectionsLearnCommand(ctx))
	correctionsCmd.AddCommand(newCorrectionsClearCommand(ctx))
	return correctionsCmd
}

func (c *commandContext) openCorrections() (*corrections.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Corrections.Enabled {
		return nil, fmt.Errorf("corrections are disabled in configuration")
	}
	return corrections.NewStore(cfg.Corrections.Path, c.ensureLogger()), nil
}

func newCorrectionsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show all learned corrections",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCorrections()
			if err != nil {
				return err
			}
			entries := store.List()
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No corrections recorded yet.")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.OriginalArtist + " - " + entry.OriginalTitle,
					entry.Artist + " - " + entry.Title,
					entry.CorrectedAt.Format("2006-01-02"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Recognized As", "Corrected To", "Learned"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newCorrectionsLearnCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "learn <tracklist.md>",
		Short: "Learn corrections from an edited tracklist",
		Long: "Learn re-reads a tracklist whose markdown was edited by hand, compares " +
			"each entry against the originally recognized pair stored in the sidecar, " +
			"and records every change for future runs.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCorrections()
			if err != nil {
				return err
			}
			list, err := loadTracklist(args[0])
			if err != nil {
				return err
			}

			learned, err := store.LearnFrom(list)
			if err != nil {
				return err
			}
			// Persist the merged view so originals survive further edits.
			if err := list.WriteSidecar(tracklist.SidecarPath(args[0])); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Learned %d correction(s) from %s\n", learned, args[0])
			return nil
		},
	}
}

func newCorrectionsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all learned corrections",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCorrections()
			if err != nil {
				return err
			}
			count := store.Count()
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d correction(s)\n", count)
			return nil
		},
	}
}
