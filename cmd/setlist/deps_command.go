package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"setlist/internal/config"
	"setlist/internal/deps"
	"setlist/internal/services"
)

// requireTools fails a run up front when the external binaries it needs
// are not on PATH, pointing the user at the deps command.
func requireTools(cfg *config.Config) error {
	missing := deps.MissingRequired(deps.CheckBinaries(deps.Default(cfg)))
	if len(missing) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "deps", "preflight",
		fmt.Sprintf("missing required tools: %s (run: setlist deps)", strings.Join(missing, ", ")), nil)
}

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check the external tools setlist depends on",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := deps.CheckBinaries(deps.Default(cfg))

			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				state := "ok"
				if !status.Available {
					state = status.Detail
				}
				rows = append(rows, []string{status.Name, status.Command, status.Description, state})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Dependency", "Command", "Purpose", "Status"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("missing required dependencies: %s", strings.Join(missing, ", "))
			}
			return nil
		},
	}
}
