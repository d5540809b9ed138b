package cli

import (
	"fmt"
	"os"

	"github.com/flaboy/aira-books/pkg/database"
	"github.com/flaboy/aira-books/pkg/report"
	"github.com/spf13/cobra"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	TeamID uint
	Output string
}

func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "export",
		Short:         "Export a team's sync run history as xlsx",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := setup(opts.RootOptions); err != nil {
				return err
			}

			file, err := os.Create(opts.Output)
			if err != nil {
				return err
			}
			defer file.Close()

			if err := report.Export(database.Database(), opts.TeamID, file); err != nil {
				os.Remove(opts.Output)
				return fmt.Errorf("export failed: %w", err)
			}
			cmd.Printf("wrote %s\n", opts.Output)
			return nil
		},
	}

	cmd.Flags().UintVar(&opts.TeamID, "team", 0, "team to export")
	cmd.Flags().StringVarP(&opts.Output, "out", "o", "sync-runs.xlsx", "output file")
	_ = cmd.MarkFlagRequired("team")

	return cmd
}
