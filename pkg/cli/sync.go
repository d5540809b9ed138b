package cli

import (
	"fmt"

	"github.com/flaboy/aira-books/pkg/database"
	"github.com/flaboy/aira-books/pkg/models"
	"github.com/flaboy/aira-books/pkg/syncer"
	"github.com/spf13/cobra"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	TeamID uint
	All    bool
}

func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync recent orders into Xero",
		Long: `Fetch recent orders from the connected store and reconcile them into
Xero as contacts, items, invoices and payments. Runs for one team with
--team, or for every team with a store connection with --all.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.All == (opts.TeamID != 0) {
				return fmt.Errorf("exactly one of --team or --all is required")
			}
			engine, _, err := setup(opts.RootOptions)
			if err != nil {
				return err
			}
			if opts.All {
				return syncAllTeams(cmd, engine)
			}
			return syncTeam(cmd, engine, opts.TeamID)
		},
	}

	cmd.Flags().UintVar(&opts.TeamID, "team", 0, "team to sync")
	cmd.Flags().BoolVar(&opts.All, "all", false, "sync every connected team")

	return cmd
}

func syncTeam(cmd *cobra.Command, engine *syncer.Syncer, teamID uint) error {
	run, err := engine.Run(cmd.Context(), teamID)
	if err != nil {
		return err
	}
	cmd.Printf("run %d: %s, %d orders, %d invoices created, %d failed\n",
		run.ID, run.Status, run.TotalOrders, run.SuccessfulInvoices, run.FailedInvoices)
	return nil
}

// syncAllTeams runs every connected team in turn. One team's failure does
// not stop the rest; the command fails if any team failed.
func syncAllTeams(cmd *cobra.Command, engine *syncer.Syncer) error {
	var teamIDs []uint
	err := database.Database().
		Model(&models.SourceConnection{}).
		Distinct("team_id").
		Order("team_id").
		Pluck("team_id", &teamIDs).Error
	if err != nil {
		return err
	}
	if len(teamIDs) == 0 {
		cmd.Println("no teams with a store connection")
		return nil
	}

	failures := 0
	for _, teamID := range teamIDs {
		if err := syncTeam(cmd, engine, teamID); err != nil {
			cmd.PrintErrf("team %d: %v\n", teamID, err)
			failures++
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d teams failed", failures, len(teamIDs))
	}
	return nil
}
