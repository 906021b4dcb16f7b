package cli

import (
	"github.com/spf13/cobra"
)

func newProgressCmd(a *app) *cobra.Command {
	return storeCmd(&cobra.Command{
		Use:   "progress [exercise-id]",
		Short: "Show load progression",
		Long: `Without an argument, list the owner's progression records. With an exercise,
show its current load, next planned load and whether a deload is due.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.owner()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				records, err := a.coach.ListProgression(cmd.Context(), owner)
				if err != nil {
					return err
				}
				return a.print(records)
			}
			status, err := a.coach.GetProgression(cmd.Context(), owner, args[0])
			if err != nil {
				return err
			}
			return a.print(status)
		},
	})
}
