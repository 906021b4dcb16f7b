package cli

import (
	"github.com/spf13/cobra"
)

func newCleanupCmd(a *app) *cobra.Command {
	return storeCmd(&cobra.Command{
		Use:   "cleanup",
		Short: "Run one sweep over stale and inconsistent sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.coach.RunCleanupSweep(cmd.Context())
			if report != nil {
				if perr := a.print(report); perr != nil {
					return perr
				}
			}
			return err
		},
	})
}
