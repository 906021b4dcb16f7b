package cli

import (
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	return storeCmd(&cobra.Command{
		Use:   "export <dir>",
		Short: "Write the owner's plans, sessions and logs as JSONL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.owner()
			if err != nil {
				return err
			}
			summary, err := a.coach.ExportOwner(cmd.Context(), owner, args[0])
			if err != nil {
				return err
			}
			return a.print(summary)
		},
	})
}
