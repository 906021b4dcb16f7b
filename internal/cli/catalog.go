package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

func newCatalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse the exercise catalog",
	}

	var level, category, exerciseType string
	list := &cobra.Command{
		Use:   "list",
		Short: "List exercises available at a level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exercises, err := a.backend.Catalog().Query(cmd.Context(), types.Level(level), category, types.ExerciseType(exerciseType))
			if err != nil {
				return err
			}
			return a.print(exercises)
		},
	}
	f := list.Flags()
	f.StringVar(&level, "level", string(types.LevelAdvanced), "highest exercise level to include")
	f.StringVar(&category, "category", "", "muscle category filter")
	f.StringVar(&exerciseType, "type", "", "multi, uni or analytic")
	cmd.AddCommand(storeCmd(list))
	return cmd
}
