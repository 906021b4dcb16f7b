package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cyclecoach/internal/coach"
	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

func storeCmd(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationStore] = "true"
	return cmd
}

func newPlanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate and manage training plans",
	}
	cmd.AddCommand(
		newPlanGenerateCmd(a),
		newPlanConfirmCmd(a),
		newPlanCancelCmd(a),
		newPlanShowCmd(a),
		newPlanListCmd(a),
	)
	return cmd
}

func newPlanGenerateCmd(a *app) *cobra.Command {
	var (
		level, sex, start string
		priority          []string
		microcycles       int
		noCalibration     bool
		saturday          bool
		seed              int64
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a draft plan",
		Long: `Generate a draft plan for the owner's level. The plan is stored with every
scheduled session and exercise; confirm it to start training.

Example:
  coach plan generate --level beginner --start next_monday
  coach plan generate --level intermediate --microcycles 8 --no-calibration --priority chest,back`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.owner()
			if err != nil {
				return err
			}
			req := coach.GenerateRequest{
				OwnerID:          owner,
				Level:            types.Level(level),
				Sex:              types.Sex(sex),
				PriorityMuscles:  priority,
				TotalMicrocycles: microcycles,
				StartDate:        start,
				IncludeSaturday:  saturday,
				Seed:             seed,
			}
			if noCalibration {
				calibrate := false
				req.IncludeCalibration = &calibrate
			}
			view, err := a.coach.GeneratePlan(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.print(view)
		},
	}
	f := cmd.Flags()
	f.StringVar(&level, "level", "", "training level: beginner, intermediate or advanced")
	f.StringVar(&sex, "sex", "", "male or female; female shortens isolation rest")
	f.StringSliceVar(&priority, "priority", nil, "muscle categories to prioritize on heavy days")
	f.IntVar(&microcycles, "microcycles", 0, "main-cycle microcycles (default: by level)")
	f.BoolVar(&noCalibration, "no-calibration", false, "skip the leading calibration microcycle")
	f.StringVar(&start, "start", "", "start date YYYY-MM-DD, today or next_monday (default: no dates)")
	f.BoolVar(&saturday, "saturday", false, "allow one Saturday when starting on a Thursday")
	f.Int64Var(&seed, "seed", 0, "exercise selection seed (default: config)")
	_ = cmd.MarkFlagRequired("level")
	return storeCmd(cmd)
}

func newPlanConfirmCmd(a *app) *cobra.Command {
	return storeCmd(&cobra.Command{
		Use:   "confirm <plan-id>",
		Short: "Activate a draft plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.owner()
			if err != nil {
				return err
			}
			view, err := a.coach.ConfirmPlan(cmd.Context(), owner, args[0])
			if err != nil {
				return err
			}
			return a.print(view.Plan)
		},
	})
}

func newPlanCancelCmd(a *app) *cobra.Command {
	return storeCmd(&cobra.Command{
		Use:   "cancel <plan-id>",
		Short: "Cancel a plan and its open sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.owner()
			if err != nil {
				return err
			}
			view, err := a.coach.CancelPlan(cmd.Context(), owner, args[0])
			if err != nil {
				return err
			}
			return a.print(view.Plan)
		},
	})
}

func newPlanShowCmd(a *app) *cobra.Command {
	return storeCmd(&cobra.Command{
		Use:   "show <plan-id>",
		Short: "Show a plan with its sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.owner()
			if err != nil {
				return err
			}
			view, err := a.coach.GetPlan(cmd.Context(), owner, args[0])
			if err != nil {
				return err
			}
			return a.print(view)
		},
	})
}

func newPlanListCmd(a *app) *cobra.Command {
	return storeCmd(&cobra.Command{
		Use:   "list",
		Short: "List the owner's plans, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.owner()
			if err != nil {
				return err
			}
			plans, err := a.coach.ListPlans(cmd.Context(), owner)
			if err != nil {
				return err
			}
			return a.print(plans)
		},
	})
}
