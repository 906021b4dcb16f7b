package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cyclecoach/internal/adaptation"
	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

func newAdaptationCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "adaptation",
		Aliases: []string{"adapt"},
		Short:   "Track the pre-cycle adaptation block",
	}
	cmd.AddCommand(
		newAdaptationCreateCmd(a),
		newAdaptationWorkoutCmd(a),
		newAdaptationEvaluateCmd(a),
		newAdaptationWeekCmd(a),
		newAdaptationFlagCmd(a),
		newAdaptationStatusCmd(a),
		newAdaptationTransitionCmd(a),
	)
	return cmd
}

func newAdaptationCreateCmd(a *app) *cobra.Command {
	var (
		blockType string
		weeks     int
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open an adaptation block",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.owner()
			if err != nil {
				return err
			}
			st, err := a.coach.CreateAdaptationBlock(cmd.Context(), adaptation.CreateRequest{
				OwnerID:       owner,
				BlockType:     types.BlockType(blockType),
				DurationWeeks: weeks,
			})
			if err != nil {
				return err
			}
			return a.print(st)
		},
	}
	cmd.Flags().StringVar(&blockType, "type", string(types.BlockFullBody), "full_body or half_body")
	cmd.Flags().IntVar(&weeks, "weeks", 0, "planned weeks (default: the type's maximum)")
	return storeCmd(cmd)
}

func newAdaptationWorkoutCmd(a *app) *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "workout",
		Short: "Log a finished adaptation session",
		Long: `Log one adaptation session against the current week. Each --set is
exercise:weight:reps:rir.

Example:
  coach adaptation workout --set goblet_squat:20:12:3 --set db_press:14:12:3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.owner()
			if err != nil {
				return err
			}
			req := adaptation.WorkoutRequest{OwnerID: owner}
			for _, v := range sets {
				set, err := parseAdaptationSet(v)
				if err != nil {
					return err
				}
				req.Sets = append(req.Sets, set)
			}
			w, err := a.coach.LogAdaptationWorkout(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.print(w)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "exercise:weight:reps:rir, repeatable")
	_ = cmd.MarkFlagRequired("set")
	return storeCmd(cmd)
}

// parseAdaptationSet reads exercise:weight:reps:rir.
func parseAdaptationSet(v string) (types.AdaptationSet, error) {
	parts := strings.Split(v, ":")
	if len(parts) != 4 {
		return types.AdaptationSet{}, fmt.Errorf("%w: set %q is not exercise:weight:reps:rir", types.ErrValidation, v)
	}
	weight, werr := strconv.ParseFloat(parts[1], 64)
	reps, rerr := strconv.Atoi(parts[2])
	rir, ierr := strconv.Atoi(parts[3])
	if werr != nil || rerr != nil || ierr != nil {
		return types.AdaptationSet{}, fmt.Errorf("%w: set %q has a non-numeric field", types.ErrValidation, v)
	}
	return types.AdaptationSet{ExerciseID: parts[0], Weight: weight, Reps: reps, RIR: rir}, nil
}

func newAdaptationEvaluateCmd(a *app) *cobra.Command {
	return storeCmd(&cobra.Command{
		Use:   "evaluate",
		Short: "Record the current week from its logged workouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.owner()
			if err != nil {
				return err
			}
			st, err := a.coach.EvaluateAdaptationWeek(cmd.Context(), owner)
			if err != nil {
				return err
			}
			return a.print(st)
		},
	})
}

func newAdaptationWeekCmd(a *app) *cobra.Command {
	var in adaptation.WeekInput
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Record the measurements of a finished week",
		Long: `Record one week of the open block and re-evaluate the transition criteria.

Example:
  coach adaptation week --completed 4 --rir 3 --initial-load 40 --load 44`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.owner()
			if err != nil {
				return err
			}
			in.OwnerID = owner
			st, err := a.coach.RecordAdaptationWeek(cmd.Context(), in)
			if err != nil {
				return err
			}
			return a.print(st)
		},
	}
	f := cmd.Flags()
	f.IntVar(&in.SessionsPlanned, "planned", 0, "sessions planned (default: the phase's days per week)")
	f.IntVar(&in.SessionsCompleted, "completed", 0, "sessions completed")
	f.Float64Var(&in.MeanRIR, "rir", 0, "mean reps in reserve over the week")
	f.IntVar(&in.TechniqueFlags, "flags", 0, "technique flags not already recorded")
	f.Float64Var(&in.InitialLoad, "initial-load", 0, "average load at the start of the week, kg")
	f.Float64Var(&in.AverageLoad, "load", 0, "average working load over the week, kg")
	_ = cmd.MarkFlagRequired("completed")
	return storeCmd(cmd)
}

func newAdaptationFlagCmd(a *app) *cobra.Command {
	var req adaptation.FlagRequest
	var severity string
	cmd := &cobra.Command{
		Use:   "flag",
		Short: "Record a technique flag against the current week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.owner()
			if err != nil {
				return err
			}
			req.OwnerID = owner
			req.Severity = types.Severity(severity)
			flag, err := a.coach.FlagTechnique(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.print(flag)
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.ExerciseID, "exercise", "", "exercise the flag applies to")
	f.StringVar(&severity, "severity", string(types.SeverityModerate), "mild, moderate or severe")
	f.StringVar(&req.Description, "description", "", "what was observed")
	return storeCmd(cmd)
}

func newAdaptationStatusCmd(a *app) *cobra.Command {
	return storeCmd(&cobra.Command{
		Use:   "status",
		Short: "Show the open block with its criteria",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.owner()
			if err != nil {
				return err
			}
			st, err := a.coach.GetAdaptationStatus(cmd.Context(), owner)
			if err != nil {
				return err
			}
			return a.print(st)
		},
	})
}

func newAdaptationTransitionCmd(a *app) *cobra.Command {
	return storeCmd(&cobra.Command{
		Use:   "transition",
		Short: "Close a ready block and unlock plan generation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.owner()
			if err != nil {
				return err
			}
			st, err := a.coach.TransitionAdaptationBlock(cmd.Context(), owner)
			if err != nil {
				return err
			}
			return a.print(st)
		},
	})
}
