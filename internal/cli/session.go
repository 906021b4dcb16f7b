package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cyclecoach/internal/session"
	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

func newSessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Run training sessions",
	}
	cmd.AddCommand(
		newSessionStartCmd(a),
		newSessionLogCmd(a),
		newSessionWarmupCmd(a),
		newSessionStatusCmd(a),
		newSessionEndCmd(a, "finish", "Finish a session, settling open exercises", a.coachFinish),
		newSessionEndCmd(a, "skip", "Skip a session", a.coachSkip),
		newSessionEndCmd(a, "cancel", "Cancel a session", a.coachCancel),
		newSessionEndCmd(a, "show", "Show a session with its exercises and sets", a.coachGet),
		newSessionListCmd(a),
	)
	return cmd
}

type sessionOp func(ctx context.Context, ownerID, sessionID string) (*session.State, error)

func (a *app) coachFinish(ctx context.Context, ownerID, sessionID string) (*session.State, error) {
	return a.coach.FinishSession(ctx, ownerID, sessionID)
}

func (a *app) coachSkip(ctx context.Context, ownerID, sessionID string) (*session.State, error) {
	return a.coach.SkipSession(ctx, ownerID, sessionID)
}

func (a *app) coachCancel(ctx context.Context, ownerID, sessionID string) (*session.State, error) {
	return a.coach.CancelSession(ctx, ownerID, sessionID)
}

func (a *app) coachGet(ctx context.Context, ownerID, sessionID string) (*session.State, error) {
	return a.coach.GetSession(ctx, ownerID, sessionID)
}

func newSessionStartCmd(a *app) *cobra.Command {
	return storeCmd(&cobra.Command{
		Use:   "start <plan-id> <microcycle> <day>",
		Short: "Start the session scheduled for a slot",
		Long: `Start the session of a plan slot. Microcycle 0 is the calibration week and
day is 1 to 5. A slot with no scheduled session gets a substitute.

Example:
  coach session start 0192f0c4-... 1 3`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.owner()
			if err != nil {
				return err
			}
			micro, err := intArg("microcycle", args[1])
			if err != nil {
				return err
			}
			day, err := intArg("day", args[2])
			if err != nil {
				return err
			}
			st, err := a.coach.StartSession(cmd.Context(), session.StartRequest{
				OwnerID:    owner,
				PlanID:     args[0],
				Microcycle: micro,
				CycleDay:   day,
			})
			if err != nil {
				return err
			}
			return a.print(st)
		},
	})
}

func newSessionLogCmd(a *app) *cobra.Command {
	var req session.LogSetRequest
	cmd := &cobra.Command{
		Use:   "log <session-id> <exercise-id>",
		Short: "Log one set",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.owner()
			if err != nil {
				return err
			}
			req.OwnerID = owner
			req.SessionID = args[0]
			req.ExerciseID = args[1]
			set, err := a.coach.LogSet(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.print(set)
		},
	}
	f := cmd.Flags()
	f.IntVar(&req.SetNumber, "set", 1, "set number, starting at 1")
	f.Float64Var(&req.Weight, "weight", 0, "load in kg")
	f.IntVar(&req.Reps, "reps", 0, "repetitions performed")
	f.IntVar(&req.RIR, "rir", 0, "reps in reserve, 0 to 5")
	f.BoolVar(&req.IsWarmup, "warmup", false, "warm-up set; not counted toward progression")
	_ = cmd.MarkFlagRequired("reps")
	return storeCmd(cmd)
}

func newSessionWarmupCmd(a *app) *cobra.Command {
	return storeCmd(&cobra.Command{
		Use:   "warmup <session-id> <seconds>",
		Short: "Record how long the warm-up of a session took",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.owner()
			if err != nil {
				return err
			}
			seconds, err := intArg("seconds", args[1])
			if err != nil {
				return err
			}
			st, err := a.coach.RecordWarmup(cmd.Context(), owner, args[0], seconds)
			if err != nil {
				return err
			}
			return a.print(st)
		},
	})
}

func newSessionStatusCmd(a *app) *cobra.Command {
	var series int
	cmd := &cobra.Command{
		Use:   "status <session-id> <exercise-id> <completed|skipped|cancelled>",
		Short: "Settle one exercise of a session",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.owner()
			if err != nil {
				return err
			}
			st, err := a.coach.SetExerciseStatus(cmd.Context(), session.ExerciseStatusRequest{
				OwnerID:    owner,
				SessionID:  args[0],
				ExerciseID: args[1],
				Status:     types.SessionStatus(args[2]),
				Series:     series,
			})
			if err != nil {
				return err
			}
			return a.print(st)
		},
	}
	cmd.Flags().IntVar(&series, "series", 0, "completed series to record")
	return storeCmd(cmd)
}

func newSessionEndCmd(a *app, use, short string, op sessionOp) *cobra.Command {
	return storeCmd(&cobra.Command{
		Use:   use + " <session-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.owner()
			if err != nil {
				return err
			}
			st, err := op(cmd.Context(), owner, args[0])
			if err != nil {
				return err
			}
			return a.print(st)
		},
	})
}

func newSessionListCmd(a *app) *cobra.Command {
	return storeCmd(&cobra.Command{
		Use:   "list <plan-id>",
		Short: "List the sessions of a plan in schedule order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.owner()
			if err != nil {
				return err
			}
			sessions, err := a.coach.ListSessions(cmd.Context(), owner, args[0])
			if err != nil {
				return err
			}
			return a.print(sessions)
		},
	})
}

func intArg(name, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number, got %q", types.ErrValidation, name, v)
	}
	return n, nil
}
