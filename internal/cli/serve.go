package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cyclecoach/internal/cleanup"
)

func newServeCmd(a *app) *cobra.Command {
	return storeCmd(&cobra.Command{
		Use:   "serve",
		Short: "Run the periodic cleanup sweep until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := a.cfg.GetString(cfgKeySchedule)
			sched, err := cleanup.NewScheduler(a.coach.Cleanup(), spec, a.logger.With(slog.String("component", "cleanup")))
			if err != nil {
				return err
			}

			ctx := shutdownContext(cmd.Context(), a.logger)
			a.logger.Info("cleanup scheduler started", slog.String("schedule", spec))
			sched.Start()
			<-ctx.Done()
			sched.Stop()
			a.logger.Info("cleanup scheduler stopped")
			return nil
		},
	})
}

// shutdownContext cancels on the first SIGINT or SIGTERM and exits on the
// second.
func shutdownContext(parent context.Context, logger *slog.Logger) context.Context {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			logger.Info("shutting down", slog.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
			return
		}

		select {
		case sig := <-sigCh:
			logger.Warn("second signal, exiting", slog.String("signal", sig.String()))
			os.Exit(exitSysError)
		case <-parent.Done():
			return
		}
	}()

	return ctx
}
