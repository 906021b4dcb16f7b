// Package cli implements the coach command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/cyclecoach/internal/coach"
	"github.com/mesh-intelligence/cyclecoach/internal/paths"
	"github.com/mesh-intelligence/cyclecoach/internal/sqlite"
	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// annotationStore marks commands that run against an attached store.
const annotationStore = "store"

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	owner     string
	jsonMode  bool
	verbose   bool
}

// app is the state shared by the subcommands of one invocation.
type app struct {
	flags   rootFlags
	cfg     *viper.Viper
	logger  *slog.Logger
	backend *sqlite.Backend
	coach   *coach.Coach
	stdout  io.Writer
}

// NewRootCmd creates the top-level "coach" command with global flags and all
// subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{stdout: os.Stdout}

	root := &cobra.Command{
		Use:   "coach",
		Short: "Adaptive resistance-training cycle engine",
		Long: "coach generates rotating five-day training cycles, runs sessions set by set,\n" +
			"progresses loads between microcycles and gates beginners behind an\nadaptation block.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.stdout = cmd.OutOrStdout()
			if err := a.loadConfig(); err != nil {
				return err
			}
			if cmd.Annotations[annotationStore] == "" {
				return nil
			}
			return a.open()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/.cyclecoach)")
	pf.StringVar(&a.flags.owner, "owner", "", "owner the command acts for (default: config owner)")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output as JSON")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newPlanCmd(a),
		newSessionCmd(a),
		newProgressCmd(a),
		newAdaptationCmd(a),
		newCatalogCmd(a),
		newCleanupCmd(a),
		newServeCmd(a),
		newExportCmd(a),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "coach:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// exitCode maps caller-correctable errors to 1 and everything else to 2.
func exitCode(err error) int {
	for _, userErr := range []error{types.ErrValidation, types.ErrNotFound, types.ErrConflict, types.ErrState} {
		if errors.Is(err, userErr) {
			return exitUserError
		}
	}
	return exitSysError
}

// open attaches the backend and wires the coach.
func (a *app) open() error {
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, a.cfg.GetString(cfgKeyDataDir))
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}

	backend := sqlite.NewBackend(a.logger.With(slog.String("component", "sqlite")))
	if err := backend.Attach(types.Config{Backend: a.cfg.GetString(cfgKeyBackend), DataDir: dataDir}); err != nil {
		return fmt.Errorf("attach backend: %w", err)
	}
	a.backend = backend

	c, err := coach.New(backend, backend.Catalog(), a.settings(), a.logger)
	if err != nil {
		return err
	}
	a.coach = c
	return nil
}

func (a *app) close() error {
	if a.backend == nil {
		return nil
	}
	err := a.backend.Detach()
	a.backend = nil
	return err
}

// owner returns the owner from --owner or the config, which also reads
// CYCLECOACH_OWNER.
func (a *app) owner() (string, error) {
	if a.flags.owner != "" {
		return a.flags.owner, nil
	}
	if o := a.cfg.GetString(cfgKeyOwner); o != "" {
		return o, nil
	}
	return "", fmt.Errorf("%w (set --owner or owner in config.yaml)", types.ErrOwnerEmpty)
}
