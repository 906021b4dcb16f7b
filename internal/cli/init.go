package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cyclecoach/internal/paths"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and storage",
		Long: "Write a default config.yaml when none exists, then create the database,\n" +
			"apply migrations and load the exercise catalog.",
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir := a.cfg.GetString(cfgKeyConfigDir)
			dataDir, err := paths.ResolveDataDir(a.flags.dataDir, a.cfg.GetString(cfgKeyDataDir))
			if err != nil {
				return fmt.Errorf("resolve data dir: %w", err)
			}

			path := filepath.Join(configDir, configFileExt)
			written, err := writeConfigIfMissing(path, defaultConfigFile(dataDir, a.flags.owner))
			if err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			if written {
				a.printf("wrote %s\n", path)
			}

			if err := a.open(); err != nil {
				return err
			}
			n, err := a.backend.Catalog().Count(cmd.Context())
			if err != nil {
				return fmt.Errorf("count exercises: %w", err)
			}
			if a.flags.jsonMode {
				return a.print(map[string]any{"config": path, "data_dir": a.backend.DataDir(), "exercises": n})
			}
			a.printf("storage ready at %s (%d exercises)\n", a.backend.DataDir(), n)
			return nil
		},
	}
}
