package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/cyclecoach/internal/cleanup"
	"github.com/mesh-intelligence/cyclecoach/internal/coach"
	"github.com/mesh-intelligence/cyclecoach/internal/paths"
	"github.com/mesh-intelligence/cyclecoach/internal/progression"
	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envPrefix      = "CYCLECOACH"

	cfgKeyBackend          = "backend"
	cfgKeyDataDir          = "data_dir"
	cfgKeyOwner            = "owner"
	cfgKeyLogLevel         = "log.level"
	cfgKeyPreSessionStale  = "cleanup.pre_session_stale"
	cfgKeySweepStale       = "cleanup.sweep_stale"
	cfgKeySchedule         = "cleanup.schedule"
	cfgKeyIncrementPercent = "progression.increment_percent"
	cfgKeyDeloadEvery      = "progression.deload_every"
	cfgKeySeed             = "generation.seed"
	cfgKeyConfigDir        = "config_dir"
)

// configFile is the layout of config.yaml written by init.
type configFile struct {
	Backend     string            `yaml:"backend"`
	DataDir     string            `yaml:"data_dir,omitempty"`
	Owner       string            `yaml:"owner,omitempty"`
	Log         logConfig         `yaml:"log"`
	Cleanup     cleanupConfig     `yaml:"cleanup"`
	Progression progressionConfig `yaml:"progression"`
	Generation  generationConfig  `yaml:"generation"`
}

type logConfig struct {
	Level string `yaml:"level"`
}

type cleanupConfig struct {
	PreSessionStale string `yaml:"pre_session_stale"`
	SweepStale      string `yaml:"sweep_stale"`
	Schedule        string `yaml:"schedule"`
}

type progressionConfig struct {
	IncrementPercent float64 `yaml:"increment_percent"`
	DeloadEvery      int     `yaml:"deload_every"`
}

type generationConfig struct {
	Seed int64 `yaml:"seed"`
}

func defaultConfigFile(dataDir, owner string) configFile {
	return configFile{
		Backend: types.BackendSQLite,
		DataDir: dataDir,
		Owner:   owner,
		Log:     logConfig{Level: "info"},
		Cleanup: cleanupConfig{
			PreSessionStale: cleanup.DefaultPreSessionStale.String(),
			SweepStale:      cleanup.DefaultSweepStale.String(),
			Schedule:        cleanup.DefaultSchedule,
		},
		Progression: progressionConfig{
			IncrementPercent: types.DefaultIncrementPercent,
			DeloadEvery:      types.DefaultDeloadEvery,
		},
	}
}

// newViper returns a viper instance with every default set and CYCLECOACH_*
// environment overrides enabled.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetDefault(cfgKeyPreSessionStale, cleanup.DefaultPreSessionStale)
	v.SetDefault(cfgKeySweepStale, cleanup.DefaultSweepStale)
	v.SetDefault(cfgKeySchedule, cleanup.DefaultSchedule)
	v.SetDefault(cfgKeyIncrementPercent, types.DefaultIncrementPercent)
	v.SetDefault(cfgKeyDeloadEvery, types.DefaultDeloadEvery)
	v.SetDefault(cfgKeySeed, 0)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// loadConfig reads config.yaml from the resolved config directory. A missing
// file leaves the defaults in place.
func (a *app) loadConfig() error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}

	v := newViper()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	v.Set(cfgKeyConfigDir, configDir)
	a.cfg = v
	a.logger = newLogger(v.GetString(cfgKeyLogLevel), a.flags.verbose, os.Stderr)
	return nil
}

func (a *app) settings() coach.Settings {
	return coach.Settings{
		Cleanup: cleanup.Settings{
			PreSessionStale: a.cfg.GetDuration(cfgKeyPreSessionStale),
			SweepStale:      a.cfg.GetDuration(cfgKeySweepStale),
		},
		Progression: progression.Settings{
			IncrementPercent: a.cfg.GetFloat64(cfgKeyIncrementPercent),
			DeloadEvery:      a.cfg.GetInt(cfgKeyDeloadEvery),
		},
		Seed: a.cfg.GetInt64(cfgKeySeed),
	}
}

// writeConfigIfMissing creates config.yaml with default values. An existing
// file is left untouched.
func writeConfigIfMissing(path string, cfg configFile) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	return true, os.WriteFile(path, data, 0o644)
}

// newLogger builds the process logger. Text output goes to terminals and
// JSON everywhere else.
func newLogger(level string, verbose bool, w *os.File) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	if verbose {
		lvl = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd()) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
