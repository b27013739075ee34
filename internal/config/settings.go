// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config resolves prompt-extract settings from defaults, an optional
// YAML config file, PROMPT_EXTRACT_* environment variables and CLI flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/prompt-extract/internal/extract"
	"github.com/pdiddy/prompt-extract/pkg/types"
)

const (
	// EnvPrefix prefixes every environment variable read by Load.
	EnvPrefix = "PROMPT_EXTRACT"
	// ConfigName is the config file base name searched in . and
	// ~/.config/prompt-extract.
	ConfigName = "prompt-extract"
	// DefaultStatePath is the state file used when none is configured.
	DefaultStatePath = "config.json"
)

// StateSettings configures where processed-file state lives.
type StateSettings struct {
	Path    string             `mapstructure:"path"`
	Backend types.StateBackend `mapstructure:"backend"`
	Lock    bool               `mapstructure:"lock"`
}

// LogSettings configures diagnostic logging.
type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Settings is the resolved configuration.
type Settings struct {
	State         StateSettings `mapstructure:"state"`
	Source        string        `mapstructure:"source"`
	Output        string        `mapstructure:"output"`
	Markers       types.Markers `mapstructure:"markers"`
	Log           LogSettings   `mapstructure:"log"`
	PreviewLength int           `mapstructure:"preview_length"`

	// ConfigFile is the config file that was read, if any.
	ConfigFile string `mapstructure:"-"`
}

// flagBindings maps setting keys to CLI flag names.
var flagBindings = map[string]string{
	"state.path":     "state",
	"state.backend":  "state-backend",
	"source":         "source",
	"output":         "output",
	"markers.start":  "start-marker",
	"markers.end":    "end-marker",
	"log.level":      "log-level",
	"log.format":     "log-format",
	"preview_length": "preview-length",
}

// Load resolves settings. Priority: flags > environment > config file >
// defaults. configFile, when non-empty, must exist; otherwise the default
// locations are searched and a missing file is not an error. flags may be
// nil.
func Load(flags *pflag.FlagSet, configFile string) (*Settings, error) {
	v := viper.New()

	v.SetDefault("state.path", DefaultStatePath)
	v.SetDefault("state.backend", string(types.BackendJSON))
	v.SetDefault("state.lock", true)
	v.SetDefault("source", "")
	v.SetDefault("output", "")
	v.SetDefault("markers.start", extract.DefaultMarkers.Start)
	v.SetDefault("markers.end", extract.DefaultMarkers.End)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("preview_length", 100)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range flagBindings {
			if f := flags.Lookup(name); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", ConfigName))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	s.ConfigFile = v.ConfigFileUsed()
	s.State.Path = expandHomeDir(s.State.Path)
	s.Source = expandHomeDir(s.Source)
	s.Output = expandHomeDir(s.Output)

	return &s, nil
}

// Validate checks for settings that cannot produce a working run.
func Validate(s *Settings) error {
	switch s.State.Backend {
	case types.BackendJSON, types.BackendSQLite:
	default:
		return fmt.Errorf("state backend must be %q or %q, got %q", types.BackendJSON, types.BackendSQLite, s.State.Backend)
	}
	if strings.TrimSpace(s.State.Path) == "" {
		return errors.New("state path cannot be empty")
	}
	if s.Markers.Start == "" || s.Markers.End == "" {
		return errors.New("start and end markers must be non-empty")
	}
	if s.Markers.Start == s.Markers.End {
		return errors.New("start and end markers must differ")
	}
	if s.PreviewLength < 0 {
		return errors.New("preview length cannot be negative")
	}
	if _, err := parseLevel(s.Log.Level); err != nil {
		return err
	}
	switch s.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be 'text' or 'json', got %q", s.Log.Format)
	}
	return nil
}

// expandHomeDir expands a leading ~ to the user's home directory.
func expandHomeDir(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
