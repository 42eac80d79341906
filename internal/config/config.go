// Package config loads iterweak CLI configuration from JSONC files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
)

// Registry modes.
const (
	// ModeStrict holds pointer members weakly.
	ModeStrict = "strict"

	// ModeBestEffort holds every member strongly; nothing is ever reclaimed.
	ModeBestEffort = "best-effort"
)

// FileName is the project config file name.
const FileName = ".iterweak.json"

// Config holds all configuration options.
type Config struct {
	// Mode is ModeStrict or ModeBestEffort.
	Mode string `json:"mode"`

	// EagerEviction evicts slots from runtime cleanups in addition to the
	// lazy eviction done on reads and enumeration.
	EagerEviction bool `json:"eager_eviction"` //nolint:tagliatelle // snake_case for config file

	// SharedRegistry makes the session's set and map share one registry.
	SharedRegistry bool `json:"shared_registry"` //nolint:tagliatelle // snake_case for config file

	// GCRounds is how many collections the gc command runs by default.
	GCRounds int `json:"gc_rounds"` //nolint:tagliatelle // snake_case for config file

	// HistoryFile is the repl history file. Empty disables history.
	HistoryFile string `json:"history_file,omitempty"` //nolint:tagliatelle // snake_case for config file
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// Overrides carries CLI flag values. Nil fields were not set.
type Overrides struct {
	Mode          *string
	EagerEviction *bool
	GCRounds      *int
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Mode:           ModeStrict,
		SharedRegistry: true,
		GCRounds:       2,
	}
}

// fileConfig mirrors Config with pointer fields so an explicit false or 0 in
// a file can override a true or non-zero default.
type fileConfig struct {
	Mode           *string `json:"mode"`
	EagerEviction  *bool   `json:"eager_eviction"`  //nolint:tagliatelle // snake_case for config file
	SharedRegistry *bool   `json:"shared_registry"` //nolint:tagliatelle // snake_case for config file
	GCRounds       *int    `json:"gc_rounds"`       //nolint:tagliatelle // snake_case for config file
	HistoryFile    *string `json:"history_file"`    //nolint:tagliatelle // snake_case for config file
}

// globalPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/iterweak/config.json if set, otherwise
// ~/.config/iterweak/config.json. Returns "" if no home directory is known.
func globalPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "iterweak", "config.json")
	}

	home := env["HOME"]
	if home == "" {
		var err error

		home, err = os.UserHomeDir()
		if err != nil {
			return ""
		}
	}

	return filepath.Join(home, ".config", "iterweak", "config.json")
}

// Load resolves configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config ($XDG_CONFIG_HOME/iterweak/config.json)
// 3. Project config file (.iterweak.json in workDir, if it exists)
// 4. Explicit config file via configPath (replaces 3, must exist)
// 5. CLI overrides.
func Load(workDir, configPath string, overrides Overrides, env map[string]string) (Config, Sources, error) {
	cfg := Default()

	var sources Sources

	if path := globalPath(env); path != "" {
		loaded, err := loadFile(path, false, &cfg)
		if err != nil {
			return Config{}, Sources{}, err
		}

		if loaded {
			sources.Global = path
		}
	}

	projectPath, mustExist := filepath.Join(workDir, FileName), false

	if configPath != "" {
		projectPath, mustExist = configPath, true
		if !filepath.IsAbs(projectPath) {
			projectPath = filepath.Join(workDir, projectPath)
		}
	}

	loaded, err := loadFile(projectPath, mustExist, &cfg)
	if err != nil {
		return Config{}, Sources{}, err
	}

	if loaded {
		sources.Project = projectPath
	}

	if overrides.Mode != nil {
		cfg.Mode = *overrides.Mode
	}

	if overrides.EagerEviction != nil {
		cfg.EagerEviction = *overrides.EagerEviction
	}

	if overrides.GCRounds != nil {
		cfg.GCRounds = *overrides.GCRounds
	}

	if err := Validate(cfg); err != nil {
		return Config{}, Sources{}, err
	}

	return cfg, sources, nil
}

// loadFile merges the file at path into cfg. A missing file is an error only
// when mustExist is set.
func loadFile(path string, mustExist bool, cfg *Config) (bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		if os.IsNotExist(err) {
			if mustExist {
				return false, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
			}

			return false, nil
		}

		return false, fmt.Errorf("%w: %s: %w", ErrConfigFileRead, path, err)
	}

	parseErr := parse(data, cfg)
	if parseErr != nil {
		return false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, parseErr)
	}

	return true, nil
}

func parse(data []byte, cfg *Config) error {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("invalid JSONC: %w", err)
	}

	var file fileConfig

	unmarshalErr := json.Unmarshal(standardized, &file)
	if unmarshalErr != nil {
		return fmt.Errorf("invalid JSON: %w", unmarshalErr)
	}

	if file.Mode != nil {
		cfg.Mode = *file.Mode
	}

	if file.EagerEviction != nil {
		cfg.EagerEviction = *file.EagerEviction
	}

	if file.SharedRegistry != nil {
		cfg.SharedRegistry = *file.SharedRegistry
	}

	if file.GCRounds != nil {
		cfg.GCRounds = *file.GCRounds
	}

	if file.HistoryFile != nil {
		cfg.HistoryFile = *file.HistoryFile
	}

	return nil
}

// Validate reports the first invalid field of cfg.
func Validate(cfg Config) error {
	switch cfg.Mode {
	case ModeStrict, ModeBestEffort:
	default:
		return fmt.Errorf("%w: %q (want %s)", ErrInvalidMode, cfg.Mode, strings.Join([]string{ModeStrict, ModeBestEffort}, " or "))
	}

	if cfg.GCRounds < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidGCRounds, cfg.GCRounds)
	}

	return nil
}

// Format returns the config as indented JSON.
func Format(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format config: %w", err)
	}

	return string(data), nil
}
