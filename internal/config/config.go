// Package config loads the optional user configuration file.
//
// Configuration lives at ~/.retrace/config.toml (directory overridable
// via $RETRACE_CONFIG_DIR). A missing file is not an error: every field
// has a usable zero default. A malformed file yields the defaults plus
// the parse error so startup can warn and continue.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the TOML config file name inside the config directory.
const FileName = "config.toml"

// UserConfig is the user-facing configuration.
type UserConfig struct {
	// ClaudeDir points at where Claude Code keeps its data when
	// $CLAUDE_CONFIG_DIR is unset; transcripts are read from
	// <claude_dir>/projects. Empty means ~/.claude.
	ClaudeDir string `toml:"claude_dir"`

	// LogDir is the directory for log files. Empty means <config dir>/logs.
	LogDir string `toml:"log_dir"`

	// LogLevel is the minimum log level: "debug", "info", "warn", "error".
	LogLevel string `toml:"log_level"`

	// FileLogging enables the rotating log file. stdout is never used
	// for logging; it belongs to the MCP transport.
	FileLogging bool `toml:"file_logging"`
}

// Dir returns the retrace config directory: $RETRACE_CONFIG_DIR when
// set, else ~/.retrace.
func Dir() string {
	if dir := os.Getenv("RETRACE_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".retrace")
}

// Default returns the configuration used when no file exists.
func Default() UserConfig {
	return UserConfig{
		LogLevel: "info",
	}
}

// Load reads the user config file. Missing file means defaults with a
// nil error; a malformed file means defaults plus the parse error.
func Load() (UserConfig, error) {
	return loadFrom(filepath.Join(Dir(), FileName))
}

func loadFrom(path string) (UserConfig, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Default(), fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ProjectsDir resolves the transcript root this configuration points
// at: $CLAUDE_CONFIG_DIR when set, else claude_dir, else ~/.claude,
// always joined with "projects". The env var wins so one shell setting
// moves both Claude Code and retrace to the same tree.
func (c UserConfig) ProjectsDir() string {
	if dir := os.Getenv("CLAUDE_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, "projects")
	}
	if c.ClaudeDir != "" {
		return filepath.Join(expandHome(c.ClaudeDir), "projects")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude", "projects")
}

// ResolvedLogDir returns the log directory, defaulting to
// <config dir>/logs.
func (c UserConfig) ResolvedLogDir() string {
	if c.LogDir != "" {
		return expandHome(c.LogDir)
	}
	return filepath.Join(Dir(), "logs")
}

// expandHome resolves a leading ~/ against the user home directory.
func expandHome(path string) string {
	if path == "~" || len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
