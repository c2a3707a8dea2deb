package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("RETRACE_CONFIG_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.FileLogging {
		t.Error("FileLogging = true, want false by default")
	}
	if cfg.ClaudeDir != "" {
		t.Errorf("ClaudeDir = %q, want empty", cfg.ClaudeDir)
	}
}

func TestLoad_ReadsFields(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RETRACE_CONFIG_DIR", dir)

	content := `
claude_dir = "/tmp/claude-test"
log_level = "debug"
file_logging = true
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ClaudeDir != "/tmp/claude-test" {
		t.Errorf("ClaudeDir = %q", cfg.ClaudeDir)
	}
	if cfg.LogLevel != "debug" || !cfg.FileLogging {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_MalformedReturnsDefaultsAndError(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RETRACE_CONFIG_DIR", dir)

	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("log_level = [broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err == nil {
		t.Fatal("Load: want parse error, got nil")
	}
	if !strings.Contains(err.Error(), "config: parse") {
		t.Errorf("err = %v", err)
	}
	// Still usable defaults.
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want default after parse failure", cfg.LogLevel)
	}
}

func TestProjectsDir_Resolution(t *testing.T) {
	t.Setenv("CLAUDE_CONFIG_DIR", "")

	cfg := UserConfig{ClaudeDir: "/data/claude"}
	if got := cfg.ProjectsDir(); got != filepath.Join("/data/claude", "projects") {
		t.Errorf("ProjectsDir = %q", got)
	}

	// The env var outranks the config file.
	t.Setenv("CLAUDE_CONFIG_DIR", "/env/claude")
	if got := cfg.ProjectsDir(); got != filepath.Join("/env/claude", "projects") {
		t.Errorf("ProjectsDir = %q, want env override", got)
	}
}

func TestDir_EnvOverride(t *testing.T) {
	t.Setenv("RETRACE_CONFIG_DIR", "/custom/retrace")
	if got := Dir(); got != "/custom/retrace" {
		t.Errorf("Dir = %q", got)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	if got := expandHome("~/x/y"); got != filepath.Join(home, "x", "y") {
		t.Errorf("expandHome = %q", got)
	}
	if got := expandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("expandHome changed absolute path: %q", got)
	}
}
