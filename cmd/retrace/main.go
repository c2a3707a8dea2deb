// Retrace: Claude Code conversation history MCP server
//
// A read-only MCP server that gives any MCP client (Claude Code,
// OpenCode, Gemini CLI, Codex, Cursor, VS Code Copilot) search and
// analysis over past Claude Code sessions stored under
// ~/.claude/projects.
//
// Usage:
//
//	retrace serve    # Start MCP server (stdio transport)
//	retrace update   # Update to the latest version
package main

import (
	"fmt"
	"os"

	retraceserver "github.com/HendryAvila/retrace/internal/server"
	"github.com/HendryAvila/retrace/internal/updater"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "update":
		runUpdate()
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("retrace v%s\n", retraceserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	s, cleanup, err := retraceserver.New()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Background version check — prints to stderr so it doesn't
	// interfere with MCP's stdio transport on stdout.
	go checkForUpdates()

	// ServeStdio handles SIGINT/SIGTERM itself and returns when the
	// client closes stdin.
	return server.ServeStdio(s)
}

// checkForUpdates runs a non-blocking version check and prints a notice
// to stderr if an update is available. This runs in a goroutine during
// "serve" and is best-effort — network failures are silently ignored.
func checkForUpdates() {
	result := updater.CheckVersion(retraceserver.Version)
	if result.UpdateAvailable {
		fmt.Fprintf(os.Stderr,
			"\n  📦 Update available: v%s → v%s\n"+
				"     Run: retrace update\n"+
				"     Release: %s\n\n",
			result.CurrentVersion, result.LatestVersion, result.ReleaseURL,
		)
	}
}

// runUpdate performs a self-update to the latest version.
func runUpdate() {
	fmt.Fprintf(os.Stderr, "🔍 Checking for updates...\n")

	result := updater.CheckVersion(retraceserver.Version)
	if !result.UpdateAvailable {
		fmt.Fprintf(os.Stderr, "✅ Already at the latest version (v%s)\n", result.CurrentVersion)
		return
	}

	fmt.Fprintf(os.Stderr, "📦 New version available: v%s → v%s\n", result.CurrentVersion, result.LatestVersion)
	fmt.Fprintf(os.Stderr, "⬇️  Downloading...\n")

	if err := updater.SelfUpdate(retraceserver.Version); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Update failed: %v\n", err)
		fmt.Fprintf(os.Stderr, "\n   You can download manually from:\n   %s\n", result.ReleaseURL)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "✅ Updated to v%s!\n", result.LatestVersion)
	fmt.Fprintf(os.Stderr, "   Restart retrace to use the new version.\n")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Retrace v%s — Claude Code conversation history MCP server

Usage:
  retrace serve    Start the MCP server (stdio transport)
  retrace update   Update to the latest version

Configuration:
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "retrace": {
        "command": "retrace",
        "args": ["serve"]
      }
    }
  }

All tools are read-only: retrace never modifies your conversation
history. Transcripts are read from ~/.claude/projects (override with
claude_dir in ~/.retrace/config.toml or $CLAUDE_CONFIG_DIR).

Learn more: https://github.com/HendryAvila/retrace
`, retraceserver.Version)
}
