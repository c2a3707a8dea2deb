// Package server wires all MCP components and creates the server instance.
//
// This is the composition root (DIP): it creates concrete implementations
// and injects them into the tools/prompts/resources that depend on them.
// No business logic lives here — only wiring.
package server

import (
	"log"

	"github.com/HendryAvila/retrace/internal/config"
	"github.com/HendryAvila/retrace/internal/logging"
	"github.com/HendryAvila/retrace/internal/prompts"
	"github.com/HendryAvila/retrace/internal/resources"
	"github.com/HendryAvila/retrace/internal/sessiontools"
	"github.com/HendryAvila/retrace/internal/transcript"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the log file and must be called
// on shutdown (typically via defer). It is always non-nil.
func New() (*server.MCPServer, func(), error) {
	// --- Load configuration ---
	//
	// A malformed config file is a warning, not a fatal error: Load
	// hands back the defaults alongside the parse error, and a history
	// server that cannot read its own config can still read history.

	cfg, err := config.Load()
	if err != nil {
		log.Printf("WARNING: %v (continuing with defaults)", err)
	}

	logging.Init(logging.Config{
		Dir:     cfg.ResolvedLogDir(),
		Level:   cfg.LogLevel,
		Enabled: cfg.FileLogging,
	})
	cleanup := func() {
		if err := logging.Close(); err != nil {
			log.Printf("WARNING: closing log file: %v", err)
		}
	}

	// --- Create shared dependencies ---

	store := transcript.New(transcript.Config{ProjectsDir: cfg.ProjectsDir()})

	logging.Logger().Info("server configured",
		"version", Version,
		"projects_dir", cfg.ProjectsDir(),
	)

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"retrace",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register history tools ---

	toolLog := logging.ForComponent("tools")

	projectsTool := sessiontools.NewProjectsTool(store, toolLog)
	s.AddTool(projectsTool.Definition(), projectsTool.Handle)

	sessionsTool := sessiontools.NewSessionsTool(store, toolLog)
	s.AddTool(sessionsTool.Definition(), sessionsTool.Handle)

	recentTool := sessiontools.NewRecentTool(store, toolLog)
	s.AddTool(recentTool.Definition(), recentTool.Handle)

	analyzeTool := sessiontools.NewAnalyzeTool(store, toolLog)
	s.AddTool(analyzeTool.Definition(), analyzeTool.Handle)

	searchTool := sessiontools.NewSearchTool(store, toolLog)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	detailsTool := sessiontools.NewDetailsTool(store, toolLog)
	s.AddTool(detailsTool.Definition(), detailsTool.Handle)

	// --- Register prompts ---

	recapPrompt := prompts.NewRecapPrompt()
	s.AddPrompt(recapPrompt.Definition(), recapPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(store)
	s.AddResource(resourceHandler.ProjectsResource(), resourceHandler.HandleProjects)

	return s, cleanup, nil
}

// serverInstructions returns the system instructions that tell the AI
// how to use retrace effectively.
func serverInstructions() string {
	return `You have access to retrace, an MCP server over Claude Code's local
conversation history (~/.claude/projects). Every tool is read-only: responses
are re-derived from the transcript files on each call, and nothing is ever
written or modified.

## WHEN TO USE retrace

Reach for these tools when the user:
- Asks what they were working on recently ("what did I do yesterday?")
- References a past conversation ("we discussed this before", "like last time")
- Wants to find where a topic, file, error, or decision came up
- Asks to resume or recap earlier work

## WORKFLOW: Progressive Disclosure

Go broad first, then narrow. Never start with full message dumps.

1. list_projects — all projects with session counts. Start here to get the
   project_name other tools expect. Names are encoded directory names
   (-Users-alice-dev-webapp); decoded_name restores the real path.
2. list_sessions (one project) or list_recent_sessions (all projects) —
   find sessions worth digging into. Session summaries appear when
   Claude Code recorded one.
3. analyze_sessions — message previews and role statistics over a time
   window. Use this to spot the interesting messages cheaply.
4. search_conversations — case-insensitive keyword search with surrounding
   context messages. Use when hunting for a specific topic or phrase.
5. get_message_details — full, untruncated message text by session index.
   The final step once you know exactly which messages matter.

## TRUNCATION

Previews and matches are truncated to keep responses small: previews at 100
characters, match content at 300, context messages at 200. Each truncated
item carries its true content_length and a truncated flag. When a truncated
message matters, fetch the full text with get_message_details — the
message_index values in analyze and search results are valid indices for it.

## TIME WINDOWS

Listing and scanning tools take days_back, capped at 7. Defaults differ:
- list_sessions: 7
- list_recent_sessions: 1
- analyze_sessions: 1
- search_conversations: 2

search_conversations also accepts start_time/end_time (RFC 3339 or
YYYY-MM-DD). A start_time older than days_back widens the scan window, so
use it to reach back further than the default without raising days_back.

## ROLE FILTERS

role_filter is one of: user, assistant, both, all.
- "both" = the human-visible conversation (user + assistant text only;
  tool results and system records excluded). analyze_sessions default.
- "all" = every message including tool results. search_conversations default.

## RESPONSE CAPS

- search_conversations: 20 results per call (total_matches is the true count)
- analyze_sessions: 100 messages per call; summary statistics always cover
  every matched message, and truncated=true marks a capped page
- get_message_details: 10 indices per call
- context_window: at most 5 messages each side of a match

When a cap hits, narrow the window or query instead of re-requesting.

## PARSE ERRORS

Unreadable transcript files never fail a call: they are listed in the
response's parse_errors field and the rest of the scan proceeds. Mention
them only when the user is missing data they expect to see.

## IMPORTANT

- project_name parameters expect the ENCODED name; project_filter
  parameters match either encoded or decoded form, case-insensitively.
- Sessions are discovered by file modification time, so a session started
  long ago but touched inside the window still appears.
- message_index is the message's position within its session, stable
  across calls — pass it straight to get_message_details.`
}
