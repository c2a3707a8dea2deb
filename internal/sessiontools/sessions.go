package sessiontools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/HendryAvila/retrace/internal/transcript"
	"github.com/mark3labs/mcp-go/mcp"
)

// SessionsTool handles the list_sessions MCP tool.
type SessionsTool struct {
	store *transcript.Store
	log   *slog.Logger
}

// NewSessionsTool creates a SessionsTool.
func NewSessionsTool(store *transcript.Store, log *slog.Logger) *SessionsTool {
	return &SessionsTool{store: store, log: log}
}

type sessionsResponse struct {
	ProjectName  string        `json:"project_name"`
	DaysBack     int           `json:"days_back"`
	SessionCount int           `json:"session_count"`
	Sessions     []sessionJSON `json:"sessions"`
	ParseErrors  []string      `json:"parse_errors"`
}

// Definition returns the MCP tool definition for list_sessions.
func (t *SessionsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_sessions",
		mcp.WithDescription(
			"List recent sessions for one project, newest first, with message "+
				"counts and timestamps. Sessions are filtered by last activity.",
		),
		mcp.WithString("project_name",
			mcp.Required(),
			mcp.Description("Encoded project directory name from .claude/projects/ (uses dashes instead of slashes)"),
		),
		mcp.WithNumber("days_back",
			mcp.Description("How many days back to look (default 7, max 7)"),
		),
	)
}

// Handle processes the list_sessions tool call.
func (t *SessionsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project_name", "")
	if project == "" {
		return mcp.NewToolResultError("'project_name' is required"), nil
	}
	window, days, err := daysBackWindow(req, 7)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	list, err := t.store.Sessions(project, window)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list sessions: %v", err)), nil
	}
	warnFailures(t.log, "list_sessions", list.Failures)

	resp := sessionsResponse{
		ProjectName:  project,
		DaysBack:     days,
		SessionCount: len(list.Sessions),
		Sessions:     make([]sessionJSON, 0, len(list.Sessions)),
		ParseErrors:  failureStrings(list.Failures),
	}
	for _, s := range list.Sessions {
		resp.Sessions = append(resp.Sessions, sessionInfo(s, false))
	}
	return jsonResult(resp)
}
