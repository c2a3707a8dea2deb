package sessiontools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/HendryAvila/retrace/internal/transcript"
	"github.com/mark3labs/mcp-go/mcp"
)

// RecentTool handles the list_recent_sessions MCP tool.
type RecentTool struct {
	store *transcript.Store
	log   *slog.Logger
}

// NewRecentTool creates a RecentTool.
func NewRecentTool(store *transcript.Store, log *slog.Logger) *RecentTool {
	return &RecentTool{store: store, log: log}
}

type recentResponse struct {
	DaysBack      int           `json:"days_back"`
	ProjectFilter string        `json:"project_filter,omitempty"`
	SessionCount  int           `json:"session_count"`
	Sessions      []sessionJSON `json:"sessions"`
	ParseErrors   []string      `json:"parse_errors"`
}

// Definition returns the MCP tool definition for list_recent_sessions.
func (t *RecentTool) Definition() mcp.Tool {
	return mcp.NewTool("list_recent_sessions",
		mcp.WithDescription(
			"List recent sessions across all projects, newest first. Good first "+
				"call to see what was worked on lately.",
		),
		mcp.WithNumber("days_back",
			mcp.Description("How many days back to look (default 1, max 7)"),
		),
		mcp.WithString("project_filter",
			mcp.Description("Only include projects whose name contains this substring (encoded or decoded form)"),
		),
	)
}

// Handle processes the list_recent_sessions tool call.
func (t *RecentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	window, days, err := daysBackWindow(req, 1)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	projectFilter := req.GetString("project_filter", "")

	list, err := t.store.RecentSessions(window, projectFilter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list recent sessions: %v", err)), nil
	}
	warnFailures(t.log, "list_recent_sessions", list.Failures)

	resp := recentResponse{
		DaysBack:      days,
		ProjectFilter: projectFilter,
		SessionCount:  len(list.Sessions),
		Sessions:      make([]sessionJSON, 0, len(list.Sessions)),
		ParseErrors:   failureStrings(list.Failures),
	}
	for _, s := range list.Sessions {
		resp.Sessions = append(resp.Sessions, sessionInfo(s, true))
	}
	return jsonResult(resp)
}
