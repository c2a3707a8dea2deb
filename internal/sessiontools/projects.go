package sessiontools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/HendryAvila/retrace/internal/transcript"
	"github.com/mark3labs/mcp-go/mcp"
)

// ProjectsTool handles the list_projects MCP tool.
type ProjectsTool struct {
	store *transcript.Store
	log   *slog.Logger
}

// NewProjectsTool creates a ProjectsTool.
func NewProjectsTool(store *transcript.Store, log *slog.Logger) *ProjectsTool {
	return &ProjectsTool{store: store, log: log}
}

// projectJSON is the wire shape of one project entry.
type projectJSON struct {
	Name           string `json:"name"`
	Path           string `json:"path"`
	SessionCount   int    `json:"session_count"`
	LatestActivity string `json:"latest_activity"`
	DecodedName    string `json:"decoded_name"`
}

// Definition returns the MCP tool definition for list_projects.
func (t *ProjectsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_projects",
		mcp.WithDescription(
			"List all Claude Code projects with session counts and latest activity. "+
				"Project names are encoded directory names (dashes instead of slashes); "+
				"decoded_name restores the original path. Start here to find the "+
				"project_name other tools expect.",
		),
	)
}

// Handle processes the list_projects tool call.
func (t *ProjectsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := t.store.Projects()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list projects: %v", err)), nil
	}

	out := make([]projectJSON, 0, len(projects))
	for _, p := range projects {
		out = append(out, projectJSON{
			Name:           p.Name,
			Path:           p.Path,
			SessionCount:   p.SessionCount,
			LatestActivity: p.LatestActivity.Format(time.RFC3339),
			DecodedName:    p.DecodedName,
		})
	}
	return jsonResult(out)
}
