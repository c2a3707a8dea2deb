package sessiontools

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"unicode/utf8"

	"github.com/HendryAvila/retrace/internal/transcript"
	"github.com/mark3labs/mcp-go/mcp"
)

// AnalyzeTool handles the analyze_sessions MCP tool.
type AnalyzeTool struct {
	store *transcript.Store
	log   *slog.Logger
}

// NewAnalyzeTool creates an AnalyzeTool.
func NewAnalyzeTool(store *transcript.Store, log *slog.Logger) *AnalyzeTool {
	return &AnalyzeTool{store: store, log: log}
}

// analyzedMessage is metadata plus a short preview. message_index is
// the position within the session, so it feeds straight into
// get_message_details.
type analyzedMessage struct {
	SessionID      string                `json:"session_id"`
	Project        string                `json:"project"`
	Timestamp      *string               `json:"timestamp"`
	Role           string                `json:"role"`
	ContentPreview string                `json:"content_preview"`
	ContentLength  int                   `json:"content_length"`
	HasToolCalls   bool                  `json:"has_tool_calls"`
	MessageIndex   int                   `json:"message_index"`
	ToolCalls      []transcript.ToolCall `json:"tool_calls,omitempty"`
}

type analyzeSummary struct {
	MessagesByRole      map[string]int `json:"messages_by_role"`
	AvgContentLength    float64        `json:"avg_content_length"`
	SessionsWithMessage []string       `json:"sessions_with_messages"`
}

type analyzeFilter struct {
	RoleFilter    string `json:"role_filter"`
	DaysBack      int    `json:"days_back"`
	ProjectFilter string `json:"project_filter"`
	IncludeTools  bool   `json:"include_tools"`
}

type analyzeResponse struct {
	SessionsAnalyzed int               `json:"sessions_analyzed"`
	TotalMessages    int               `json:"total_messages"`
	MessagesReturned int               `json:"messages_returned"`
	Messages         []analyzedMessage `json:"messages"`
	Truncated        bool              `json:"truncated"`
	Summary          analyzeSummary    `json:"summary"`
	FilterApplied    analyzeFilter     `json:"filter_applied"`
	ParseErrors      []string          `json:"parse_errors"`
}

// Definition returns the MCP tool definition for analyze_sessions.
func (t *AnalyzeTool) Definition() mcp.Tool {
	return mcp.NewTool("analyze_sessions",
		mcp.WithDescription(
			"Analyze recent sessions: per-message metadata with short previews, "+
				"plus a role breakdown. Use get_message_details with the returned "+
				"message_index values to fetch full content.",
		),
		mcp.WithNumber("days_back",
			mcp.Description("Days back to analyze (default 1, max 7)"),
		),
		mcp.WithString("role_filter",
			mcp.Description("Which roles to include: user, assistant, both, or all (default both; both excludes tool output turns)"),
		),
		mcp.WithString("project_filter",
			mcp.Description("Only analyze projects whose name contains this substring"),
		),
		mcp.WithBoolean("include_tools",
			mcp.Description("Attach tool invocation payloads to returned messages (default false)"),
		),
	)
}

// Handle processes the analyze_sessions tool call.
func (t *AnalyzeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	window, days, err := daysBackWindow(req, 1)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	roles, err := transcript.ParseRoleFilter(req.GetString("role_filter", "both"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	projectFilter := req.GetString("project_filter", "")
	includeTools := boolArg(req, "include_tools", false)

	ext, err := t.store.ExtractMessages(window, projectFilter, roles)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analyze sessions: %v", err)), nil
	}
	warnFailures(t.log, "analyze_sessions", ext.Failures)

	total := len(ext.Messages)
	returned := total
	if returned > maxAnalyzeMessages {
		returned = maxAnalyzeMessages
	}

	msgs := make([]analyzedMessage, 0, returned)
	for _, m := range ext.Messages[:returned] {
		preview := transcript.Truncate(m.Content, previewLimit)
		am := analyzedMessage{
			SessionID:      m.SessionID,
			Project:        transcript.DecodeProjectName(m.Project),
			Timestamp:      timeString(m.Timestamp),
			Role:           m.Role,
			ContentPreview: preview.Content,
			ContentLength:  preview.OriginalLength,
			HasToolCalls:   len(m.ToolCalls) > 0,
			MessageIndex:   m.Index,
		}
		if includeTools {
			am.ToolCalls = m.ToolCalls
		}
		msgs = append(msgs, am)
	}

	// Summary statistics cover every filtered message, not just the
	// returned page.
	byRole := make(map[string]int)
	seen := make(map[string]struct{})
	var contentLen int
	for _, m := range ext.Messages {
		byRole[m.Role]++
		contentLen += utf8.RuneCountInString(m.Content)
		seen[shortID(m.SessionID)] = struct{}{}
	}
	var avg float64
	if total > 0 {
		avg = float64(contentLen) / float64(total)
	}
	withMessages := make([]string, 0, len(seen))
	for id := range seen {
		withMessages = append(withMessages, id)
	}
	sort.Strings(withMessages)
	if len(withMessages) > maxSummarySessions {
		withMessages = withMessages[:maxSummarySessions]
	}

	return jsonResult(analyzeResponse{
		SessionsAnalyzed: ext.SessionsScanned,
		TotalMessages:    total,
		MessagesReturned: returned,
		Messages:         msgs,
		Truncated:        total > maxAnalyzeMessages,
		Summary: analyzeSummary{
			MessagesByRole:      byRole,
			AvgContentLength:    avg,
			SessionsWithMessage: withMessages,
		},
		FilterApplied: analyzeFilter{
			RoleFilter:    roles.String(),
			DaysBack:      days,
			ProjectFilter: projectFilter,
			IncludeTools:  includeTools,
		},
		ParseErrors: failureStrings(ext.Failures),
	})
}
