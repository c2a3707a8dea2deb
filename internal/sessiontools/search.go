package sessiontools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/HendryAvila/retrace/internal/transcript"
	"github.com/mark3labs/mcp-go/mcp"
)

// SearchTool handles the search_conversations MCP tool.
type SearchTool struct {
	store *transcript.Store
	log   *slog.Logger
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(store *transcript.Store, log *slog.Logger) *SearchTool {
	return &SearchTool{store: store, log: log}
}

type contextItem struct {
	Index         int     `json:"index"`
	Role          string  `json:"role"`
	Content       string  `json:"content"`
	ContentLength int     `json:"content_length"`
	Truncated     bool    `json:"truncated"`
	Timestamp     *string `json:"timestamp"`
	IsMatch       bool    `json:"is_match"`
}

type searchResult struct {
	SessionID          string        `json:"session_id"`
	Project            string        `json:"project"`
	MatchIndex         int           `json:"match_index"`
	MatchTimestamp     *string       `json:"match_timestamp"`
	MatchContent       string        `json:"match_content"`
	MatchContentLength int           `json:"match_content_length"`
	MatchTruncated     bool          `json:"match_truncated"`
	Context            []contextItem `json:"context"`
}

type searchResponse struct {
	Query             string         `json:"query"`
	TotalMatches      int            `json:"total_matches"`
	ContextWindowSize int            `json:"context_window_size"`
	Results           []searchResult `json:"results"`
	ParseErrors       []string       `json:"parse_errors"`
}

// Definition returns the MCP tool definition for search_conversations.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("search_conversations",
		mcp.WithDescription(
			"Search message content across recent sessions and return each match "+
				"with surrounding conversation context. Substring matching, "+
				"case-insensitive by default. Use match_index or a context index "+
				"with get_message_details to read a full message.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search term or phrase"),
		),
		mcp.WithNumber("context_window",
			mcp.Description("Messages of context on each side of a match (default 1, max 5)"),
		),
		mcp.WithNumber("days_back",
			mcp.Description("Days back to search (default 2, max 7)"),
		),
		mcp.WithString("project_filter",
			mcp.Description("Only search projects whose name contains this substring"),
		),
		mcp.WithBoolean("case_sensitive",
			mcp.Description("Match case exactly (default false)"),
		),
		mcp.WithString("role_filter",
			mcp.Description("Restrict matches to roles: user, assistant, both, or all (default all); context keeps every role"),
		),
		mcp.WithString("start_time",
			mcp.Description("Only match messages at or after this time (RFC 3339 or 2006-01-02T15:04:05); widens days_back when older"),
		),
		mcp.WithString("end_time",
			mcp.Description("Only match messages at or before this time"),
		),
	)
}

// Handle processes the search_conversations tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}
	window, _, err := daysBackWindow(req, 2)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	contextWindow := intArg(req, "context_window", 1)
	if contextWindow > maxContextWindow {
		contextWindow = maxContextWindow
	}
	roles, err := transcript.ParseRoleFilter(req.GetString("role_filter", "all"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var since, until time.Time
	if s := req.GetString("start_time", ""); s != "" {
		if since, err = parseTimeArg(s); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("'start_time': %v", err)), nil
		}
	}
	if s := req.GetString("end_time", ""); s != "" {
		if until, err = parseTimeArg(s); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("'end_time': %v", err)), nil
		}
	}

	report, err := t.store.Search(ctx, transcript.SearchOptions{
		Query:         query,
		Window:        window,
		ContextWindow: contextWindow,
		CaseSensitive: boolArg(req, "case_sensitive", false),
		ProjectFilter: req.GetString("project_filter", ""),
		Roles:         roles,
		Since:         since,
		Until:         until,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	warnFailures(t.log, "search_conversations", report.Failures)

	matches := report.Matches
	total := len(matches)
	if len(matches) > maxSearchResults {
		matches = matches[:maxSearchResults]
	}

	results := make([]searchResult, 0, len(matches))
	for _, m := range matches {
		match := transcript.Truncate(m.Message.Content, matchLimit)
		item := searchResult{
			SessionID:          m.SessionID,
			Project:            transcript.DecodeProjectName(m.Project),
			MatchIndex:         m.Message.Index,
			MatchTimestamp:     timeString(m.Message.Timestamp),
			MatchContent:       match.Content,
			MatchContentLength: match.OriginalLength,
			MatchTruncated:     match.Truncated,
			Context:            make([]contextItem, 0, len(m.Context)),
		}
		for _, c := range m.Context {
			snippet := transcript.Truncate(c.Content, contextLimit)
			item.Context = append(item.Context, contextItem{
				Index:         c.Index,
				Role:          c.Role,
				Content:       snippet.Content,
				ContentLength: snippet.OriginalLength,
				Truncated:     snippet.Truncated,
				Timestamp:     timeString(c.Timestamp),
				IsMatch:       c.IsMatch,
			})
		}
		results = append(results, item)
	}

	return jsonResult(searchResponse{
		Query:             query,
		TotalMatches:      total,
		ContextWindowSize: contextWindow,
		Results:           results,
		ParseErrors:       failureStrings(report.Failures),
	})
}
