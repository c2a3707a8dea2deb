package sessiontools

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/HendryAvila/retrace/internal/transcript"
	"github.com/mark3labs/mcp-go/mcp"
)

// DetailsTool handles the get_message_details MCP tool.
type DetailsTool struct {
	store *transcript.Store
	log   *slog.Logger
}

// NewDetailsTool creates a DetailsTool.
func NewDetailsTool(store *transcript.Store, log *slog.Logger) *DetailsTool {
	return &DetailsTool{store: store, log: log}
}

// detailMessage carries the full untruncated content of one message.
type detailMessage struct {
	Index         int                   `json:"index"`
	Role          string                `json:"role"`
	Content       string                `json:"content"`
	ContentLength int                   `json:"content_length"`
	Timestamp     *string               `json:"timestamp"`
	HasToolCalls  bool                  `json:"has_tool_calls"`
	ToolCalls     []transcript.ToolCall `json:"tool_calls,omitempty"`
}

type indexError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

type detailsResponse struct {
	SessionID        string          `json:"session_id"`
	Project          string          `json:"project"`
	TotalMessages    int             `json:"total_messages_in_session"`
	RequestedMessage []detailMessage `json:"requested_messages"`
	Errors           []indexError    `json:"errors"`
}

// Definition returns the MCP tool definition for get_message_details.
func (t *DetailsTool) Definition() mcp.Tool {
	return mcp.NewTool("get_message_details",
		mcp.WithDescription(
			"Fetch full untruncated message content by session ID and message "+
				"index. Indices come from analyze_sessions (message_index) or "+
				"search_conversations (match_index and context indices).",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session ID, the transcript file name without .jsonl"),
		),
		mcp.WithArray("message_indices",
			mcp.Required(),
			mcp.Description("Message indices to retrieve (max 10 per call)"),
			mcp.Items(map[string]any{"type": "integer"}),
		),
	)
}

// Handle processes the get_message_details tool call.
func (t *DetailsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	if sessionID == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}
	indices := intSliceArg(req, "message_indices")
	if len(indices) == 0 {
		return mcp.NewToolResultError("'message_indices' is required"), nil
	}
	if len(indices) > maxDetailIndices {
		indices = indices[:maxDetailIndices]
	}

	conv, err := t.store.ReadSession(sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get message details: %v", err)), nil
	}

	resp := detailsResponse{
		SessionID:        conv.Session.ID,
		Project:          transcript.DecodeProjectName(conv.Session.Project),
		TotalMessages:    len(conv.Messages),
		RequestedMessage: make([]detailMessage, 0, len(indices)),
		Errors:           make([]indexError, 0),
	}
	for _, idx := range indices {
		if idx < 0 || idx >= len(conv.Messages) {
			resp.Errors = append(resp.Errors, indexError{
				Index: idx,
				Error: fmt.Sprintf("index out of range, session has %d messages", len(conv.Messages)),
			})
			continue
		}
		m := conv.Messages[idx]
		resp.RequestedMessage = append(resp.RequestedMessage, detailMessage{
			Index:         m.Index,
			Role:          m.Role,
			Content:       m.Content,
			ContentLength: utf8.RuneCountInString(m.Content),
			Timestamp:     timeString(m.Timestamp),
			HasToolCalls:  len(m.ToolCalls) > 0,
			ToolCalls:     m.ToolCalls,
		})
	}
	return jsonResult(resp)
}
