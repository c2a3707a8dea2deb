// Package sessiontools provides the MCP tool handlers over Claude Code
// conversation history.
//
// Each tool handler follows the same pattern:
// - A struct with dependencies (transcript.Store, logger) injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Tools are read-only: every response is re-derived from the transcript
// tree at call time. Argument and lookup failures come back as tool
// error results, never as Go errors from a handler.
package sessiontools

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/HendryAvila/retrace/internal/transcript"
	"github.com/mark3labs/mcp-go/mcp"
)

// Response caps. Large sessions stay navigable through index-based
// retrieval rather than bigger payloads.
const (
	maxDaysBack        = 7
	maxContextWindow   = 5
	maxSearchResults   = 20
	maxAnalyzeMessages = 100
	maxDetailIndices   = 10
	maxSummarySessions = 10
)

// Per-item truncation limits, in runes.
const (
	previewLimit = 100
	matchLimit   = 300
	contextLimit = 200
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// intSliceArg extracts an integer array argument. JSON arrays arrive as
// []any with float64 elements; non-numeric elements are dropped.
func intSliceArg(req mcp.CallToolRequest, key string) []int {
	raw, ok := req.GetArguments()[key].([]any)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(float64); ok {
			out = append(out, int(f))
		}
	}
	return out
}

// daysBackWindow reads days_back, clamps it to the cap, and builds the
// scan window. The int return is the effective value for echoing back
// in responses. Zero and negative values are an error, not a default.
func daysBackWindow(req mcp.CallToolRequest, defaultDays int) (transcript.Window, int, error) {
	days := intArg(req, "days_back", defaultDays)
	if days > maxDaysBack {
		days = maxDaysBack
	}
	w, err := transcript.WindowDaysBack(days)
	return w, days, err
}

// parseTimeArg parses start_time/end_time values: RFC 3339 (with or
// without fractional seconds), a naive local datetime, or a bare date.
func parseTimeArg(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q (want RFC 3339 or 2006-01-02T15:04:05)", s)
}

// jsonResult marshals a response document into a text result. Every
// tool answers with indented JSON.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// timeString renders a timestamp for responses, nil when absent.
func timeString(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

// failureStrings flattens parse failures for the response's
// parse_errors field. Always non-nil so the field marshals as [].
func failureStrings(fs []transcript.ParseFailure) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Error())
	}
	return out
}

// warnFailures notes skipped files once per call. The details travel in
// the response's parse_errors, this is just the operator's breadcrumb.
func warnFailures(log *slog.Logger, tool string, fs []transcript.ParseFailure) {
	if len(fs) == 0 || log == nil {
		return
	}
	log.Warn("skipped unparseable session files", "tool", tool, "count", len(fs))
}

// sessionJSON is the wire shape of one session in listing responses.
type sessionJSON struct {
	SessionID        string  `json:"session_id"`
	FilePath         string  `json:"file_path"`
	MessageCount     int     `json:"message_count"`
	StartedAt        *string `json:"started_at"`
	EndedAt          *string `json:"ended_at"`
	WorkingDirectory string  `json:"working_directory,omitempty"`
	GitBranch        string  `json:"git_branch,omitempty"`
	Summary          string  `json:"summary,omitempty"`
	ProjectName      string  `json:"project_name,omitempty"`
	ProjectDecoded   string  `json:"project_decoded,omitempty"`
}

// sessionInfo shapes one session. withProject adds the cross-project
// listing fields.
func sessionInfo(s transcript.Session, withProject bool) sessionJSON {
	out := sessionJSON{
		SessionID:        s.ID,
		FilePath:         s.FilePath,
		MessageCount:     s.MessageCount,
		StartedAt:        timeString(s.StartedAt),
		EndedAt:          timeString(s.EndedAt),
		WorkingDirectory: s.WorkingDirectory,
		GitBranch:        s.GitBranch,
		Summary:          s.Summary,
	}
	if withProject {
		out.ProjectName = s.Project
		out.ProjectDecoded = transcript.DecodeProjectName(s.Project)
	}
	return out
}

// shortID abbreviates a session UUID for summary listings.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}
