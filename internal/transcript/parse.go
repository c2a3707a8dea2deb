package transcript

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Transcript lines can carry large embedded tool output; give the
// scanner generous headroom.
const (
	scanInitialBuf = 64 * 1024
	scanMaxBuf     = 10 * 1024 * 1024
)

// record is the subset of a transcript line this package reads. Every
// line is a standalone JSON object; fields irrelevant here are ignored.
type record struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	UUID      string          `json:"uuid"`
	Timestamp string          `json:"timestamp"`
	CWD       string          `json:"cwd"`
	GitBranch string          `json:"gitBranch"`
	Summary   string          `json:"summary"`
	Message   json.RawMessage `json:"message"`
}

// recordMessage is the nested message object of user and assistant
// records. Content is either a plain string or an array of blocks.
type recordMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// contentBlock is one element of a structured content array.
type contentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// parseFile reads one session file into a Conversation. Individual
// malformed lines are skipped; a file that contains data but yields no
// valid record at all is treated as malformed.
func parseFile(path, project string, modTime time.Time) (*Conversation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	conv := &Conversation{
		Session: Session{
			ID:       sessionIDFromPath(path),
			Project:  project,
			FilePath: path,
			ModTime:  modTime,
		},
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, scanInitialBuf), scanMaxBuf)

	sawData := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		sawData = true

		var rec record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		applyRecord(conv, &rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", filepath.Base(path), err)
	}
	if sawData && len(conv.Messages) == 0 && conv.Session.Summary == "" {
		return nil, fmt.Errorf("no parseable records in %s", filepath.Base(path))
	}

	conv.Session.MessageCount = len(conv.Messages)
	if n := len(conv.Messages); n > 0 {
		conv.Session.StartedAt = firstTimestamp(conv.Messages)
		conv.Session.EndedAt = lastTimestamp(conv.Messages)
	}
	return conv, nil
}

// applyRecord folds one parsed line into the conversation. Records
// without a message role (summaries, hook output, file snapshots) are
// not conversation turns and never receive a message index.
func applyRecord(conv *Conversation, rec *record) {
	if rec.Type == "summary" && rec.Summary != "" && conv.Session.Summary == "" {
		conv.Session.Summary = rec.Summary
	}
	if rec.CWD != "" && conv.Session.WorkingDirectory == "" {
		conv.Session.WorkingDirectory = rec.CWD
	}
	if rec.GitBranch != "" && conv.Session.GitBranch == "" {
		conv.Session.GitBranch = rec.GitBranch
	}
	if len(rec.Message) == 0 {
		return
	}

	var rm recordMessage
	if err := json.Unmarshal(rec.Message, &rm); err != nil || rm.Role == "" {
		return
	}

	content, toolCalls, allToolResults := normalizeContent(rm.Content)
	role := rm.Role
	if role == RoleUser && allToolResults {
		role = RoleTool
	}

	msg := Message{
		Index:     len(conv.Messages),
		Role:      role,
		Content:   content,
		UUID:      rec.UUID,
		ToolCalls: toolCalls,
	}
	if ts, err := time.Parse(time.RFC3339Nano, rec.Timestamp); err == nil {
		msg.Timestamp = ts
	}
	conv.Messages = append(conv.Messages, msg)
}

// normalizeContent flattens a message content payload to plain text.
// String payloads pass through; block arrays contribute their text
// blocks joined with single spaces, with tool_use blocks collected as
// tool calls. allToolResults reports a non-empty block array made of
// nothing but tool_result blocks.
func normalizeContent(raw json.RawMessage) (content string, toolCalls []ToolCall, allToolResults bool) {
	if len(raw) == 0 {
		return "", nil, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil, false
	}

	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return "", nil, false
	}

	var parts []string
	allToolResults = len(blocks) > 0
	for _, b := range blocks {
		switch b.Type {
		case "text":
			if b.Text != "" {
				parts = append(parts, b.Text)
			}
		case "tool_use":
			toolCalls = append(toolCalls, ToolCall{Name: b.Name, Input: compactJSON(b.Input)})
		}
		if b.Type != "tool_result" {
			allToolResults = false
		}
	}
	return strings.Join(parts, " "), toolCalls, allToolResults
}

// compactJSON renders a raw JSON value as a single-line string for
// display. Invalid input passes through verbatim.
func compactJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func sessionIDFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".jsonl")
}

func firstTimestamp(msgs []Message) time.Time {
	for _, m := range msgs {
		if !m.Timestamp.IsZero() {
			return m.Timestamp
		}
	}
	return time.Time{}
}

func lastTimestamp(msgs []Message) time.Time {
	for i := len(msgs) - 1; i >= 0; i-- {
		if !msgs[i].Timestamp.IsZero() {
			return msgs[i].Timestamp
		}
	}
	return time.Time{}
}
