// Package transcript implements read-only access to Claude Code
// conversation history.
//
// Claude Code writes one JSONL transcript per session under
// ~/.claude/projects/<encoded-project>/<session-id>.jsonl. The store
// re-derives everything from that tree on every call: no index, no
// cache, no write path. A Store value is immutable and safe for
// concurrent use.
package transcript

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// timeNow is a package-level var to allow test injection.
var timeNow = time.Now

// Sentinel errors classified by the tool layer via errors.Is.
var (
	// ErrNotFound reports a missing projects root, project, session,
	// or message index.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument reports a malformed filter, range, or query
	// argument. No partial work is attempted.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ─── Types ───────────────────────────────────────────────────────────────────

// Project is one directory under the projects root. The directory name
// encodes the working directory path with non-path characters replaced
// by dashes; DecodedName restores the slashes.
type Project struct {
	Name           string    `json:"name"`
	Path           string    `json:"path"`
	DecodedName    string    `json:"decoded_name"`
	SessionCount   int       `json:"session_count"`
	LatestActivity time.Time `json:"latest_activity"`
}

// Session is the metadata view of one transcript file. StartedAt and
// EndedAt come from the first and last message timestamps and are zero
// when the file carries no timestamps.
type Session struct {
	ID               string    `json:"session_id"`
	Project          string    `json:"project"`
	FilePath         string    `json:"file_path"`
	MessageCount     int       `json:"message_count"`
	StartedAt        time.Time `json:"started_at"`
	EndedAt          time.Time `json:"ended_at"`
	ModTime          time.Time `json:"mod_time"`
	Summary          string    `json:"summary,omitempty"`
	WorkingDirectory string    `json:"working_directory,omitempty"`
	GitBranch        string    `json:"git_branch,omitempty"`
}

// Message is one conversation turn. Index is the 0-based position
// within the session and is the stable identifier for later retrieval;
// filtering never renumbers it.
type Message struct {
	Index     int        `json:"index"`
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Timestamp time.Time  `json:"timestamp"`
	UUID      string     `json:"uuid,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Message roles. Tool-result turns are stored by Claude Code as user
// records whose content is entirely tool_result blocks; the parser
// reports those as RoleTool.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
	RoleSystem    = "system"
)

// ToolCall is one tool invocation payload attached to a message.
type ToolCall struct {
	Name  string `json:"name"`
	Input string `json:"input,omitempty"`
}

// Conversation is a fully parsed session: its metadata plus the
// ordered message sequence.
type Conversation struct {
	Session  Session
	Messages []Message
}

// ParseFailure records one session file that could not be parsed. It
// is reported alongside successful items, never fatal to the call.
type ParseFailure struct {
	File string `json:"file"`
	Err  error  `json:"-"`
}

func (f ParseFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.File, f.Err)
}

// SessionList bundles a listing result with the per-file failures
// encountered while producing it.
type SessionList struct {
	Sessions []Session
	Failures []ParseFailure
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds store configuration. ProjectsDir is the only knob: the
// root of the per-project transcript tree.
type Config struct {
	ProjectsDir string
}

// DefaultConfig resolves the projects root the same way Claude Code
// does: CLAUDE_CONFIG_DIR when set, else ~/.claude.
func DefaultConfig() Config {
	if dir := os.Getenv("CLAUDE_CONFIG_DIR"); dir != "" {
		return Config{ProjectsDir: filepath.Join(dir, "projects")}
	}
	home, _ := os.UserHomeDir()
	return Config{ProjectsDir: filepath.Join(home, ".claude", "projects")}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store reads the transcript tree. It holds no open handles and no
// derived state; every method is a fresh bounded scan.
type Store struct {
	cfg Config
}

// New creates a Store over the given configuration. The projects root
// is not required to exist yet; a missing root surfaces as ErrNotFound
// from the query methods.
func New(cfg Config) *Store {
	return &Store{cfg: cfg}
}

// ProjectsDir returns the configured root directory.
func (s *Store) ProjectsDir() string {
	return s.cfg.ProjectsDir
}

// Projects enumerates all project directories that contain at least one
// session file, sorted by latest activity descending (name ascending on
// ties).
func (s *Store) Projects() ([]Project, error) {
	entries, err := os.ReadDir(s.cfg.ProjectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("transcript: projects root %q: %w", s.cfg.ProjectsDir, ErrNotFound)
		}
		return nil, fmt.Errorf("transcript: read projects root: %w", err)
	}

	projects := make([]Project, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(s.cfg.ProjectsDir, entry.Name())
		files, err := sessionFiles(dir)
		if err != nil || len(files) == 0 {
			continue
		}

		var latest time.Time
		for _, f := range files {
			if f.modTime.After(latest) {
				latest = f.modTime
			}
		}
		projects = append(projects, Project{
			Name:           entry.Name(),
			Path:           dir,
			DecodedName:    DecodeProjectName(entry.Name()),
			SessionCount:   len(files),
			LatestActivity: latest,
		})
	}

	sort.Slice(projects, func(i, j int) bool {
		if !projects[i].LatestActivity.Equal(projects[j].LatestActivity) {
			return projects[i].LatestActivity.After(projects[j].LatestActivity)
		}
		return projects[i].Name < projects[j].Name
	})
	return projects, nil
}

// Sessions lists the sessions of one project whose last activity falls
// within the window, sorted by start time descending (ID ascending on
// ties). Malformed files are skipped and reported in the result, not
// allowed to abort the listing. The project not existing is ErrNotFound.
func (s *Store) Sessions(project string, w Window) (*SessionList, error) {
	if err := validName(project); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.cfg.ProjectsDir, project)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("transcript: project %q: %w", project, ErrNotFound)
		}
		return nil, fmt.Errorf("transcript: stat project %q: %w", project, err)
	}
	return s.listSessions(project, dir, w)
}

// RecentSessions lists sessions across every project matching the
// optional filter (case-insensitive substring over the encoded or
// decoded name), sorted by start time descending across projects.
// An empty result is valid, not an error.
func (s *Store) RecentSessions(w Window, projectFilter string) (*SessionList, error) {
	entries, err := os.ReadDir(s.cfg.ProjectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("transcript: projects root %q: %w", s.cfg.ProjectsDir, ErrNotFound)
		}
		return nil, fmt.Errorf("transcript: read projects root: %w", err)
	}

	all := &SessionList{}
	for _, entry := range entries {
		if !entry.IsDir() || !MatchesProjectFilter(entry.Name(), projectFilter) {
			continue
		}
		dir := filepath.Join(s.cfg.ProjectsDir, entry.Name())
		list, err := s.listSessions(entry.Name(), dir, w)
		if err != nil {
			return nil, err
		}
		all.Sessions = append(all.Sessions, list.Sessions...)
		all.Failures = append(all.Failures, list.Failures...)
	}

	sortSessions(all.Sessions)
	return all, nil
}

// ReadSession locates a session by ID across all projects and parses
// its full message sequence. Unknown IDs are ErrNotFound; a located
// but unparseable file is an error (the file is the request target,
// there is nothing to recover).
func (s *Store) ReadSession(sessionID string) (*Conversation, error) {
	if err := validName(sessionID); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.cfg.ProjectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("transcript: projects root %q: %w", s.cfg.ProjectsDir, ErrNotFound)
		}
		return nil, fmt.Errorf("transcript: read projects root: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(s.cfg.ProjectsDir, entry.Name(), sessionID+".jsonl")
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		conv, err := parseFile(path, entry.Name(), info.ModTime())
		if err != nil {
			return nil, fmt.Errorf("transcript: session %q: %w", sessionID, err)
		}
		return conv, nil
	}
	return nil, fmt.Errorf("transcript: session %q: %w", sessionID, ErrNotFound)
}

// listSessions scans one project directory. The window filter applies
// to file modification time, which tracks the last appended message.
func (s *Store) listSessions(project, dir string, w Window) (*SessionList, error) {
	files, err := sessionFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("transcript: read project %q: %w", project, err)
	}

	list := &SessionList{}
	for _, f := range files {
		if !w.Contains(f.modTime) {
			continue
		}
		conv, err := parseFile(f.path, project, f.modTime)
		if err != nil {
			list.Failures = append(list.Failures, ParseFailure{File: f.path, Err: err})
			continue
		}
		list.Sessions = append(list.Sessions, conv.Session)
	}

	sortSessions(list.Sessions)
	return list, nil
}

// sessionFile is one discovered transcript with its stat metadata.
type sessionFile struct {
	path    string
	name    string
	modTime time.Time
}

// sessionFiles returns the transcript files in a project directory.
// Subagent sidecars (agent-*.jsonl) are not sessions and are skipped.
func sessionFiles(dir string) ([]sessionFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make([]sessionFile, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".jsonl") || strings.HasPrefix(name, "agent-") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, sessionFile{
			path:    filepath.Join(dir, name),
			name:    name,
			modTime: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })
	return files, nil
}

// sortSessions orders by start time descending, session ID ascending
// on ties. Sessions without timestamps sort last.
func sortSessions(sessions []Session) {
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].StartedAt.Equal(sessions[j].StartedAt) {
			return sessions[i].StartedAt.After(sessions[j].StartedAt)
		}
		return sessions[i].ID < sessions[j].ID
	})
}

// DecodeProjectName restores the slashes in an encoded project
// directory name.
func DecodeProjectName(encoded string) string {
	return strings.ReplaceAll(encoded, "-", "/")
}

// MatchesProjectFilter reports whether a project directory name matches
// the filter: empty matches everything, otherwise a case-insensitive
// substring test against the encoded and decoded forms.
func MatchesProjectFilter(name, filter string) bool {
	if filter == "" {
		return true
	}
	f := strings.ToLower(filter)
	return strings.Contains(strings.ToLower(name), f) ||
		strings.Contains(strings.ToLower(DecodeProjectName(name)), f)
}

// validName rejects identifiers that could escape the projects root.
func validName(name string) error {
	if name == "" {
		return fmt.Errorf("transcript: empty name: %w", ErrInvalidArgument)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("transcript: name %q contains path separators: %w", name, ErrInvalidArgument)
	}
	return nil
}
