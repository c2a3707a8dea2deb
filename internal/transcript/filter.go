package transcript

import (
	"fmt"
	"time"
)

// ─── Time windows ────────────────────────────────────────────────────────────

// Window is a closed time range. A zero bound means unbounded on that
// side; the zero Window contains everything.
type Window struct {
	Since time.Time
	Until time.Time
}

// WindowDaysBack builds the window [now-days, now]. Days must be
// positive; zero and negative values are rejected rather than silently
// widened.
func WindowDaysBack(days int) (Window, error) {
	if days <= 0 {
		return Window{}, fmt.Errorf("transcript: days_back must be positive, got %d: %w", days, ErrInvalidArgument)
	}
	now := timeNow()
	return Window{Since: now.AddDate(0, 0, -days), Until: now}, nil
}

// Contains reports whether t falls inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	if !w.Since.IsZero() && t.Before(w.Since) {
		return false
	}
	if !w.Until.IsZero() && t.After(w.Until) {
		return false
	}
	return true
}

// Extend widens the window so that since is covered. Used by search
// when an explicit start time predates the scan window.
func (w Window) Extend(since time.Time) Window {
	if since.IsZero() || w.Since.IsZero() || !since.Before(w.Since) {
		return w
	}
	return Window{Since: since, Until: w.Until}
}

// ─── Role filters ────────────────────────────────────────────────────────────

// RoleFilter selects which message roles an operation considers. The
// zero value is RoleFilterAll.
type RoleFilter int

const (
	// RoleFilterAll keeps every role, including tool and system turns.
	RoleFilterAll RoleFilter = iota
	// RoleFilterBoth keeps user and assistant turns only.
	RoleFilterBoth
	// RoleFilterUser keeps user turns only.
	RoleFilterUser
	// RoleFilterAssistant keeps assistant turns only.
	RoleFilterAssistant
)

// ParseRoleFilter maps the wire spelling of a role filter to its value.
// Unknown spellings are ErrInvalidArgument: a typo must not silently
// widen the result set.
func ParseRoleFilter(s string) (RoleFilter, error) {
	switch s {
	case "all":
		return RoleFilterAll, nil
	case "both":
		return RoleFilterBoth, nil
	case "user":
		return RoleFilterUser, nil
	case "assistant":
		return RoleFilterAssistant, nil
	default:
		return 0, fmt.Errorf("transcript: role filter must be one of user, assistant, both, all; got %q: %w", s, ErrInvalidArgument)
	}
}

func (f RoleFilter) String() string {
	switch f {
	case RoleFilterBoth:
		return "both"
	case RoleFilterUser:
		return "user"
	case RoleFilterAssistant:
		return "assistant"
	default:
		return "all"
	}
}

// Matches reports whether a message role passes the filter.
func (f RoleFilter) Matches(role string) bool {
	switch f {
	case RoleFilterUser:
		return role == RoleUser
	case RoleFilterAssistant:
		return role == RoleAssistant
	case RoleFilterBoth:
		return role == RoleUser || role == RoleAssistant
	default:
		return true
	}
}

// FilterMessages returns the messages passing the role filter. Indices
// are preserved, never renumbered: a filtered view still addresses the
// same turns as the full session.
func FilterMessages(msgs []Message, f RoleFilter) []Message {
	if f == RoleFilterAll {
		return msgs
	}
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if f.Matches(m.Role) {
			out = append(out, m)
		}
	}
	return out
}

// ─── Cross-session extraction ────────────────────────────────────────────────

// SessionMessage is a message annotated with the session it came from.
type SessionMessage struct {
	SessionID string
	Project   string
	Message
}

// Extraction is the result of pulling filtered messages out of every
// session in a window.
type Extraction struct {
	SessionsScanned int
	Messages        []SessionMessage
	Failures        []ParseFailure
}

// ExtractMessages parses every session in the window (most recent
// session first) and returns the role-filtered messages in session
// order. Sessions that fail to parse are reported and skipped.
func (s *Store) ExtractMessages(w Window, projectFilter string, roles RoleFilter) (*Extraction, error) {
	list, err := s.RecentSessions(w, projectFilter)
	if err != nil {
		return nil, err
	}

	ext := &Extraction{Failures: list.Failures}
	for _, sess := range list.Sessions {
		conv, err := parseFile(sess.FilePath, sess.Project, sess.ModTime)
		if err != nil {
			ext.Failures = append(ext.Failures, ParseFailure{File: sess.FilePath, Err: err})
			continue
		}
		ext.SessionsScanned++
		for _, m := range FilterMessages(conv.Messages, roles) {
			ext.Messages = append(ext.Messages, SessionMessage{
				SessionID: sess.ID,
				Project:   sess.Project,
				Message:   m,
			})
		}
	}
	return ext, nil
}
