package transcript

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// searchWorkers bounds concurrent file parses during a search.
const searchWorkers = 8

// SearchOptions controls one search pass over the transcript tree.
type SearchOptions struct {
	// Query is the substring to look for. Must not be empty.
	Query string

	// Window restricts which sessions are scanned, by file activity.
	Window Window

	// ContextWindow is how many neighboring messages to return on each
	// side of a match. Zero means the match alone.
	ContextWindow int

	// CaseSensitive disables the default case folding.
	CaseSensitive bool

	// ProjectFilter restricts scanned projects, substring semantics as
	// in MatchesProjectFilter.
	ProjectFilter string

	// Roles restricts which messages can match. Context around a match
	// always carries every role.
	Roles RoleFilter

	// Since and Until, when set, restrict matches by message timestamp.
	// Messages without timestamps cannot match a bounded search. Since
	// also widens the session scan window when it predates it.
	Since time.Time
	Until time.Time
}

// ContextMessage is one message in the neighborhood of a match.
type ContextMessage struct {
	Message
	IsMatch bool
}

// SearchMatch is one matching message with its surrounding context.
type SearchMatch struct {
	SessionID    string
	Project      string
	SessionStart time.Time
	Message      Message
	Context      []ContextMessage
}

// SearchReport is the result of one search pass.
type SearchReport struct {
	Matches         []SearchMatch
	SessionsScanned int
	Failures        []ParseFailure
}

// Search scans every session in the window for the query, parsing
// files concurrently, and returns all matches in deterministic order:
// project name ascending, then session recency descending, then
// message index ascending. Matches are never deduplicated; a session
// with three hits yields three results.
func (s *Store) Search(ctx context.Context, opts SearchOptions) (*SearchReport, error) {
	if strings.TrimSpace(opts.Query) == "" {
		return nil, fmt.Errorf("transcript: search query must not be empty: %w", ErrInvalidArgument)
	}
	if opts.ContextWindow < 0 {
		return nil, fmt.Errorf("transcript: context window must not be negative, got %d: %w", opts.ContextWindow, ErrInvalidArgument)
	}

	window := opts.Window.Extend(opts.Since)
	list, err := s.RecentSessions(window, opts.ProjectFilter)
	if err != nil {
		return nil, err
	}

	needle := opts.Query
	if !opts.CaseSensitive {
		needle = strings.ToLower(needle)
	}

	// One slot per session keeps the gather race-free without locks;
	// the final sort restores a deterministic order.
	perSession := make([][]SearchMatch, len(list.Sessions))
	parseErrs := make([]error, len(list.Sessions))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(searchWorkers)
	for i, sess := range list.Sessions {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			conv, err := parseFile(sess.FilePath, sess.Project, sess.ModTime)
			if err != nil {
				parseErrs[i] = err
				return nil
			}
			perSession[i] = matchConversation(conv, opts, needle)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("transcript: search: %w", err)
	}

	report := &SearchReport{Failures: list.Failures}
	for i := range list.Sessions {
		if parseErrs[i] != nil {
			report.Failures = append(report.Failures, ParseFailure{File: list.Sessions[i].FilePath, Err: parseErrs[i]})
			continue
		}
		report.SessionsScanned++
		report.Matches = append(report.Matches, perSession[i]...)
	}

	sort.Slice(report.Matches, func(i, j int) bool {
		a, b := report.Matches[i], report.Matches[j]
		if a.Project != b.Project {
			return a.Project < b.Project
		}
		if !a.SessionStart.Equal(b.SessionStart) {
			return a.SessionStart.After(b.SessionStart)
		}
		if a.SessionID != b.SessionID {
			return a.SessionID < b.SessionID
		}
		return a.Message.Index < b.Message.Index
	})
	return report, nil
}

// matchConversation finds the query in one parsed session. The role
// and timestamp restrictions apply to the matching message only, not
// to its context.
func matchConversation(conv *Conversation, opts SearchOptions, needle string) []SearchMatch {
	bounded := !opts.Since.IsZero() || !opts.Until.IsZero()

	var out []SearchMatch
	for i, m := range conv.Messages {
		if !opts.Roles.Matches(m.Role) {
			continue
		}
		if bounded {
			if m.Timestamp.IsZero() {
				continue
			}
			if !opts.Since.IsZero() && m.Timestamp.Before(opts.Since) {
				continue
			}
			if !opts.Until.IsZero() && m.Timestamp.After(opts.Until) {
				continue
			}
		}
		content := m.Content
		if !opts.CaseSensitive {
			content = strings.ToLower(content)
		}
		if !strings.Contains(content, needle) {
			continue
		}
		out = append(out, SearchMatch{
			SessionID:    conv.Session.ID,
			Project:      conv.Session.Project,
			SessionStart: conv.Session.StartedAt,
			Message:      m,
			Context:      contextAround(conv.Messages, i, opts.ContextWindow),
		})
	}
	return out
}

// contextAround returns the messages in [i-n, i+n], clamped to the
// session bounds. The window never wraps and never drops below the
// match itself.
func contextAround(msgs []Message, i, n int) []ContextMessage {
	lo := i - n
	if lo < 0 {
		lo = 0
	}
	hi := i + n
	if hi > len(msgs)-1 {
		hi = len(msgs) - 1
	}
	out := make([]ContextMessage, 0, hi-lo+1)
	for j := lo; j <= hi; j++ {
		out = append(out, ContextMessage{Message: msgs[j], IsMatch: j == i})
	}
	return out
}
