// Package prompts implements MCP prompt handlers for conversation
// history workflows.
//
// Unlike tools (which the AI calls), prompts are initiated by the user
// (e.g. via slash commands in the host client).
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// RecapPrompt handles the recap MCP prompt. It guides the model to
// reconstruct recent coding sessions with the server's query tools
// instead of summarizing blind.
type RecapPrompt struct{}

// NewRecapPrompt creates a RecapPrompt.
func NewRecapPrompt() *RecapPrompt {
	return &RecapPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *RecapPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("recap",
		mcp.WithPromptDescription(
			"Summarize recent Claude Code sessions: what was worked on, "+
				"key decisions, and loose ends. Optionally scoped to one project.",
		),
		mcp.WithArgument("project",
			mcp.ArgumentDescription("Project name filter (encoded or decoded form)"),
		),
		mcp.WithArgument("days_back",
			mcp.ArgumentDescription("How many days to cover (default 1, max 7)"),
		),
	)
}

// Handle processes the recap prompt request.
func (p *RecapPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	days := "1"
	project := ""
	scope := "across all projects"
	if args := req.Params.Arguments; args != nil {
		if d, ok := args["days_back"]; ok && d != "" {
			days = d
		}
		if proj, ok := args["project"]; ok && proj != "" {
			project = proj
			scope = fmt.Sprintf("for the project %q", proj)
		}
	}

	filterArg := ""
	if project != "" {
		filterArg = fmt.Sprintf(" and project_filter='%s'", project)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Recap the last %s day(s) of sessions %s", days, scope),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Give me a recap of my Claude Code sessions from the last %s day(s) %s.\n\n"+
						"Work through it like this:\n"+
						"1. Run `list_recent_sessions` with days_back=%s%s to see which sessions exist\n"+
						"2. Run `analyze_sessions` with the same filters for message previews and the role breakdown\n"+
						"3. Where a preview looks important but is cut off, fetch the full text with `get_message_details`\n"+
						"4. Then write the recap: per project, what was worked on, decisions made, problems hit, and anything left unfinished\n\n"+
						"Keep it brief and lead with the most recent work.",
					days, scope, days, filterArg,
				)),
			},
		},
	}, nil
}
