// Package resources implements MCP resource handlers for conversation
// history.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (claude://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/retrace/internal/transcript"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handler manages conversation history resource endpoints.
type Handler struct {
	store *transcript.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store *transcript.Store) *Handler {
	return &Handler{store: store}
}

// ProjectsResource returns the MCP resource definition for the project list.
func (h *Handler) ProjectsResource() mcp.Resource {
	return mcp.NewResource(
		"claude://projects",
		"Claude Code Projects",
		mcp.WithResourceDescription("All projects with recorded Claude Code sessions"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleProjects returns the project list as JSON.
func (h *Handler) HandleProjects(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	projects, err := h.store.Projects()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	data, err := json.MarshalIndent(projects, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling projects: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
