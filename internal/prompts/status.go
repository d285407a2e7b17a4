package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the factree-status MCP prompt.
// It instructs the AI to read and present the current run state.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("factree-status",
		mcp.WithPromptDescription(
			"Check the current status of your factree run. "+
				"Shows stage progress, artifacts produced, and recent "+
				"validation results.",
		),
	)
}

// Handle processes the factree-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "factree Run Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `factree_status` to check my pipeline run.\n\n" +
						"Then:\n" +
						"1. Show me the stage progress in a clear, visual format\n" +
						"2. Highlight any blocking violations from recent validations\n" +
						"3. Tell me exactly what I should do next\n" +
						"4. If there are completed artifacts, give me a brief summary of each",
				),
			},
		},
	}, nil
}
