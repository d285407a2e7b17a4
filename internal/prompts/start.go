// Package prompts implements MCP prompt handlers for the factree pipeline.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the factree-start MCP prompt.
// It guides the AI to initialize a factree project and begin a run.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("factree-start",
		mcp.WithPromptDescription(
			"Start a factree TDD pipeline run. "+
				"Initializes the project if needed, then compiles your feature "+
				"specification through the specify, red, green, and verify stages.",
		),
		mcp.WithArgument("project_name",
			mcp.ArgumentDescription("Name of your project"),
		),
		mcp.WithArgument("mode",
			mcp.ArgumentDescription(
				"Gate mode: 'strict' (blocking violations stop advancement) or 'advisory' (report only). Default: strict",
			),
		),
	)
}

// Handle processes the factree-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	projectName := "my-project"
	if args := req.Params.Arguments; args != nil {
		if name, ok := args["project_name"]; ok && name != "" {
			projectName = name
		}
	}

	mode := "strict"
	if args := req.Params.Arguments; args != nil {
		if m, ok := args["mode"]; ok && m != "" {
			mode = m
		}
	}

	modeExplanation := ""
	if mode == "strict" {
		modeExplanation = "You're in **strict mode** — stages with blocking constitutional violations will not advance until the input is fixed."
	} else {
		modeExplanation = "You're in **advisory mode** — violations are reported but the pipeline always advances."
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Start factree run: %s", projectName),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to run the factree TDD pipeline for project '%s' in %s mode.\n\n"+
						"Please:\n"+
						"1. Run `factree_init` with name='%s', description (ask me for a brief description), and mode='%s'\n"+
						"2. Ask me for my feature specification (OUT-N outcomes with success criteria)\n"+
						"3. Run `factree_run_stage` with a run description and my spec to produce requirements and test cases\n"+
						"4. Keep calling `factree_run_stage` through the red, green, and verify stages, showing me each artifact\n\n"+
						"%s",
					projectName, mode, projectName, mode, modeExplanation,
				)),
			},
		},
	}, nil
}
