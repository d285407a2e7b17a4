package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/HendryAvila/factree/internal/config"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultConstitution seeds factree/memory/constitution.md so the
// validator has a policy to enforce from the first run.
const defaultConstitution = `# Project Constitution

## Principles

1. Context Efficiency: task descriptions stay concise and scannable.
2. Simplicity Gates: use framework built-ins before custom code.
3. Framework Trust: rely on framework defaults, don't reinvent them.
4. Agent-Centric Design: tasks are written for execution, not conversation.
5. Test-First Discipline: every task carries a runnable verification command.
6. Traceability: every task links back to a requirement and an outcome.
`

// defaultBoundaries seeds factree/memory/architecture-boundaries.md.
const defaultBoundaries = `# Architecture Boundaries

Approved components:

- Django REST endpoint
- Django model
- Celery task
- React component
- Generic component
`

// InitTool handles the factree_init MCP tool.
// It creates the factree/ directory structure and initial configuration.
type InitTool struct {
	store config.Store
}

// NewInitTool creates an InitTool with the given config store.
func NewInitTool(store config.Store) *InitTool {
	return &InitTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *InitTool) Definition() mcp.Tool {
	return mcp.NewTool("factree_init",
		mcp.WithDescription(
			"Initialize a new factree project. Creates the factree/ directory "+
				"with configuration and the policy documents the validator enforces. "+
				"This is always the first step before running the pipeline.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Project name"),
		),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("Brief description of what the project does"),
		),
		mcp.WithString("mode",
			mcp.Description("Gate mode: 'strict' (blocking violations stop stage advancement) "+
				"or 'advisory' (violations are reported but never block). Defaults to 'strict'."),
			mcp.DefaultString("strict"),
			mcp.Enum("strict", "advisory"),
		),
	)
}

// Handle processes the factree_init tool call.
func (t *InitTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	description := req.GetString("description", "")
	modeStr := req.GetString("mode", "strict")

	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}
	if description == "" {
		return mcp.NewToolResultError("'description' is required"), nil
	}

	mode := config.Mode(modeStr)
	if err := config.ValidateMode(mode); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	// Guard: don't overwrite an existing project.
	if t.store.Exists(projectRoot) {
		return mcp.NewToolResultError(
			"factree project already exists in this directory. Use factree_status to see current state.",
		), nil
	}

	// Create directory structure.
	factreeDir := config.FactreePath(projectRoot)
	dirs := []string{
		factreeDir,
		filepath.Join(factreeDir, config.MemoryDir),
		filepath.Join(factreeDir, "runs"),
		filepath.Join(factreeDir, "history"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	// Seed policy documents, but never overwrite existing ones.
	policyPath := config.ConstitutionPath(projectRoot)
	if _, err := os.Stat(policyPath); os.IsNotExist(err) {
		if err := writeDoc(policyPath, defaultConstitution); err != nil {
			return nil, fmt.Errorf("writing constitution: %w", err)
		}
	}
	boundariesPath := config.BoundariesPath(projectRoot)
	if _, err := os.Stat(boundariesPath); os.IsNotExist(err) {
		if err := writeDoc(boundariesPath, defaultBoundaries); err != nil {
			return nil, fmt.Errorf("writing boundaries: %w", err)
		}
	}

	// Write initial config.
	cfg := config.NewProjectConfig(name, description, mode)
	if err := t.store.Save(projectRoot, cfg); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	modeHint := "Blocking violations will stop stage advancement."
	if mode == config.ModeAdvisory {
		modeHint = "Violations are reported but never block advancement."
	}

	response := fmt.Sprintf(
		"# factree Project Initialized\n\n"+
			"**Project:** %s\n"+
			"**Gate mode:** %s\n"+
			"**Location:** `factree/`\n\n"+
			"## What was created\n\n"+
			"```\nfactree/\n"+
			"├── factree.json                      # Project configuration\n"+
			"├── memory/\n"+
			"│   ├── constitution.md               # Policy the validator enforces\n"+
			"│   └── architecture-boundaries.md    # Approved component list\n"+
			"├── runs/                             # Active pipeline runs\n"+
			"└── history/                          # Archived runs\n```\n\n"+
			"%s\n\n"+
			"## Next Step\n\n"+
			"Call `factree_run_stage` with a run description and your feature "+
			"specification to start a pipeline run at the **specify** stage.",
		name, mode, modeHint,
	)

	return mcp.NewToolResultText(response), nil
}
