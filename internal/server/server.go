// Package server wires all MCP components and creates the server instance.
//
// This is the composition root (DIP): it creates concrete implementations
// and injects them into the tools/prompts/resources that depend on abstractions.
// No business logic lives here — only wiring.
package server

import (
	"github.com/HendryAvila/factree/internal/config"
	"github.com/HendryAvila/factree/internal/history"
	"github.com/HendryAvila/factree/internal/pipeline"
	"github.com/HendryAvila/factree/internal/prompts"
	"github.com/HendryAvila/factree/internal/resources"
	"github.com/HendryAvila/factree/internal/tools"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The logger must write to stderr — stdout is reserved for MCP stdio.
//
// The returned cleanup function closes the history store's database
// connection and must be called on shutdown (typically via defer).
// It is always non-nil and safe to call even if history init failed.
func New(logger *zap.Logger) (*server.MCPServer, func(), error) {
	// --- Create shared dependencies ---

	cfgStore := config.NewFileStore()
	runStore := pipeline.NewFileStore()

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"factree",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register pipeline tools ---

	initTool := tools.NewInitTool(cfgStore)
	s.AddTool(initTool.Definition(), initTool.Handle)

	runStageTool := tools.NewRunStageTool(cfgStore, runStore)
	s.AddTool(runStageTool.Definition(), runStageTool.Handle)

	validateTool := tools.NewValidateTool()
	s.AddTool(validateTool.Definition(), validateTool.Handle)

	parseTool := tools.NewParseTasksTool()
	s.AddTool(parseTool.Definition(), parseTool.Handle)

	orderTool := tools.NewOrderTool()
	s.AddTool(orderTool.Definition(), orderTool.Handle)

	boundariesTool := tools.NewBoundariesTool()
	s.AddTool(boundariesTool.Definition(), boundariesTool.Handle)

	statusTool := tools.NewStatusTool(runStore)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	// --- Wire validation history ---
	//
	// History is an independent subsystem: if it fails to initialize,
	// the pipeline tools continue working without it. We log a warning
	// and skip the wiring — the server is still fully functional.

	cleanup := noop
	histStore, histErr := history.New(history.DefaultConfig())
	if histErr != nil {
		logger.Warn("validation history disabled", zap.Error(histErr))
	} else {
		cleanup = func() {
			if err := histStore.Close(); err != nil {
				logger.Warn("history store close", zap.Error(err))
			}
		}
		runStageTool.SetHistory(histStore)
		validateTool.SetHistory(histStore)
		statusTool.SetHistory(histStore)
	}

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(runStore)
	s.AddResource(resourceHandler.StatusResource(), resourceHandler.HandleStatus)

	return s, cleanup, nil
}

// noop is a no-op cleanup function used as the default when history
// is disabled or hasn't been initialized.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to drive the factree pipeline.
func serverInstructions() string {
	return `You have access to factree, a TDD document compiler MCP server.

## What factree does

factree compiles a human-written feature specification into a chain of
structured phase documents:

1. specify — spec → requirements.md + test-cases.md
2. red     — test cases → red-phase.md (failing test tasks + setup tasks)
3. green   — red tasks → green-phase.md (minimal implementation tasks)
4. verify  — green tasks → compliance-report.md (constitutional pass)

Every transformation is deterministic: same input, same output. The
documents use a strict record grammar (OUT-N, REQ-NNN, TEST-NNN,
RED-NNN, GREEN-NNN) with ordered fields; malformed records are dropped
whole and reported, never partially parsed.

## Workflow

1. Run factree_init once per project (creates factree/ with the
   constitution and architecture boundaries documents).
2. Collect the user's feature spec: OUT-N outcome records, each with
   '- Success Criteria:' bullet lines, plus an optional Constraints block.
3. Run factree_run_stage with a run description and the spec. Then keep
   calling factree_run_stage to walk red → green → verify.
4. Between stages, use factree_validate, factree_parse_tasks,
   factree_order, and factree_boundaries to inspect documents.
5. factree_status shows run progress and recent validation history.

## Rules

- Stage outputs are generated by the compiler, not by you. Do not edit
  the generated documents by hand; fix the spec and re-run instead.
- In strict gate mode a stage with blocking violations (error or
  critical) will not advance. Present the violation report to the user
  and help them resolve it at the source.
- A missing constitution document is itself a critical violation - the
  validator never silently passes.
- Only one run is active at a time. Completed runs can be archived.`
}
