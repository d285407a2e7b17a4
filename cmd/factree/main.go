// factree: TDD document compiler MCP server
//
// Compiles human-written feature specifications into a chain of phase
// documents (requirements, test cases, failing tests, minimal
// implementation) and validates each against a project constitution.
//
// Usage:
//
//	factree serve            # Start MCP server (stdio transport)
//	factree run              # Execute the active run's current stage
//	factree validate FILE    # Validate a phase document
//	factree parse FILE       # Parse a phase document, report dropped records
//	factree order FILE       # Print the task execution order
//	factree export FILE      # Export the parsed task tree as JSON
//	factree update           # Update to the latest version
//
// Exit codes: 0 on success, 1 when blocking violations are found,
// 2 on input/output errors.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HendryAvila/factree/internal/artifact"
	"github.com/HendryAvila/factree/internal/config"
	"github.com/HendryAvila/factree/internal/constitution"
	"github.com/HendryAvila/factree/internal/pipeline"
	"github.com/HendryAvila/factree/internal/server"
	"github.com/HendryAvila/factree/internal/tools"
	"github.com/HendryAvila/factree/internal/updater"
)

const (
	exitOK       = 0
	exitBlocking = 1
	exitIO       = 2
)

func main() {
	root := &cobra.Command{
		Use:           "factree",
		Short:         "TDD document compiler MCP server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		serveCmd(),
		runCmd(),
		validateCmd(),
		parseCmd(),
		orderCmd(),
		exportCmd(),
		updateCmd(),
		versionCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitIO)
	}
}

// newLogger builds the server logger. It must write to stderr —
// stdout is reserved for the MCP stdio transport.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			s, cleanup, err := server.New(logger)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer cleanup()

			// Background version check — prints to stderr so it
			// doesn't interfere with MCP's stdio transport.
			go checkForUpdates()

			return mcpserver.ServeStdio(s)
		},
	}
}

func runCmd() *cobra.Command {
	var specFile string
	var description string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the active run's current stage",
		Long: "Executes the current stage of the active pipeline run. " +
			"When no run is active, --description starts one at the specify stage. " +
			"The specify stage reads the feature specification from --spec.",
		RunE: func(cmd *cobra.Command, args []string) error {
			arguments := map[string]interface{}{}
			if description != "" {
				arguments["description"] = description
			}
			if specFile != "" {
				data, err := os.ReadFile(specFile)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error: reading spec: %v\n", err)
					os.Exit(exitIO)
				}
				arguments["spec"] = string(data)
			}

			tool := tools.NewRunStageTool(config.NewFileStore(), pipeline.NewFileStore())
			req := mcp.CallToolRequest{}
			req.Params.Arguments = arguments

			result, err := tool.Handle(context.Background(), req)
			if err != nil {
				return err
			}

			fmt.Println(resultText(result))
			if result.IsError {
				os.Exit(exitBlocking)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&specFile, "spec", "", "path to the feature specification (specify stage)")
	cmd.Flags().StringVar(&description, "description", "", "run description, starts a new run when none is active")
	return cmd
}

func validateCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a phase document against the constitution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := os.ReadFile(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(exitIO)
			}

			projectRoot, err := config.FindProjectRoot(".")
			if err != nil {
				// Outside a project the policy is by definition missing.
				projectRoot, _ = os.Getwd()
			}

			var validator *constitution.Validator
			policyPath := config.ConstitutionPath(projectRoot)
			if policy, err := os.ReadFile(policyPath); err == nil {
				validator = constitution.New(string(policy))
			} else {
				validator = constitution.NewMissingPolicy(policyPath)
			}

			violations := validator.Validate(string(doc), args[0])
			violations = append(violations, constitution.MalformedRecords(string(doc), args[0])...)

			if jsonOut {
				out, err := constitution.ExportJSON(violations)
				if err != nil {
					return err
				}
				fmt.Println(out)
			} else {
				fmt.Println(constitution.Report(violations))
			}

			if constitution.HasBlocking(violations) {
				os.Exit(exitBlocking)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit violations as JSON")
	return cmd
}

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse FILE",
		Short: "Parse a phase document and report dropped records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := os.ReadFile(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(exitIO)
			}

			tree := artifact.ParseTree(string(doc))
			fmt.Printf("setup: %d  test: %d  implementation: %d  integration: %d  config: %d  skip: %d  review: %d\n",
				len(tree.Red.Setup), len(tree.Red.Test),
				len(tree.Green.Implementation), len(tree.Green.Integration),
				len(tree.Green.Config), len(tree.Green.Skip), len(tree.Green.Review))

			dropped := artifact.DroppedRecords(string(doc))
			for _, d := range dropped {
				fmt.Printf("dropped %s-%s (line %d): %s\n", d.Kind, d.ID, d.Line, d.Reason)
			}
			if len(dropped) > 0 {
				os.Exit(exitBlocking)
			}
			return nil
		},
	}
}

func orderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "order FILE",
		Short: "Print the execution order of a phase document's tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := os.ReadFile(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(exitIO)
			}

			for _, id := range artifact.ExecutionOrder(string(doc)) {
				fmt.Println(id)
			}
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE",
		Short: "Export the parsed task tree as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := os.ReadFile(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(exitIO)
			}

			out, err := artifact.ExportJSON(artifact.ParseTree(string(doc)))
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
}

func updateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Update factree to the latest release",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(os.Stderr, "Checking for updates...\n")

			result := updater.CheckVersion(server.Version)
			if !result.UpdateAvailable {
				fmt.Fprintf(os.Stderr, "Already at the latest version (v%s)\n", result.CurrentVersion)
				return nil
			}

			fmt.Fprintf(os.Stderr, "New version available: v%s -> v%s\n", result.CurrentVersion, result.LatestVersion)
			fmt.Fprintf(os.Stderr, "Downloading...\n")

			if err := updater.SelfUpdate(server.Version); err != nil {
				fmt.Fprintf(os.Stderr, "Update failed: %v\n", err)
				fmt.Fprintf(os.Stderr, "You can download manually from:\n  %s\n", result.ReleaseURL)
				os.Exit(exitBlocking)
			}

			fmt.Fprintf(os.Stderr, "Updated to v%s. Restart factree to use the new version.\n", result.LatestVersion)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the factree version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("factree v%s\n", server.Version)
		},
	}
}

// checkForUpdates runs a non-blocking version check and prints a notice
// to stderr if an update is available. Best-effort — network failures
// are silently ignored.
func checkForUpdates() {
	result := updater.CheckVersion(server.Version)
	if result.UpdateAvailable {
		fmt.Fprintf(os.Stderr,
			"\n  Update available: v%s -> v%s\n"+
				"  Run: factree update\n"+
				"  Release: %s\n\n",
			result.CurrentVersion, result.LatestVersion, result.ReleaseURL,
		)
	}
}

// resultText extracts the text content from a CallToolResult.
func resultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}
