package transform

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/HendryAvila/factree/internal/artifact"
)

var (
	requirementIDRE = regexp.MustCompile(`REQ-\d+`)
	componentTestRE = regexp.MustCompile(`(\w+)\.test\.tsx`)
)

// extractRequirementID pulls the requirement id out of a red task's
// traceability chain. A chain that never names a requirement yields the
// REQ-UNKNOWN sentinel; the task still produces an implementation task
// so the gap is visible in the output, not silently dropped.
func extractRequirementID(traceability string) string {
	if id := requirementIDRE.FindString(traceability); id != "" {
		return id
	}
	return "REQ-UNKNOWN"
}

// implementationFileLocation maps a red task's test file to the source
// file its implementation lands in. The test path's directory token picks
// the layer (contract, unit, integration); backend integration files are
// further keyed by what failed, so an import failure naming a model goes
// to models.py even when the test itself is an integration test.
func implementationFileLocation(task artifact.RedTestTask) string {
	loc := task.FileLocation

	switch {
	case strings.Contains(task.TestType, "Backend"):
		switch {
		case strings.Contains(loc, "contract/test_"):
			return "src/backend/app/api/views.py"
		case strings.Contains(loc, "unit/test_"):
			return "src/backend/app/utils.py"
		case strings.Contains(loc, "integration/test_"):
			switch {
			case strings.Contains(task.ExpectedFailure, "Model"):
				return "src/backend/app/models.py"
			case strings.Contains(task.ExpectedFailure, "Task"):
				return "src/backend/app/tasks.py"
			default:
				return "src/backend/app/views.py"
			}
		default:
			return "src/backend/app/views.py"
		}
	case strings.Contains(task.TestType, "Frontend"):
		switch {
		case strings.Contains(loc, "integration/"):
			if m := componentTestRE.FindStringSubmatch(loc); m != nil {
				return "src/frontend/src/components/" + m[1] + ".tsx"
			}
			return "src/frontend/src/components/Component.tsx"
		case strings.Contains(loc, "unit/"):
			return "src/frontend/src/utils/functions.ts"
		default:
			return "src/frontend/src/App.tsx"
		}
	default:
		return "src/backend/app/views.py"
	}
}

// implementationConfiguration names the wiring step each component kind
// needs after its code exists.
func implementationConfiguration(component string) string {
	switch {
	case strings.Contains(component, "models.Model"):
		return "Add to registry, run migrations"
	case strings.Contains(component, "@api_view"):
		return "Add route"
	case strings.Contains(component, "@shared_task"):
		return "Register in task discovery"
	case strings.Contains(component, "React"), strings.Contains(component, "hooks"):
		return "Export from index"
	default:
		return "None"
	}
}

// implementationDescription is the minimal change statement for a task.
// External-service keywords append the secrets the service requires, so
// the operator sees missing credentials before running the task.
func implementationDescription(component, reqID string) string {
	desc := fmt.Sprintf("Minimal %s satisfying %s", component, reqID)
	if secrets := secretDependencies(desc); secrets != "" {
		desc += ". " + secrets
	}
	return desc
}

// passVerifyCommand rewrites the red task's failure command into the
// pass check: same command, short-traceback flag dropped.
func passVerifyCommand(redVerify string) string {
	return strings.TrimSpace(strings.ReplaceAll(redVerify, "--tb=short", ""))
}

// DeriveGreenTasks maps each red test task to its green counterpart,
// numbered by output position. A task whose chain names no requirement
// still gets an implementation task, carrying the REQ-UNKNOWN sentinel.
func DeriveGreenTasks(red artifact.RedTasks) artifact.GreenTasks {
	var green artifact.GreenTasks

	for i, task := range red.Test {
		reqID := extractRequirementID(task.Traceability)
		component := selectGreenComponent(task.TestType, task.ExpectedFailure)
		green.Implementation = append(green.Implementation, artifact.GreenImplementationTask{
			ID:             fmt.Sprintf("%03d", i+1),
			RequirementID:  reqID,
			RedTaskID:      "RED-" + task.ID,
			Traceability:   task.Traceability,
			Component:      component,
			FileLocation:   implementationFileLocation(task),
			Implementation: implementationDescription(component, reqID),
			Configuration:  implementationConfiguration(component),
			VerifyCommand:  passVerifyCommand(task.VerifyCommand),
		})
	}

	green.Integration = deriveIntegrationTasks(green.Implementation)
	green.Config = deriveConfigTasks(green.Implementation)
	return green
}

// isFrontendComponent splits the implementation set by stack for the
// set-level derivations and the rendered sections.
func isFrontendComponent(component string) bool {
	return strings.Contains(component, "React") || strings.Contains(component, "Axios")
}

// deriveIntegrationTasks emits the set-level wiring tasks: models get an
// admin registration, and an API view alongside frontend components gets
// the API↔UI contract check. Each trigger emits one task regardless of
// how many implementations carry it. A model-only backend never wires to
// the UI, so the API side keys on the api_view component, not on "not
// frontend".
func deriveIntegrationTasks(impls []artifact.GreenImplementationTask) []artifact.GreenIntegrationTask {
	hasModels, hasAPI, hasFrontend := false, false, false
	for _, task := range impls {
		if strings.Contains(task.Component, "models.Model") {
			hasModels = true
		}
		if strings.Contains(task.Component, "@api_view") {
			hasAPI = true
		}
		if isFrontendComponent(task.Component) {
			hasFrontend = true
		}
	}

	var tasks []artifact.GreenIntegrationTask
	counter := 1

	if hasModels {
		tasks = append(tasks, artifact.GreenIntegrationTask{
			ID:            fmt.Sprintf("%03d", counter),
			Component1:    "Django models",
			Component2:    "Django admin",
			Purpose:       "Expose new models in the admin interface",
			Configuration: "Register models in admin.py",
			Dependencies:  "All model implementation tasks complete",
			VerifyCommand: "python manage.py check",
		})
		counter++
	}

	if hasAPI && hasFrontend {
		tasks = append(tasks, artifact.GreenIntegrationTask{
			ID:            fmt.Sprintf("%03d", counter),
			Component1:    "Django API",
			Component2:    "React UI",
			Purpose:       "Connect frontend components to backend endpoints",
			Configuration: "API base URL in Axios client",
			Dependencies:  "All implementation tasks complete",
			VerifyCommand: "python tests/run_all_tests.py",
		})
		counter++
	}

	return tasks
}

// deriveConfigTasks emits the one-shot commands the implementation set
// needs: a model set requires migrations.
func deriveConfigTasks(impls []artifact.GreenImplementationTask) []artifact.GreenConfigTask {
	hasModels := false
	for _, task := range impls {
		if strings.Contains(task.Component, "models.Model") {
			hasModels = true
		}
	}
	if !hasModels {
		return nil
	}

	return []artifact.GreenConfigTask{{
		ID:            "001",
		Description:   "database migrations",
		Purpose:       "Create tables for new models",
		Commands:      "python manage.py makemigrations && python manage.py migrate",
		Dependencies:  "Model implementation tasks complete",
		VerifyCommand: "python manage.py showmigrations",
	}}
}

// RenderGreenPhase serializes green-phase.md. Implementation tasks are
// sectioned by stack; task ids stay global across sections so the
// execution order is unambiguous.
func RenderGreenPhase(green artifact.GreenTasks) string {
	lines := []string{"# Green Phase: Minimal Implementation", ""}

	var backend, frontend []artifact.GreenImplementationTask
	for _, task := range green.Implementation {
		if isFrontendComponent(task.Component) {
			frontend = append(frontend, task)
		} else {
			backend = append(backend, task)
		}
	}

	renderImpls := func(section string, tasks []artifact.GreenImplementationTask) {
		if len(tasks) == 0 {
			return
		}
		lines = append(lines, section, "")
		for _, task := range tasks {
			lines = append(lines,
				fmt.Sprintf("GREEN-%s: Implement [%s] to pass [%s]", task.ID, task.RequirementID, task.RedTaskID),
				"- Traceability: "+task.Traceability,
				"- Component: "+task.Component,
				"- File Location: "+task.FileLocation,
				"- Implementation: "+task.Implementation,
				"- Configuration: "+task.Configuration,
				"- Verify Pass: `"+task.VerifyCommand+"`",
				"",
			)
		}
	}

	renderImpls("## Backend Implementation Tasks", backend)
	renderImpls("## Frontend Implementation Tasks", frontend)

	if len(green.Integration) > 0 {
		lines = append(lines, "## Integration Tasks", "")
		for _, task := range green.Integration {
			lines = append(lines,
				fmt.Sprintf("GREEN-INT-%s: Integrate %s with %s", task.ID, task.Component1, task.Component2),
				"- Purpose: "+task.Purpose,
				"- Configuration: "+task.Configuration,
				"- Dependencies: "+task.Dependencies,
				"- Verify Integration: `"+task.VerifyCommand+"`",
				"",
			)
		}
	}

	if len(green.Config) > 0 {
		lines = append(lines, "## Configuration Tasks", "")
		for _, task := range green.Config {
			lines = append(lines,
				fmt.Sprintf("GREEN-CONFIG-%s: Configure %s", task.ID, task.Description),
				"- Purpose: "+task.Purpose,
				"- Commands: `"+task.Commands+"`",
				"- Dependencies: "+task.Dependencies,
				"- Verify: `"+task.VerifyCommand+"`",
				"",
			)
		}
	}

	if len(green.Skip) > 0 {
		lines = append(lines, "## Skipped Tasks", "")
		for _, task := range green.Skip {
			lines = append(lines,
				fmt.Sprintf("GREEN-SKIP-%s: Verify existing implementation for [%s]", task.ID, task.RequirementID),
				"- Reason: "+task.Reason,
				"- Component: "+task.Component,
				"- Verification: "+task.Verification,
				"- Verify: `"+task.VerifyCommand+"`",
				"",
			)
		}
	}

	if len(green.Review) > 0 {
		lines = append(lines, "## Review Tasks", "")
		for _, task := range green.Review {
			lines = append(lines,
				fmt.Sprintf("GREEN-REVIEW-%s: Review requirement [%s] for implementation", task.ID, task.RequirementID),
				"- Reason: "+task.Reason,
				"- Analysis: "+task.Analysis,
				"- Recommendation: "+task.Recommendation,
				"- Status: "+task.Status,
				"",
			)
		}
	}

	return strings.Join(lines, "\n")
}

// RedToGreen runs the third stage: it parses the red phase document and
// returns the green phase document.
func RedToGreen(redDoc string) string {
	red := artifact.ParseRedTasks(redDoc)
	return RenderGreenPhase(DeriveGreenTasks(red))
}
