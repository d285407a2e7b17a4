package transform

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/HendryAvila/factree/internal/artifact"
	"github.com/HendryAvila/factree/internal/grammar"
)

var digitsRE = regexp.MustCompile(`\d+`)

// ParseRequirements extracts REQ records from a requirements document.
// The title "[OUT-1]" supplies the outcome id.
func ParseRequirements(doc string) []Requirement {
	var requirements []Requirement

	for _, rec := range grammar.Extract(doc, requirementTemplate) {
		requirements = append(requirements, Requirement{
			ID:         "REQ-" + rec.ID,
			OutcomeID:  strings.TrimSpace(rec.Title[0]),
			Constraint: rec.Fields["Constraint"],
			Component:  rec.Fields["Component"],
			Acceptance: rec.Fields["Acceptance"],
		})
	}

	return requirements
}

// ParseTestCases extracts TEST records from a test cases document. The
// traceability title "[REQ-001→OUT-1]" supplies the requirement and
// outcome ids; a short chain leaves the outcome id empty, which surfaces
// later as a traceability violation rather than a parse failure.
func ParseTestCases(doc string) []TestCase {
	var tests []TestCase

	for _, rec := range grammar.Extract(doc, testCaseTemplate) {
		parts := strings.Split(rec.Title[0], "→")
		reqID, outcomeID := "", ""
		if len(parts) > 0 {
			reqID = strings.TrimSpace(parts[0])
		}
		if len(parts) > 1 {
			outcomeID = strings.TrimSpace(parts[1])
		}

		tests = append(tests, TestCase{
			ID:            "TEST-" + rec.ID,
			RequirementID: reqID,
			OutcomeID:     outcomeID,
			TestType:      rec.Fields["Type"],
			Input:         rec.Fields["Input"],
			Expected:      rec.Fields["Expected"],
			VerifyCommand: rec.Fields["Verify"],
		})
	}

	return tests
}

// testFileLocation maps (test type × subtype) to the test file path.
func testFileLocation(testType, testID string) string {
	n := digitsRE.FindString(testID)

	switch {
	case strings.Contains(testType, "Backend"):
		switch {
		case strings.Contains(testType, "Integration"):
			return fmt.Sprintf("tests/integration/test_feature_%s.py", n)
		case strings.Contains(testType, "Contract"):
			return fmt.Sprintf("tests/contract/test_api_%s.py", n)
		case strings.Contains(testType, "Unit"):
			return fmt.Sprintf("tests/unit/test_module_%s.py", n)
		default:
			return fmt.Sprintf("tests/test_%s.py", n)
		}
	case strings.Contains(testType, "Frontend"):
		switch {
		case strings.Contains(testType, "Integration"):
			return fmt.Sprintf("src/frontend/tests/integration/Feature%s.test.tsx", n)
		case strings.Contains(testType, "Unit"):
			return fmt.Sprintf("src/frontend/tests/unit/module%s.test.ts", n)
		default:
			return fmt.Sprintf("src/frontend/tests/test_%s.tsx", n)
		}
	case strings.Contains(testType, "Load"):
		return fmt.Sprintf("tests/performance/test_load_%s.py", n)
	default:
		return fmt.Sprintf("tests/integration/test_%s.py", n)
	}
}

// testFunctionName derives the test function from the test id and stack.
func testFunctionName(testID, testType string) string {
	n := digitsRE.FindString(testID)

	switch {
	case strings.Contains(testType, "Backend"), strings.Contains(testType, "Load"):
		return fmt.Sprintf("test_scenario_%s()", n)
	case strings.Contains(testType, "Frontend"):
		return fmt.Sprintf("test_component_%s()", n)
	default:
		return fmt.Sprintf("test_case_%s()", n)
	}
}

// expectedFailure scans the test input for the artifact the test touches
// and names the failure an unimplemented feature produces.
func expectedFailure(input string) string {
	lower := strings.ToLower(input)
	switch {
	case strings.Contains(lower, "model"):
		return "ImportError (Model not implemented)"
	case strings.Contains(lower, "api"), strings.Contains(input, "/api/"):
		return "URLError (API endpoint not implemented)"
	case strings.Contains(input, "Component"):
		return "Component not implemented"
	case strings.Contains(lower, "task"):
		return "ImportError (Task not implemented)"
	default:
		return "Function/Module not implemented"
	}
}

// failureVerifyCommand builds the command that must fail during the red
// phase, chosen by the test file's extension.
func failureVerifyCommand(fileLocation, functionName string) string {
	fn := strings.TrimSuffix(functionName, "()")

	switch {
	case strings.HasSuffix(fileLocation, ".py"):
		return fmt.Sprintf("pytest %s::%s --tb=short", fileLocation, fn)
	case strings.HasSuffix(fileLocation, ".tsx"), strings.HasSuffix(fileLocation, ".ts"):
		return fmt.Sprintf("npm test -- %s", path.Base(fileLocation))
	default:
		return "python " + fileLocation
	}
}

// DeriveRedTasks creates one red test task per test case, numbered by
// output position.
func DeriveRedTasks(tests []TestCase) []artifact.RedTestTask {
	var tasks []artifact.RedTestTask

	for i, test := range tests {
		location := testFileLocation(test.TestType, test.ID)
		function := testFunctionName(test.ID, test.TestType)

		tasks = append(tasks, artifact.RedTestTask{
			ID:              fmt.Sprintf("%03d", i+1),
			TestID:          test.ID,
			Traceability:    fmt.Sprintf("[%s→%s→%s]", test.ID, test.RequirementID, test.OutcomeID),
			TestType:        test.TestType,
			FileLocation:    location,
			FunctionName:    function,
			ExpectedFailure: expectedFailure(test.Input),
			VerifyCommand:   failureVerifyCommand(location, function),
		})
	}

	return tasks
}

// DeriveSetupTasks decides which infrastructure the test set needs. This
// is a set-level derivation: each trigger emits exactly one task no
// matter how many test cases carry the triggering type.
func DeriveSetupTasks(tests []TestCase) []artifact.RedSetupTask {
	needsDatabase, needsMocks, needsFrontend := false, false, false
	for _, test := range tests {
		if strings.Contains(test.TestType, "Backend") {
			needsDatabase = true
		}
		if strings.Contains(test.TestType, "Contract") {
			needsMocks = true
		}
		if strings.Contains(test.TestType, "Frontend") {
			needsFrontend = true
		}
	}

	var tasks []artifact.RedSetupTask
	counter := 1

	if needsDatabase {
		tasks = append(tasks, artifact.RedSetupTask{
			ID:            fmt.Sprintf("%03d", counter),
			Description:   "Setup test database for Django",
			Purpose:       "Enable backend integration tests",
			Dependencies:  "DATABASE fixtures, Django test client",
			Configuration: "DATABASES test settings, migrations",
			VerifyCommand: "pytest tests/integration --collect-only",
		})
		counter++
	}

	if needsMocks {
		tasks = append(tasks, artifact.RedSetupTask{
			ID:            fmt.Sprintf("%03d", counter),
			Description:   "Setup API contract mocks",
			Purpose:       "Enable contract testing",
			Dependencies:  "MOCK libraries, test fixtures",
			Configuration: "Mock service endpoints",
			VerifyCommand: `python -c "import tests.mocks; print('OK')"`,
		})
		counter++
	}

	if needsFrontend {
		tasks = append(tasks, artifact.RedSetupTask{
			ID:            fmt.Sprintf("%03d", counter),
			Description:   "Setup React testing environment",
			Purpose:       "Enable frontend testing",
			Dependencies:  "Vitest, Testing Library, jsdom",
			Configuration: "Vitest config, test setup",
			VerifyCommand: "npm test -- --run",
		})
		counter++
	}

	return tasks
}

// RenderRedPhase serializes red-phase.md: setup tasks (when any), test
// tasks, and the fixed validation block.
func RenderRedPhase(setup []artifact.RedSetupTask, tasks []artifact.RedTestTask) string {
	lines := []string{"# Red Phase: Failing Test Implementation", ""}

	if len(setup) > 0 {
		lines = append(lines, "## Infrastructure Setup Tasks", "")
		for _, task := range setup {
			lines = append(lines,
				fmt.Sprintf("RED-SETUP-%s: %s", task.ID, task.Description),
				"- Purpose: "+task.Purpose,
				"- Dependencies: "+task.Dependencies,
				"- Configuration: "+task.Configuration,
				"- Verify Setup: `"+task.VerifyCommand+"`",
				"",
			)
		}
	}

	lines = append(lines, "## Test Implementation Tasks", "")
	for _, task := range tasks {
		lines = append(lines,
			fmt.Sprintf("RED-%s: Write failing test [%s]", task.ID, task.TestID),
			"- Traceability: "+task.Traceability,
			"- Test Type: "+task.TestType,
			"- File Location: "+task.FileLocation,
			"- Function Name: "+task.FunctionName,
			"- Expected Failure: "+task.ExpectedFailure,
			"- Verify Failure: `"+task.VerifyCommand+"`",
			"",
		)
	}

	lines = append(lines,
		"## Validation Tasks",
		"",
		"RED-VALIDATE-001: Verify all tests fail as expected",
		"- Command: `pytest tests/ --tb=line | grep FAILED`",
		"- Expected: All RED-XXX tests show FAILED status",
		"- Success: No passing tests in red phase",
		"",
	)

	return strings.Join(lines, "\n")
}

// RequirementsToRed runs the second stage. Derivation reads the test
// cases; the requirements document backfills the outcome id of any test
// case whose traceability title omitted it, so the red chain stays
// complete when the upstream link is recoverable.
func RequirementsToRed(requirementsDoc, testCasesDoc string) string {
	tests := ParseTestCases(testCasesDoc)

	outcomeByReq := make(map[string]string)
	for _, req := range ParseRequirements(requirementsDoc) {
		outcomeByReq[req.ID] = req.OutcomeID
	}
	for i, test := range tests {
		if test.OutcomeID == "" {
			tests[i].OutcomeID = outcomeByReq[test.RequirementID]
		}
	}

	redTasks := DeriveRedTasks(tests)
	setupTasks := DeriveSetupTasks(tests)
	return RenderRedPhase(setupTasks, redTasks)
}
