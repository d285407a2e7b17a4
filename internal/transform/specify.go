package transform

import (
	"fmt"
	"regexp"
	"strings"
)

// outcomeHeaderRE recognizes an outcome header in the human spec.
var outcomeHeaderRE = regexp.MustCompile(`^OUT-(\d+): (.*)$`)

// modalRE strips the modal verbs that pad success criteria.
var modalRE = regexp.MustCompile(`(?i)\b(should|must|will|shall)\b`)

// spaceRE collapses the whitespace left behind by modal stripping.
var spaceRE = regexp.MustCompile(`\s+`)

const maxConstraintLen = 100

// ParseOutcomes extracts the user outcomes from a human spec. Each
// outcome is an "OUT-n:" header followed by a "- Success Criteria:" line
// and its bulleted criteria. A single "Constraints:" block, when present,
// is shared by all outcomes.
func ParseOutcomes(spec string) []Outcome {
	lines := strings.Split(spec, "\n")
	constraints := parseConstraints(lines)

	var outcomes []Outcome
	for i := 0; i < len(lines); i++ {
		m := outcomeHeaderRE.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}

		outcome := Outcome{
			ID:          "OUT-" + m[1],
			Description: strings.TrimSpace(m[2]),
			Constraints: constraints,
		}

		// Success criteria are the bulleted lines following the
		// "- Success Criteria:" marker, up to the next outcome or the
		// constraints block.
		j := i + 1
		for ; j < len(lines); j++ {
			if strings.HasPrefix(strings.TrimSpace(lines[j]), "- Success Criteria:") {
				j++
				break
			}
			if outcomeHeaderRE.MatchString(lines[j]) || strings.HasPrefix(lines[j], "Constraints:") {
				break
			}
		}
		for ; j < len(lines); j++ {
			if outcomeHeaderRE.MatchString(lines[j]) || strings.HasPrefix(lines[j], "Constraints:") {
				break
			}
			if c := stripBullet(lines[j]); c != "" {
				outcome.SuccessCriteria = append(outcome.SuccessCriteria, c)
			}
		}

		outcomes = append(outcomes, outcome)
		i = j - 1
	}

	return outcomes
}

// parseConstraints returns the shared constraints block, if any.
func parseConstraints(lines []string) []string {
	var constraints []string
	inBlock := false
	for _, line := range lines {
		if strings.HasPrefix(line, "Constraints:") {
			inBlock = true
			continue
		}
		if !inBlock {
			continue
		}
		if outcomeHeaderRE.MatchString(line) {
			break
		}
		if c := stripBullet(line); c != "" {
			constraints = append(constraints, c)
		}
	}
	return constraints
}

// stripBullet trims a criteria line and removes its leading list marker.
func stripBullet(line string) string {
	s := strings.TrimSpace(line)
	s = strings.TrimPrefix(s, "- ")
	s = strings.TrimPrefix(s, "* ")
	return strings.TrimSpace(s)
}

// DeriveRequirements produces one requirement per success criterion of
// each outcome, numbered by output position across the whole document.
func DeriveRequirements(outcomes []Outcome) []Requirement {
	var requirements []Requirement
	counter := 1

	for _, outcome := range outcomes {
		for _, criterion := range outcome.SuccessCriteria {
			requirements = append(requirements, Requirement{
				ID:         fmt.Sprintf("REQ-%03d", counter),
				OutcomeID:  outcome.ID,
				Constraint: simplifyConstraint(criterion),
				Component:  selectComponent(criterion),
				Acceptance: deriveAcceptance(criterion),
			})
			counter++
		}
	}

	return requirements
}

// simplifyConstraint reduces a criterion to its minimal imperative form:
// modal verbs stripped, first letter capitalized, capped at 100 chars.
func simplifyConstraint(criterion string) string {
	s := modalRE.ReplaceAllString(criterion, "")
	s = strings.TrimSpace(spaceRE.ReplaceAllString(s, " "))
	s = capitalize(s)
	if len(s) >= maxConstraintLen {
		return s[:maxConstraintLen-3] + "..."
	}
	return s
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// DeriveTestCases produces one test case per requirement. The test type
// and verification command follow the requirement's component stack.
func DeriveTestCases(requirements []Requirement) []TestCase {
	var tests []TestCase

	for i, req := range requirements {
		n := i + 1

		var testType, verify string
		switch {
		case strings.Contains(req.Component, "Django"):
			testType = "Backend Integration"
			verify = fmt.Sprintf("pytest tests/integration/test_feature.py::test_%d", n)
		case strings.Contains(req.Component, "React"):
			testType = "Frontend Integration"
			verify = "npm test -- Feature.test.tsx"
		case strings.Contains(req.Component, "Celery"):
			testType = "Backend Integration"
			verify = fmt.Sprintf("pytest tests/integration/test_tasks.py::test_%d", n)
		default:
			testType = "Integration"
			verify = fmt.Sprintf("pytest tests/integration/test_%d.py", n)
		}

		tests = append(tests, TestCase{
			ID:            fmt.Sprintf("TEST-%03d", n),
			RequirementID: req.ID,
			OutcomeID:     req.OutcomeID,
			TestType:      testType,
			Input:         testInput(req),
			Expected:      req.Acceptance,
			VerifyCommand: verify,
		})
	}

	return tests
}

// testInput templates a minimal test input from the requirement's
// component category.
func testInput(req Requirement) string {
	lower := strings.ToLower(req.Component)
	switch {
	case strings.Contains(lower, "api"):
		return `POST /api/resource/ {"name": "Test"}`
	case strings.Contains(lower, "model"):
		return `Model.objects.create(name="Test")`
	case strings.Contains(req.Component, "React"):
		return `<Component id={1} />`
	default:
		return "Standard test input"
	}
}

// RenderRequirements serializes requirements.md.
func RenderRequirements(requirements []Requirement) string {
	lines := []string{"# Requirements", "", "## Derived Requirements", ""}

	for _, req := range requirements {
		lines = append(lines,
			fmt.Sprintf("%s: [%s]", req.ID, req.OutcomeID),
			"- Constraint: "+req.Constraint,
			"- Component: "+req.Component,
			"- Acceptance: "+req.Acceptance,
			"",
		)
	}

	lines = append(lines,
		"## Validation Checklist",
		"",
		"- [ ] All requirements traced to user outcomes",
		"- [ ] All components from architecture boundaries",
		"- [ ] No custom implementations required",
		"- [ ] Minimal scope per requirement",
		"",
	)

	return strings.Join(lines, "\n")
}

// RenderTestCases serializes test-cases.md. The traceability title links
// each test to its requirement and outcome with the chain arrow.
func RenderTestCases(tests []TestCase) string {
	lines := []string{"# Test Cases", "", "## Derived Test Cases", ""}

	for _, test := range tests {
		lines = append(lines,
			fmt.Sprintf("%s: [%s→%s]", test.ID, test.RequirementID, test.OutcomeID),
			"- Type: "+test.TestType,
			"- Input: "+test.Input,
			"- Expected: "+test.Expected,
			"- Verify: `"+test.VerifyCommand+"`",
			"",
		)
	}

	lines = append(lines,
		"## Coverage Checklist",
		"",
		"- [ ] All requirements have test cases",
		"- [ ] All test types appropriate for stack",
		"- [ ] All verification commands executable",
		"- [ ] Traceability chain complete",
		"",
	)

	return strings.Join(lines, "\n")
}

// SpecToRequirements runs the first stage: it parses the human spec and
// returns the requirements and test cases documents. An empty spec yields
// boilerplate-only documents, not an error.
func SpecToRequirements(spec string) (requirementsDoc, testCasesDoc string) {
	outcomes := ParseOutcomes(spec)
	requirements := DeriveRequirements(outcomes)
	tests := DeriveTestCases(requirements)
	return RenderRequirements(requirements), RenderTestCases(tests)
}
