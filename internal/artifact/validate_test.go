package artifact

import (
	"strings"
	"testing"
)

// --- ValidateTraceability ---

func TestValidateTraceability_CompleteChains(t *testing.T) {
	problems := ValidateTraceability(sampleRedDoc + "\n" + sampleGreenDoc)
	if len(problems) != 0 {
		t.Errorf("complete chains reported %d problems: %v", len(problems), problems)
	}
}

func TestValidateTraceability_ShortRedChain(t *testing.T) {
	doc := "RED-005: Write failing test [TEST-005]\n" +
		"- Traceability: [TEST-005→REQ-005]\n" +
		"- Test Type: Backend Integration\n" +
		"- File Location: tests/test_x.py\n" +
		"- Function Name: test_x()\n" +
		"- Expected Failure: ImportError\n" +
		"- Verify Failure: `pytest tests/test_x.py`\n"

	problems := ValidateTraceability(doc)
	if len(problems) != 1 {
		t.Fatalf("got %d problems, want 1", len(problems))
	}
	want := "RED-005: incomplete traceability chain"
	if !strings.Contains(problems[0], want) {
		t.Errorf("problem = %q, want it to contain %q", problems[0], want)
	}
}

func TestValidateTraceability_ShortGreenChain(t *testing.T) {
	doc := "GREEN-007: Implement [REQ-007] to pass [RED-007]\n" +
		"- Traceability: [TEST-007→REQ-007]\n" +
		"- Component: Django model\n" +
		"- File Location: src/backend/app/models.py\n" +
		"- Implementation: Minimal model\n" +
		"- Configuration: None\n" +
		"- Verify Pass: `pytest tests/test_y.py`\n"

	problems := ValidateTraceability(doc)
	if len(problems) != 1 {
		t.Fatalf("got %d problems, want 1", len(problems))
	}
	if !strings.Contains(problems[0], "GREEN-007") {
		t.Errorf("problem should name the owning record, got %q", problems[0])
	}
}

// --- ValidateComponentBoundaries ---

const boundariesDoc = `# Architecture Boundaries

## Allowed Components

- Django @api_view: REST endpoints
- Django model: Persistence
- React component: UI
`

func TestValidateComponentBoundaries_AllowedComponents(t *testing.T) {
	problems := ValidateComponentBoundaries(sampleGreenDoc, boundariesDoc)
	if len(problems) != 0 {
		t.Errorf("allowed components reported %d problems: %v", len(problems), problems)
	}
}

func TestValidateComponentBoundaries_UnknownComponent(t *testing.T) {
	doc := "GREEN-008: Implement [REQ-008] to pass [RED-008]\n" +
		"- Traceability: [TEST-008→REQ-008→OUT-2]\n" +
		"- Component: GraphQL resolver\n" +
		"- File Location: src/backend/app/schema.py\n" +
		"- Implementation: Resolver\n" +
		"- Configuration: None\n" +
		"- Verify Pass: `pytest tests/test_z.py`\n"

	problems := ValidateComponentBoundaries(doc, boundariesDoc)
	if len(problems) != 1 {
		t.Fatalf("got %d problems, want 1", len(problems))
	}
	if !strings.Contains(problems[0], `component "GraphQL resolver" not found`) {
		t.Errorf("problem = %q, want the component named", problems[0])
	}
	if !strings.Contains(problems[0], "GREEN-008") {
		t.Errorf("problem should carry the record id, got %q", problems[0])
	}
}

func TestValidateComponentBoundaries_EmptyComponentSkipped(t *testing.T) {
	doc := "GREEN-009: Implement [REQ-009] to pass [RED-009]\n" +
		"- Traceability: [TEST-009→REQ-009→OUT-2]\n" +
		"- Component: \n" +
		"- File Location: src/backend/app/views.py\n" +
		"- Implementation: Endpoint\n" +
		"- Configuration: None\n" +
		"- Verify Pass: `pytest tests/test_w.py`\n"

	problems := ValidateComponentBoundaries(doc, boundariesDoc)
	if len(problems) != 0 {
		t.Errorf("empty component should be skipped, got %v", problems)
	}
}

// --- ExecutionOrder ---

func TestExecutionOrder_CategoryPrecedence(t *testing.T) {
	got := ExecutionOrder(sampleRedDoc + "\n" + sampleGreenDoc)
	want := []string{
		"RED-SETUP-001",
		"RED-001",
		"GREEN-001",
		"GREEN-CONFIG-001",
		"GREEN-INT-001",
		"GREEN-SKIP-001",
		"GREEN-REVIEW-001",
	}

	if len(got) != len(want) {
		t.Fatalf("got %d tasks, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExecutionOrder_DocumentOrderWithinCategory(t *testing.T) {
	doc := "RED-002: Write failing test [TEST-002]\n" +
		"- Traceability: [TEST-002→REQ-002→OUT-1]\n" +
		"- Test Type: Frontend Unit\n" +
		"- File Location: src/frontend/tests/b.test.tsx\n" +
		"- Function Name: renders\n" +
		"- Expected Failure: module not found\n" +
		"- Verify Failure: `npm test -- b`\n" +
		"\n" +
		"RED-001: Write failing test [TEST-001]\n" +
		"- Traceability: [TEST-001→REQ-001→OUT-1]\n" +
		"- Test Type: Backend Integration\n" +
		"- File Location: tests/test_a.py\n" +
		"- Function Name: test_a()\n" +
		"- Expected Failure: URLError\n" +
		"- Verify Failure: `pytest tests/test_a.py`\n"

	got := ExecutionOrder(doc)
	if len(got) != 2 || got[0] != "RED-002" || got[1] != "RED-001" {
		t.Errorf("within a category tasks keep document order, got %v", got)
	}
}

func TestExecutionOrder_EmptyDocument(t *testing.T) {
	if got := ExecutionOrder("# Nothing\n"); len(got) != 0 {
		t.Errorf("empty document order = %v, want none", got)
	}
}
