package artifact

import (
	"fmt"
	"regexp"
	"strings"
)

// bracketRE pulls the bracketed chain out of a traceability field.
var bracketRE = regexp.MustCompile(`\[(.*?)\]`)

// chainSegments decomposes a traceability field into its identifier
// segments. "[TEST-001→REQ-001→OUT-1]" yields three segments; all
// bracketed groups contribute, so "[TEST-001]→[REQ-001]" also counts two.
func chainSegments(traceability string) []string {
	var segments []string
	for _, m := range bracketRE.FindAllStringSubmatch(traceability, -1) {
		for _, part := range strings.Split(m[1], "→") {
			if p := strings.TrimSpace(part); p != "" {
				segments = append(segments, p)
			}
		}
	}
	return segments
}

// ValidateTraceability checks that every red test task and green
// implementation task carries a complete chain back to its outcome:
// leaf artifact → requirement → outcome, at least three segments.
// Short chains are reported, never fatal.
func ValidateTraceability(doc string) []string {
	var errors []string

	red := ParseRedTasks(doc)
	green := ParseGreenTasks(doc)

	for _, task := range red.Test {
		if len(chainSegments(task.Traceability)) < 3 {
			errors = append(errors, fmt.Sprintf("RED-%s: incomplete traceability chain", task.ID))
		}
	}

	for _, task := range green.Implementation {
		if len(chainSegments(task.Traceability)) < 3 {
			errors = append(errors, fmt.Sprintf("GREEN-%s: incomplete traceability chain", task.ID))
		}
	}

	return errors
}

// ValidateComponentBoundaries checks that every green implementation
// task's component label appears verbatim in the architecture boundaries
// document. The caller is responsible for reading the boundaries file;
// an unreadable file is its fatal condition, not this function's.
func ValidateComponentBoundaries(doc, boundaries string) []string {
	var errors []string

	green := ParseGreenTasks(doc)
	for _, task := range green.Implementation {
		component := strings.TrimSpace(task.Component)
		if component == "" {
			continue
		}
		if !strings.Contains(boundaries, component) {
			errors = append(errors, fmt.Sprintf(
				"GREEN-%s: component %q not found in architecture boundaries", task.ID, component))
		}
	}

	return errors
}

// ExecutionOrder returns the full task ids of a phase document pair in
// execution order. The order is a fixed policy — infrastructure before
// tests before code before wiring — not a dependency solve:
// setup, red tests, green implementations, config, integration, then
// skip and review. Ties within a group keep document order.
func ExecutionOrder(doc string) []string {
	red := ParseRedTasks(doc)
	green := ParseGreenTasks(doc)

	var order []string

	for _, task := range red.Setup {
		order = append(order, "RED-SETUP-"+task.ID)
	}
	for _, task := range red.Test {
		order = append(order, "RED-"+task.ID)
	}
	for _, task := range green.Implementation {
		order = append(order, "GREEN-"+task.ID)
	}
	for _, task := range green.Config {
		order = append(order, "GREEN-CONFIG-"+task.ID)
	}
	for _, task := range green.Integration {
		order = append(order, "GREEN-INT-"+task.ID)
	}
	for _, task := range green.Skip {
		order = append(order, "GREEN-SKIP-"+task.ID)
	}
	for _, task := range green.Review {
		order = append(order, "GREEN-REVIEW-"+task.ID)
	}

	return order
}
