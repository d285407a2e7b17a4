package constitution

import (
	"encoding/json"
	"fmt"
	"strings"
)

const reportDivider = "=================================================="

// Report formats violations as the human-readable compliance report,
// grouped by severity with the blocking groups first.
func Report(violations []Violation) string {
	if len(violations) == 0 {
		return "Constitutional compliance validation passed - no violations found"
	}

	var critical, errors, warnings []Violation
	for _, v := range violations {
		switch v.Severity {
		case SeverityCritical:
			critical = append(critical, v)
		case SeverityError:
			errors = append(errors, v)
		default:
			warnings = append(warnings, v)
		}
	}

	lines := []string{"Constitutional Compliance Violations Found", reportDivider, ""}

	appendGroup := func(heading string, group []Violation) {
		if len(group) == 0 {
			return
		}
		lines = append(lines, heading, "")
		for _, v := range group {
			lines = append(lines,
				"  Principle: "+v.Principle,
				"  Location: "+v.Location,
				"  Issue: "+v.Description,
				"  Fix: "+v.Suggestion,
				"",
			)
		}
	}

	appendGroup("CRITICAL VIOLATIONS:", critical)
	appendGroup("ERRORS:", errors)
	appendGroup("WARNINGS:", warnings)

	lines = append(lines,
		reportDivider,
		fmt.Sprintf("Summary: %d critical, %d errors, %d warnings", len(critical), len(errors), len(warnings)),
		"",
		"Constitutional compliance must be achieved before proceeding to implementation.",
	)

	return strings.Join(lines, "\n")
}

// jsonReport is the JSON export shape. Field order is part of the
// contract for external consumers.
type jsonReport struct {
	TotalViolations int         `json:"total_violations"`
	Violations      []Violation `json:"violations"`
}

// ExportJSON serializes violations for machine consumers. An empty list
// exports as an empty array, not null.
func ExportJSON(violations []Violation) (string, error) {
	if violations == nil {
		violations = []Violation{}
	}
	data, err := json.MarshalIndent(jsonReport{
		TotalViolations: len(violations),
		Violations:      violations,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling violations: %w", err)
	}
	return string(data), nil
}
