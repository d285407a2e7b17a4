// Package transform implements the three stage transformers of the
// artifact chain:
//
//	human spec → requirements + test cases → red phase → green phase
//
// Every transformer follows the same template: parse the input records,
// classify each one through ordered keyword tables, synthesize the
// downstream records, and serialize the next document. Transformation is
// pure text-to-text — rerunning a stage on identical input produces
// byte-identical output. Identifiers are assigned by output position, so
// output order is part of the contract.
package transform

import "github.com/HendryAvila/factree/internal/grammar"

// Outcome is a top-level user goal from the human spec. Outcomes are
// parsed once and never mutated; requirements derive from their success
// criteria.
type Outcome struct {
	ID              string   `json:"id"` // "OUT-1"
	Description     string   `json:"description"`
	SuccessCriteria []string `json:"success_criteria"`
	Constraints     []string `json:"constraints"`
}

// Requirement is a minimal, traceable constraint derived from one
// success criterion of an outcome.
type Requirement struct {
	ID         string `json:"id"` // "REQ-001"
	OutcomeID  string `json:"outcome_id"`
	Constraint string `json:"constraint"`
	Component  string `json:"component"`
	Acceptance string `json:"acceptance"`
}

// TestCase is the executable check for one requirement. Under current
// derivation rules each requirement gets exactly one test case; the
// derivation is written per requirement so a future fan-out only touches
// DeriveTestCases.
type TestCase struct {
	ID            string `json:"id"` // "TEST-001"
	RequirementID string `json:"requirement_id"`
	OutcomeID     string `json:"outcome_id"`
	TestType      string `json:"test_type"`
	Input         string `json:"input"`
	Expected      string `json:"expected"`
	VerifyCommand string `json:"verify_command"`
}

// requirementTemplate parses REQ records out of requirements.md.
var requirementTemplate = grammar.NewTemplate("REQ", `\[(.*?)\]`, []grammar.Field{
	{Label: "Constraint"},
	{Label: "Component"},
	{Label: "Acceptance"},
})

// testCaseTemplate parses TEST records out of test-cases.md.
var testCaseTemplate = grammar.NewTemplate("TEST", `\[(.*?)\]`, []grammar.Field{
	{Label: "Type"},
	{Label: "Input"},
	{Label: "Expected"},
	{Label: "Verify", Backquoted: true},
})
