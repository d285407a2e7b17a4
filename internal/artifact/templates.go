package artifact

import "github.com/HendryAvila/factree/internal/grammar"

// The seven canonical record templates. Field order is part of the
// grammar: a record whose fields appear out of order is dropped whole.

var redSetupTemplate = grammar.NewTemplate("RED-SETUP", `(.*)`, []grammar.Field{
	{Label: "Purpose"},
	{Label: "Dependencies"},
	{Label: "Configuration"},
	{Label: "Verify Setup", Backquoted: true},
})

var redTestTemplate = grammar.NewTemplate("RED", `Write failing test \[(.*?)\]`, []grammar.Field{
	{Label: "Traceability"},
	{Label: "Test Type"},
	{Label: "File Location"},
	{Label: "Function Name"},
	{Label: "Expected Failure"},
	{Label: "Verify Failure", Backquoted: true},
})

var greenImplTemplate = grammar.NewTemplate("GREEN", `Implement \[(.*?)\] to pass \[(.*?)\]`, []grammar.Field{
	{Label: "Traceability"},
	{Label: "Component"},
	{Label: "File Location"},
	{Label: "Implementation"},
	{Label: "Configuration"},
	{Label: "Verify Pass", Backquoted: true},
})

var greenIntTemplate = grammar.NewTemplate("GREEN-INT", `Integrate (.*?) with (.*)`, []grammar.Field{
	{Label: "Purpose"},
	{Label: "Configuration"},
	{Label: "Dependencies"},
	{Label: "Verify Integration", Backquoted: true},
})

var greenConfigTemplate = grammar.NewTemplate("GREEN-CONFIG", `Configure (.*)`, []grammar.Field{
	{Label: "Purpose"},
	{Label: "Commands", Backquoted: true},
	{Label: "Dependencies"},
	{Label: "Verify", Backquoted: true},
})

var greenSkipTemplate = grammar.NewTemplate("GREEN-SKIP", `Verify existing implementation for \[(.*?)\]`, []grammar.Field{
	{Label: "Reason"},
	{Label: "Component"},
	{Label: "Verification"},
	{Label: "Verify", Backquoted: true},
})

var greenReviewTemplate = grammar.NewTemplate("GREEN-REVIEW", `Review requirement \[(.*?)\] for implementation`, []grammar.Field{
	{Label: "Reason"},
	{Label: "Analysis"},
	{Label: "Recommendation"},
	{Label: "Status"},
})

// Templates returns the template for a task kind. Used by callers that
// need dropped-header diagnostics for a specific kind.
func Templates() map[TaskKind]*grammar.Template {
	return map[TaskKind]*grammar.Template{
		KindRedSetup:            redSetupTemplate,
		KindRedTest:             redTestTemplate,
		KindGreenImplementation: greenImplTemplate,
		KindGreenIntegration:    greenIntTemplate,
		KindGreenConfig:         greenConfigTemplate,
		KindGreenSkip:           greenSkipTemplate,
		KindGreenReview:         greenReviewTemplate,
	}
}
