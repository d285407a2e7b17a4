package artifact

import (
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/factree/internal/grammar"
)

// ParseRedTasks extracts the setup and test tasks from a red phase
// document. A document with no matching records yields empty slices,
// not an error.
func ParseRedTasks(doc string) RedTasks {
	var tasks RedTasks

	for _, rec := range grammar.Extract(doc, redSetupTemplate) {
		tasks.Setup = append(tasks.Setup, RedSetupTask{
			ID:            rec.ID,
			Description:   rec.Title[0],
			Purpose:       rec.Fields["Purpose"],
			Dependencies:  rec.Fields["Dependencies"],
			Configuration: rec.Fields["Configuration"],
			VerifyCommand: rec.Fields["Verify Setup"],
		})
	}

	for _, rec := range grammar.Extract(doc, redTestTemplate) {
		tasks.Test = append(tasks.Test, RedTestTask{
			ID:              rec.ID,
			TestID:          rec.Title[0],
			Traceability:    rec.Fields["Traceability"],
			TestType:        rec.Fields["Test Type"],
			FileLocation:    rec.Fields["File Location"],
			FunctionName:    rec.Fields["Function Name"],
			ExpectedFailure: rec.Fields["Expected Failure"],
			VerifyCommand:   rec.Fields["Verify Failure"],
		})
	}

	return tasks
}

// ParseGreenTasks extracts all five green task varieties from a green
// phase document.
func ParseGreenTasks(doc string) GreenTasks {
	var tasks GreenTasks

	for _, rec := range grammar.Extract(doc, greenImplTemplate) {
		tasks.Implementation = append(tasks.Implementation, GreenImplementationTask{
			ID:             rec.ID,
			RequirementID:  rec.Title[0],
			RedTaskID:      rec.Title[1],
			Traceability:   rec.Fields["Traceability"],
			Component:      rec.Fields["Component"],
			FileLocation:   rec.Fields["File Location"],
			Implementation: rec.Fields["Implementation"],
			Configuration:  rec.Fields["Configuration"],
			VerifyCommand:  rec.Fields["Verify Pass"],
		})
	}

	for _, rec := range grammar.Extract(doc, greenIntTemplate) {
		tasks.Integration = append(tasks.Integration, GreenIntegrationTask{
			ID:            rec.ID,
			Component1:    rec.Title[0],
			Component2:    rec.Title[1],
			Purpose:       rec.Fields["Purpose"],
			Configuration: rec.Fields["Configuration"],
			Dependencies:  rec.Fields["Dependencies"],
			VerifyCommand: rec.Fields["Verify Integration"],
		})
	}

	for _, rec := range grammar.Extract(doc, greenConfigTemplate) {
		tasks.Config = append(tasks.Config, GreenConfigTask{
			ID:            rec.ID,
			Description:   rec.Title[0],
			Purpose:       rec.Fields["Purpose"],
			Commands:      rec.Fields["Commands"],
			Dependencies:  rec.Fields["Dependencies"],
			VerifyCommand: rec.Fields["Verify"],
		})
	}

	for _, rec := range grammar.Extract(doc, greenSkipTemplate) {
		tasks.Skip = append(tasks.Skip, GreenSkipTask{
			ID:            rec.ID,
			RequirementID: rec.Title[0],
			Reason:        rec.Fields["Reason"],
			Component:     rec.Fields["Component"],
			Verification:  rec.Fields["Verification"],
			VerifyCommand: rec.Fields["Verify"],
		})
	}

	for _, rec := range grammar.Extract(doc, greenReviewTemplate) {
		tasks.Review = append(tasks.Review, GreenReviewTask{
			ID:             rec.ID,
			RequirementID:  rec.Title[0],
			Reason:         rec.Fields["Reason"],
			Analysis:       rec.Fields["Analysis"],
			Recommendation: rec.Fields["Recommendation"],
			Status:         rec.Fields["Status"],
		})
	}

	return tasks
}

// ParseTree parses both phases out of one document and packages them for
// export. Red and green records can legally live in separate files; the
// caller concatenates documents when exporting a whole run.
func ParseTree(doc string) Tree {
	return Tree{
		Red:   ParseRedTasks(doc),
		Green: ParseGreenTasks(doc),
	}
}

// ExportJSON serializes a parse tree with stable key order for external
// consumers (the driving agent loop, CI tooling).
func ExportJSON(tree Tree) (string, error) {
	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling task tree: %w", err)
	}
	return string(data), nil
}

// DroppedRecords returns the malformed-record diagnostics for every task
// kind in the document: headers that matched a kind but were missing
// required fields. The records themselves are never partially emitted.
func DroppedRecords(doc string) []grammar.Dropped {
	var all []grammar.Dropped
	for _, kind := range []TaskKind{
		KindRedSetup, KindRedTest,
		KindGreenImplementation, KindGreenIntegration,
		KindGreenConfig, KindGreenSkip, KindGreenReview,
	} {
		_, dropped := grammar.ExtractWithDropped(doc, Templates()[kind])
		all = append(all, dropped...)
	}
	return all
}
