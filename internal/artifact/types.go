// Package artifact defines the task records that flow through the red and
// green phase documents and the parser that extracts them.
//
// The package follows the same design principles as the rest of the
// pipeline:
// - SRP: types, templates, parsing, validation, and ordering in separate files
// - one tagged kind per record shape, so consumers can switch exhaustively
// - all extraction goes through the shared grammar package
package artifact

// TaskKind tags the seven task record shapes.
type TaskKind string

const (
	KindRedSetup            TaskKind = "red_setup"
	KindRedTest             TaskKind = "red_test"
	KindGreenImplementation TaskKind = "green_implementation"
	KindGreenIntegration    TaskKind = "green_integration"
	KindGreenConfig         TaskKind = "green_config"
	KindGreenSkip           TaskKind = "green_skip"
	KindGreenReview         TaskKind = "green_review"
)

// RedSetupTask is an infrastructure task emitted before any failing test
// can run (database, mocks, frontend test environment).
type RedSetupTask struct {
	ID            string `json:"id"`
	Description   string `json:"description"`
	Purpose       string `json:"purpose"`
	Dependencies  string `json:"dependencies"`
	Configuration string `json:"configuration"`
	VerifyCommand string `json:"verify_command"`
}

// RedTestTask is one failing test to write, traced back to its test case,
// requirement, and outcome.
type RedTestTask struct {
	ID              string `json:"id"`
	TestID          string `json:"test_id"`
	Traceability    string `json:"traceability"`
	TestType        string `json:"test_type"`
	FileLocation    string `json:"file_location"`
	FunctionName    string `json:"function_name"`
	ExpectedFailure string `json:"expected_failure"`
	VerifyCommand   string `json:"verify_command"`
}

// GreenImplementationTask is the minimal implementation needed to make one
// red task's test pass.
type GreenImplementationTask struct {
	ID             string `json:"id"`
	RequirementID  string `json:"requirement_id"`
	RedTaskID      string `json:"red_task_id"`
	Traceability   string `json:"traceability"`
	Component      string `json:"component"`
	FileLocation   string `json:"file_location"`
	Implementation string `json:"implementation"`
	Configuration  string `json:"configuration"`
	VerifyCommand  string `json:"verify_command"`
}

// GreenIntegrationTask wires two implemented components together.
type GreenIntegrationTask struct {
	ID            string `json:"id"`
	Component1    string `json:"component1"`
	Component2    string `json:"component2"`
	Purpose       string `json:"purpose"`
	Configuration string `json:"configuration"`
	Dependencies  string `json:"dependencies"`
	VerifyCommand string `json:"verify_command"`
}

// GreenConfigTask applies configuration after implementation (migrations
// and similar one-shot commands).
type GreenConfigTask struct {
	ID            string `json:"id"`
	Description   string `json:"description"`
	Purpose       string `json:"purpose"`
	Commands      string `json:"commands"`
	Dependencies  string `json:"dependencies"`
	VerifyCommand string `json:"verify_command"`
}

// GreenSkipTask records a requirement already satisfied by an existing
// implementation, with the equivalence check that proves it.
type GreenSkipTask struct {
	ID            string `json:"id"`
	RequirementID string `json:"requirement_id"`
	Reason        string `json:"reason"`
	Component     string `json:"component"`
	Verification  string `json:"verification"`
	VerifyCommand string `json:"verify_command"`
}

// GreenReviewTask flags a requirement that needs a human decision before
// implementation.
type GreenReviewTask struct {
	ID             string `json:"id"`
	RequirementID  string `json:"requirement_id"`
	Reason         string `json:"reason"`
	Analysis       string `json:"analysis"`
	Recommendation string `json:"recommendation"`
	Status         string `json:"status"`
}

// RedTasks groups the records parsed from a red phase document.
type RedTasks struct {
	Setup []RedSetupTask `json:"setup_tasks"`
	Test  []RedTestTask  `json:"test_tasks"`
}

// GreenTasks groups the records parsed from a green phase document.
type GreenTasks struct {
	Implementation []GreenImplementationTask `json:"implementation_tasks"`
	Integration    []GreenIntegrationTask    `json:"integration_tasks"`
	Config         []GreenConfigTask         `json:"config_tasks"`
	Skip           []GreenSkipTask           `json:"skip_tasks"`
	Review         []GreenReviewTask         `json:"review_tasks"`
}

// Tree is the full parse result of a phase document pair, used for JSON
// export to external consumers.
type Tree struct {
	Red   RedTasks   `json:"red"`
	Green GreenTasks `json:"green"`
}
