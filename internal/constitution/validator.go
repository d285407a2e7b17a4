// Package constitution validates phase documents against the software
// factory's process rules. The validator runs a fixed battery of checks
// over the raw document text; every finding is returned as data, never
// as an error, so callers can apply their own gating policy.
package constitution

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/HendryAvila/factree/internal/artifact"
)

// Severity classifies a violation. The classification is static per
// check; callers treat error and critical as blocking, warning as
// advisory.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Violation is one reported deviation from a process rule.
type Violation struct {
	Principle   string   `json:"principle"`
	Severity    Severity `json:"severity"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Suggestion  string   `json:"suggestion"`
}

// Validator holds the policy document loaded once at construction. The
// policy content is not consulted by the current checks, but a missing
// policy is itself a critical violation: the process rules must exist
// before compliance against them means anything.
type Validator struct {
	policy        string
	policyMissing bool
	policyPath    string
}

// New builds a validator from loaded policy text.
func New(policy string) *Validator {
	return &Validator{policy: policy}
}

// NewMissingPolicy builds a validator that reports the absent policy
// document on every validation call.
func NewMissingPolicy(path string) *Validator {
	return &Validator{policyMissing: true, policyPath: path}
}

const (
	maxTaskDescriptionLen = 200
	maxImplementationRefs = 20
	maxTaskCount          = 25
)

var (
	taskHeaderRE = regexp.MustCompile(`(?m)^(RED-\d+|GREEN-\d+):`)

	// taskDescRE captures the whole description, including continuation
	// lines, up to the first field or blank line.
	taskDescRE = regexp.MustCompile(`(?ms)^(RED-\d+|GREEN-\d+):[ \t]*(.*?)(?:\n-|\n\n|\z)`)

	requirementRE  = regexp.MustCompile(`REQ-\d+`)
	traceMarkerRE  = regexp.MustCompile(`- Traceability:`)
	actionVerbRE   = regexp.MustCompile(`(?i)(test|implement|configure|integrate)`)
	verifyCmdRE    = regexp.MustCompile("(?m)^- Verify[^:]*: `([^`]*)`")
	componentRefRE = regexp.MustCompile(`(?m)^- Component:\s*(.*)`)
)

// customIndicators flag build-over-reuse language. Matches are errors:
// the process mandates existing components over new construction.
var customIndicators = []string{
	"custom implementation", "new framework", "additional dependency",
	"build from scratch", "create new", "implement custom",
}

// complexPatterns flag probable over-engineering.
var complexPatterns = []string{
	"abstract factory", "observer pattern", "strategy pattern",
	"microservice", "distributed", "scalable architecture",
}

// nonStandardPatterns flag hand-rolled replacements for framework
// defaults.
var nonStandardPatterns = []string{
	"custom ORM", "custom auth", "custom router", "custom validation",
	"handwritten SQL", "custom serialization",
}

// humanRegister flags conversational language; task documents address an
// executing agent and must stay imperative.
var humanRegister = []string{
	"please", "thank you", "we should", "let's", "I think",
	"in my opinion", "feel free", "don't hesitate",
}

// nonSoftwarePatterns flag business content that has no place in a
// phase document.
var nonSoftwarePatterns = []string{
	"business strategy", "market analysis", "stakeholder meeting",
	"user research", "marketing", "sales", "pricing",
	"business case", "ROI analysis", "stakeholder buy-in",
}

// scopeCreepPatterns flag additions beyond the traced requirements.
var scopeCreepPatterns = []string{
	"while we're at it", "also implement", "might as well",
	"additional feature", "enhance with", "extend to include",
}

// crossStackPairs are ecosystem tokens that must not co-occur outside an
// integration context.
var crossStackPairs = []struct {
	term1, term2, description string
}{
	{"django", "frontend", "Django components in frontend"},
	{"react", "backend", "React components in backend"},
	{"jsx", "django", "JSX in Django code"},
	{"models.py", "react", "Django models in React"},
}

// testFrameworkPairs are test tooling tokens that indicate mixed
// frameworks when they co-occur.
var testFrameworkPairs = []struct {
	framework1, framework2, description string
}{
	{"pytest", "vitest", "Mixing Python and JavaScript test frameworks"},
	{"unittest", "jest", "Mixing different test frameworks"},
}

// runnerTokens are the recognized verification runners. A verify command
// containing none of them is flagged as likely non-executable.
var runnerTokens = []string{"pytest", "npm test", "python"}

// Validate runs the full check battery over a document. location names
// the document in violation locations, usually its file path.
func (v *Validator) Validate(doc, location string) []Violation {
	var violations []Violation

	if v.policyMissing {
		violations = append(violations, Violation{
			Principle:   "Constitution",
			Severity:    SeverityCritical,
			Location:    v.policyPath,
			Description: "Constitution document not found",
			Suggestion:  "Create the constitution document before validating compliance",
		})
	}

	violations = append(violations, checkContextEfficiency(doc, location)...)
	violations = append(violations, checkMinimalism(doc, location)...)
	violations = append(violations, checkReasonableDefaults(doc, location)...)
	violations = append(violations, checkAgentCentricContent(doc, location)...)
	violations = append(violations, checkFocus(doc, location)...)
	violations = append(violations, checkBoundaries(doc, location)...)
	violations = append(violations, checkDriftDetection(doc, location)...)
	violations = append(violations, checkVerification(doc, location)...)

	return violations
}

func checkContextEfficiency(doc, location string) []Violation {
	var violations []Violation

	for _, m := range taskDescRE.FindAllStringSubmatch(doc, -1) {
		title := strings.TrimSpace(m[2])
		if len(title) > maxTaskDescriptionLen {
			violations = append(violations, Violation{
				Principle:   "Context Efficiency",
				Severity:    SeverityWarning,
				Location:    location + ":" + m[1],
				Description: fmt.Sprintf("Task description exceeds %d characters (%d chars)", maxTaskDescriptionLen, len(title)),
				Suggestion:  "Shorten task description to essential information only",
			})
		}
	}

	if strings.Count(doc, "Implementation:") > maxImplementationRefs {
		violations = append(violations, Violation{
			Principle:   "Context Efficiency",
			Severity:    SeverityWarning,
			Location:    location,
			Description: "High number of implementation tasks may indicate context inefficiency",
			Suggestion:  "Consider consolidating related tasks or breaking into smaller phases",
		})
	}

	return violations
}

func checkMinimalism(doc, location string) []Violation {
	var violations []Violation

	if count := len(taskHeaderRE.FindAllString(doc, -1)); count > maxTaskCount {
		violations = append(violations, Violation{
			Principle:   "Minimalism",
			Severity:    SeverityError,
			Location:    location,
			Description: fmt.Sprintf("Excessive task count (%d) indicates complexity creep", count),
			Suggestion:  "Break down into smaller phases or eliminate non-essential tasks",
		})
	}

	lower := strings.ToLower(doc)
	for _, indicator := range customIndicators {
		for pos := 0; ; {
			idx := strings.Index(lower[pos:], indicator)
			if idx < 0 {
				break
			}
			pos += idx
			violations = append(violations, Violation{
				Principle:   "Minimalism",
				Severity:    SeverityError,
				Location:    fmt.Sprintf("%s:line%d", location, lineNumber(doc, pos)),
				Description: fmt.Sprintf("Detected potential custom implementation: %q", indicator),
				Suggestion:  "Use existing components from architecture boundaries instead",
			})
			pos += len(indicator)
		}
	}

	for _, pattern := range complexPatterns {
		if strings.Contains(lower, pattern) {
			violations = append(violations, Violation{
				Principle:   "Minimalism",
				Severity:    SeverityWarning,
				Location:    location,
				Description: fmt.Sprintf("Complex pattern detected: %q - may be over-engineering", pattern),
				Suggestion:  "Verify this complexity is required by the actual requirements",
			})
		}
	}

	return violations
}

func checkReasonableDefaults(doc, location string) []Violation {
	var violations []Violation
	lower := strings.ToLower(doc)

	for _, pattern := range nonStandardPatterns {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			violations = append(violations, Violation{
				Principle:   "Reasonable Defaults",
				Severity:    SeverityWarning,
				Location:    location,
				Description: fmt.Sprintf("Non-standard implementation detected: %q", pattern),
				Suggestion:  "Use framework defaults (Django ORM, auth, etc.) when possible",
			})
		}
	}

	if strings.Contains(doc, "Django") && !strings.Contains(doc, "models.Model") && strings.Contains(lower, "model") {
		violations = append(violations, Violation{
			Principle:   "Reasonable Defaults",
			Severity:    SeverityWarning,
			Location:    location,
			Description: "Django project not using Django ORM for models",
			Suggestion:  "Use Django's built-in models.Model for data modeling",
		})
	}

	return violations
}

func checkAgentCentricContent(doc, location string) []Violation {
	var violations []Violation
	lower := strings.ToLower(doc)

	for _, phrase := range humanRegister {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			violations = append(violations, Violation{
				Principle:   "Agent-centric Content",
				Severity:    SeverityWarning,
				Location:    location,
				Description: fmt.Sprintf("Human-oriented language detected: %q", phrase),
				Suggestion:  "Use imperative, agent-focused language (Create, Implement, Configure)",
			})
		}
	}

	taskCount := len(taskHeaderRE.FindAllString(doc, -1))
	traceCount := len(traceMarkerRE.FindAllString(doc, -1))
	if taskCount > traceCount {
		violations = append(violations, Violation{
			Principle:   "Agent-centric Content",
			Severity:    SeverityError,
			Location:    location,
			Description: "Some tasks missing traceability information",
			Suggestion:  "Add traceability chain to all tasks for agent execution",
		})
	}

	return violations
}

func checkFocus(doc, location string) []Violation {
	var violations []Violation
	lower := strings.ToLower(doc)

	for _, pattern := range nonSoftwarePatterns {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			violations = append(violations, Violation{
				Principle:   "Focus",
				Severity:    SeverityError,
				Location:    location,
				Description: fmt.Sprintf("Non-software-production content detected: %q", pattern),
				Suggestion:  "Remove business/stakeholder content - focus only on software implementation",
			})
		}
	}

	if !actionVerbRE.MatchString(doc) {
		violations = append(violations, Violation{
			Principle:   "Focus",
			Severity:    SeverityError,
			Location:    location,
			Description: "Content lacks implementation focus",
			Suggestion:  "Ensure all tasks are about testing, implementing, or configuring software",
		})
	}

	return violations
}

func checkBoundaries(doc, location string) []Violation {
	var violations []Violation
	lower := strings.ToLower(doc)

	hasIntegration := strings.Contains(lower, "integration")
	for _, pair := range crossStackPairs {
		if strings.Contains(lower, pair.term1) && strings.Contains(lower, pair.term2) && !hasIntegration {
			violations = append(violations, Violation{
				Principle:   "Boundaries",
				Severity:    SeverityError,
				Location:    location,
				Description: pair.description,
				Suggestion:  "Maintain clean separation between backend (Django) and frontend (React)",
			})
		}
	}

	for _, pair := range testFrameworkPairs {
		if strings.Contains(lower, pair.framework1) && strings.Contains(lower, pair.framework2) {
			violations = append(violations, Violation{
				Principle:   "Boundaries",
				Severity:    SeverityWarning,
				Location:    location,
				Description: pair.description,
				Suggestion:  "Use pytest for backend, Vitest for frontend consistently",
			})
		}
	}

	return violations
}

func checkDriftDetection(doc, location string) []Violation {
	var violations []Violation

	taskCount := len(taskHeaderRE.FindAllString(doc, -1))
	if taskCount > 0 && !requirementRE.MatchString(doc) {
		violations = append(violations, Violation{
			Principle:   "Drift Detection",
			Severity:    SeverityError,
			Location:    location,
			Description: "Tasks not linked to requirements (REQ-XXX)",
			Suggestion:  "Maintain traceability to original requirements to prevent drift",
		})
	}

	lower := strings.ToLower(doc)
	for _, pattern := range scopeCreepPatterns {
		if strings.Contains(lower, pattern) {
			violations = append(violations, Violation{
				Principle:   "Drift Detection",
				Severity:    SeverityWarning,
				Location:    location,
				Description: fmt.Sprintf("Potential scope creep detected: %q", pattern),
				Suggestion:  "Stick to original requirements - additional features should be separate phases",
			})
		}
	}

	return violations
}

func checkVerification(doc, location string) []Violation {
	var violations []Violation

	// Split the document at task headers so each task's body can be
	// inspected for its verification marker.
	headers := taskHeaderRE.FindAllStringSubmatchIndex(doc, -1)
	for i, h := range headers {
		end := len(doc)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}
		taskID := doc[h[2]:h[3]]
		if !strings.Contains(doc[h[0]:end], "Verify") {
			violations = append(violations, Violation{
				Principle:   "Verification",
				Severity:    SeverityError,
				Location:    location + ":" + taskID,
				Description: "Task missing verification command",
				Suggestion:  "Add 'Verify Pass:' or 'Verify Failure:' command to task",
			})
		}
	}

	for _, m := range verifyCmdRE.FindAllStringSubmatch(doc, -1) {
		command := m[1]
		recognized := false
		for _, runner := range runnerTokens {
			if strings.Contains(command, runner) {
				recognized = true
				break
			}
		}
		if !recognized {
			violations = append(violations, Violation{
				Principle:   "Verification",
				Severity:    SeverityWarning,
				Location:    location,
				Description: fmt.Sprintf("Verification command may not be executable: %q", command),
				Suggestion:  "Use standard test runners (pytest, npm test) for verification",
			})
		}
	}

	return violations
}

// ValidateComponentUsage reports every declared component absent from
// the allow-list text. The caller reads both documents; an unreadable
// allow-list is its fatal condition.
func ValidateComponentUsage(doc, allowlist, location string) []Violation {
	var violations []Violation

	for _, m := range componentRefRE.FindAllStringSubmatch(doc, -1) {
		component := strings.TrimSpace(m[1])
		if component == "" {
			continue
		}
		if !strings.Contains(allowlist, component) {
			violations = append(violations, Violation{
				Principle:   "Architecture Boundaries",
				Severity:    SeverityError,
				Location:    location,
				Description: fmt.Sprintf("Component %q not found in architecture boundaries", component),
				Suggestion:  "Use only components defined in the architecture boundaries document",
			})
		}
	}

	return violations
}

// MissingDocument is the single critical violation reported when a
// required input document cannot be read.
func MissingDocument(principle, path string) Violation {
	return Violation{
		Principle:   principle,
		Severity:    SeverityCritical,
		Location:    path,
		Description: "Required file not found: " + path,
		Suggestion:  "Ensure the required document exists before validating",
	}
}

// MalformedRecords converts the parser's dropped-record diagnostics into
// warning violations, so grammar problems surface in the same report as
// policy problems.
func MalformedRecords(doc, location string) []Violation {
	var violations []Violation
	for _, d := range artifact.DroppedRecords(doc) {
		violations = append(violations, Violation{
			Principle:   "Document Grammar",
			Severity:    SeverityWarning,
			Location:    fmt.Sprintf("%s:line%d", location, d.Line),
			Description: fmt.Sprintf("Malformed %s-%s record dropped: %s", d.Kind, d.ID, d.Reason),
			Suggestion:  "Restore the record's required fields in their declared order",
		})
	}
	return violations
}

// HasBlocking reports whether any violation should gate progression.
func HasBlocking(violations []Violation) bool {
	for _, v := range violations {
		if v.Severity == SeverityError || v.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// lineNumber converts a byte offset into a 1-based line number.
func lineNumber(doc string, pos int) int {
	return strings.Count(doc[:pos], "\n") + 1
}
