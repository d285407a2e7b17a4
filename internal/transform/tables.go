package transform

import "strings"

// The classification tables are ordered lists of (keyword, result) pairs,
// scanned first-match-wins. Order matters: "api" must be tested before
// "validation", and the tables must never be converted to maps.

type keywordRule struct {
	keyword string
	result  string
}

// componentRules selects an implementation component from the text of a
// success criterion.
var componentRules = []keywordRule{
	{"authentication", "Django auth (django.contrib.auth)"},
	{"api", "Django @api_view decorator"},
	{"model", "Django ORM (models.Model)"},
	{"task", "Celery @shared_task"},
	{"validation", "Django forms (forms.Form)"},
	{"ui", "React functional component"},
	{"state", "useState/useContext hooks"},
	{"routing", "React Router"},
	{"http", "Axios client"},
	{"form", "React controlled components"},
	{"style", "CSS modules"},
}

// selectComponent returns the component for a criterion, falling back to
// the stack default when no keyword matches: frontend-flavored text gets
// a React component, everything else a Django view.
func selectComponent(criterion string) string {
	lower := strings.ToLower(criterion)
	for _, rule := range componentRules {
		if strings.Contains(lower, rule.keyword) {
			return rule.result
		}
	}
	if strings.Contains(lower, "frontend") || strings.Contains(lower, "ui") {
		return "React functional component"
	}
	return "Django @api_view decorator"
}

// acceptanceRules derives the acceptance criterion from the action verb
// in the criterion text.
var acceptanceRules = []struct {
	keywords []string
	result   string
}{
	{[]string{"display", "show"}, "UI element renders with data"},
	{[]string{"create", "add"}, "Returns ID when created"},
	{[]string{"update", "edit"}, "Returns success status"},
	{[]string{"delete", "remove"}, "Returns confirmation"},
	{[]string{"validate"}, "Returns valid/invalid with errors"},
}

// deriveAcceptance returns the acceptance text for a criterion, or the
// generic fallback when no verb matches.
func deriveAcceptance(criterion string) string {
	lower := strings.ToLower(criterion)
	for _, rule := range acceptanceRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.result
			}
		}
	}
	return "Operation completes successfully"
}

// greenComponentRules maps an expected-failure keyword to the green
// implementation component, per stack. Ordered: "Model" and "Task" are
// tested before the bare "ImportError" so an import failure naming a
// model or task classifies by what failed, not how.
var backendComponentRules = []keywordRule{
	{"Model", "Django ORM (models.Model)"},
	{"API", "Django @api_view decorator"},
	{"URLError", "Django @api_view decorator"},
	{"Task", "Celery @shared_task"},
	{"ImportError", "Django ORM (models.Model)"},
}

var frontendComponentRules = []keywordRule{
	{"Component", "React functional component"},
	{"Hook", "React hooks (useState/useEffect)"},
	{"Service", "Axios API client"},
}

// selectGreenComponent picks the implementation component for a red task
// from its test type and expected failure.
func selectGreenComponent(testType, expectedFailure string) string {
	switch {
	case strings.Contains(testType, "Backend"):
		for _, rule := range backendComponentRules {
			if strings.Contains(expectedFailure, rule.keyword) {
				return rule.result
			}
		}
		return "Django function from existing patterns"
	case strings.Contains(testType, "Frontend"):
		for _, rule := range frontendComponentRules {
			if strings.Contains(expectedFailure, rule.keyword) {
				return rule.result
			}
		}
		return "React component from existing patterns"
	default:
		return "Existing component from architecture boundaries"
	}
}

// secretRules maps external-service keywords in an implementation
// description to the secrets that service requires. Ordered for
// deterministic output when several keywords appear.
var secretRules = []keywordRule{
	{"oauth", "GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET"},
	{"email", "SENDGRID_API_KEY, FROM_EMAIL"},
	{"payment", "STRIPE_SECRET_KEY"},
	{"storage", "AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY"},
	{"webhook", "WEBHOOK_SECRET"},
}

// secretDependencies returns the REQUIRES-SECRETS note for an
// implementation description, or "" when no external service is involved.
func secretDependencies(implementation string) string {
	lower := strings.ToLower(implementation)
	for _, rule := range secretRules {
		if strings.Contains(lower, rule.keyword) {
			return "REQUIRES-SECRETS: [" + rule.result + "]"
		}
	}
	return ""
}
