package audit

import (
	"fmt"
	"strings"
)

// Operation tags callers may supply in a change context (under "actionType"
// or "operation") to get an operation-specific summary instead of the
// generic rules.
const (
	OpFollowUpCompleted = "FOLLOW_UP_COMPLETED"
	OpContactCompletion = "CONTACT_COMPLETION"
	OpDriverAssignment  = "DRIVER_ASSIGNMENT"
	OpStatusUpdate      = "STATUS_UPDATE"
	OpToolkitSent       = "TOOLKIT_SENT"
)

// defaultSignificantKeywords flag a change as significant when the field
// name contains one of them (case-insensitive). Email and phone match
// exactly rather than by substring so fields like "phonetic" don't qualify.
var defaultSignificantKeywords = []string{
	"status",
	"assigned",
	"contact",
	"date",
	"toolkit",
}

// exactSignificantFields are matched by whole field name, case-insensitive.
var exactSignificantFields = []string{"email", "phone"}

// Summarize produces one short natural-language summary for a set of
// changes. Operation-specific templates (via the change context) take
// priority over generic rules; then a status change dominates; then
// all-assignment and all-date groupings; finally a generic field list.
func Summarize(changes []FieldChange, changeContext map[string]any) string {
	if op := OperationTag(changeContext); op != "" {
		if s, ok := operationSummary(op, len(changes)); ok {
			return s
		}
	}

	if len(changes) == 0 {
		return "No significant changes detected"
	}

	// A status change headlines the summary on its own description. A
	// first-time set (no prior value, as on creation) doesn't headline;
	// it falls through to the generic field list with the rest.
	for _, c := range changes {
		if c.Field != "status" || FormatValue(c.OldValue, c.Field) == notSet {
			continue
		}
		if extra := len(changes) - 1; extra > 0 {
			return fmt.Sprintf("%s and %s", c.Description, pluralize(extra, "other change", "other changes"))
		}
		return c.Description
	}

	if allFieldsContain(changes, "assigned", "contact") {
		return "Updated " + pluralize(len(changes), "assignment", "assignments")
	}

	if allFieldsContain(changes, "date", "time") {
		return "Updated " + pluralize(len(changes), "date/time field", "date/time fields")
	}

	// Generic fallback: list up to three friendly names.
	names := make([]string, 0, 3)
	for _, c := range changes[:min(len(changes), 3)] {
		names = append(names, c.FieldName)
	}
	summary := fmt.Sprintf("Updated %s: %s",
		pluralize(len(changes), "field", "fields"),
		strings.Join(names, ", "))
	if rest := len(changes) - 3; rest > 0 {
		summary += fmt.Sprintf(" and %d more", rest)
	}
	return summary
}

// OperationTag extracts the operation hint from a change context, checking
// "actionType" first, then "operation".
func OperationTag(changeContext map[string]any) string {
	if changeContext == nil {
		return ""
	}
	for _, key := range []string{"actionType", "operation"} {
		if v, ok := changeContext[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// operationSummary returns the templated summary for a known operation tag.
func operationSummary(op string, count int) (string, bool) {
	switch op {
	case OpFollowUpCompleted:
		return "Follow-up completed with " + pluralize(count, "change", "changes"), true
	case OpContactCompletion:
		return "Contact work completed with " + pluralize(count, "change", "changes"), true
	case OpDriverAssignment:
		return "Driver assignment updated (" + pluralize(count, "change", "changes") + ")", true
	case OpStatusUpdate:
		return "Status updated with " + pluralize(count, "additional change", "additional changes"), true
	case OpToolkitSent:
		return "Toolkit sent (" + pluralize(count, "change", "changes") + ")", true
	}
	return "", false
}

// Classifier tags the subset of changes worth surfacing in the
// significant-only audit stream.
type Classifier struct {
	keywords []string
}

// NewClassifier creates a Classifier. A nil keyword list uses the defaults.
func NewClassifier(keywords []string) *Classifier {
	if keywords == nil {
		keywords = defaultSignificantKeywords
	}
	return &Classifier{keywords: keywords}
}

// Classify returns the descriptions of significant changes, in input order.
// Descriptions rather than field names: the result is consumed directly by
// humans scanning the significant-history stream.
func (cl *Classifier) Classify(changes []FieldChange) []string {
	var significant []string
	for _, c := range changes {
		if cl.isSignificant(c.Field) {
			significant = append(significant, c.Description)
		}
	}
	return significant
}

func (cl *Classifier) isSignificant(field string) bool {
	lower := strings.ToLower(field)
	for _, exact := range exactSignificantFields {
		if lower == exact {
			return true
		}
	}
	for _, kw := range cl.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// allFieldsContain reports whether every change's field name contains at
// least one of the given substrings (case-insensitive).
func allFieldsContain(changes []FieldChange, substrings ...string) bool {
	for _, c := range changes {
		lower := strings.ToLower(c.Field)
		matched := false
		for _, sub := range substrings {
			if strings.Contains(lower, sub) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// pluralize renders "N singular" or "N plural".
func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
