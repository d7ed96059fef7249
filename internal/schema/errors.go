package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPrefabInactive is returned when answers are submitted to a deactivated prefab.
var ErrPrefabInactive = errors.New("prefab is not accepting answers")

// SchemaValidationError reports a malformed field, rule or option definition.
// Path locates the offending element, e.g. "groups[0].fields[1].options".
type SchemaValidationError struct {
	Path   string
	Reason string
	Err    error
}

func (e *SchemaValidationError) Error() string {
	if e.Path == "" {
		return "invalid schema: " + e.Reason
	}
	return fmt.Sprintf("invalid schema at %s: %s", e.Path, e.Reason)
}

func (e *SchemaValidationError) Unwrap() error { return e.Err }

func invalid(path, format string, args ...interface{}) *SchemaValidationError {
	return &SchemaValidationError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// IncompatibleRuleError is returned when a rule kind cannot apply to a field type.
type IncompatibleRuleError struct {
	Kind      RuleKind
	FieldType FieldType
}

func (e *IncompatibleRuleError) Error() string {
	return fmt.Sprintf("rule %s cannot be applied to %s fields", e.Kind, e.FieldType)
}

// NotFoundError is returned when a prefab id does not resolve.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("prefab %q not found", e.ID)
}

// AuthorizationError is returned when a caller may not perform an operation.
type AuthorizationError struct {
	CallerID string
	Action   string
}

func (e *AuthorizationError) Error() string {
	if e.CallerID == "" {
		return fmt.Sprintf("anonymous caller is not allowed to %s", e.Action)
	}
	return fmt.Sprintf("caller %q is not allowed to %s", e.CallerID, e.Action)
}

// ExportIOError wraps a failure of the spreadsheet serializer.
type ExportIOError struct {
	PrefabID string
	Err      error
}

func (e *ExportIOError) Error() string {
	return fmt.Sprintf("export of prefab %q failed: %v", e.PrefabID, e.Err)
}

func (e *ExportIOError) Unwrap() error { return e.Err }

// Violation is a single failed check of a submitted answer.
type Violation struct {
	FieldID string   `json:"fieldId"`
	Kind    RuleKind `json:"kind,omitempty"`
	Message string   `json:"message"`
}

// AnswerValidationError groups every violation found in one submission.
type AnswerValidationError struct {
	Violations []Violation
}

func (e *AnswerValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.FieldID+": "+v.Message)
	}
	return "invalid answers: " + strings.Join(msgs, "; ")
}
