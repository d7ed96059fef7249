package schema

import (
	"fmt"
	"sort"
)

// CheckValue validates one submitted value against a field: presence, type,
// membership in the option set, then every rule. All rules are evaluated so
// each violation is reported; rules are skipped only when the value has the
// wrong shape for the field type.
func CheckValue(f Field, value interface{}, answers map[string]interface{}) ([]Violation, error) {
	var out []Violation
	add := func(kind RuleKind, msg string) {
		out = append(out, Violation{FieldID: f.id, Kind: kind, Message: msg})
	}

	if isEmpty(value) {
		if !f.optional && !f.hidden {
			add("", "is required")
		}
	} else if msg := checkShape(f, value); msg != "" {
		add("", msg)
		return out, nil
	}

	for _, r := range f.rules {
		res, err := Evaluate(r, value, f.typ, answers)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.id, err)
		}
		if !res.OK {
			add(r.Kind(), res.Message)
		}
	}
	return out, nil
}

func checkShape(f Field, value interface{}) string {
	switch f.typ {
	case FieldTypeText:
		if _, ok := asText(value); !ok {
			return "expected text"
		}
	case FieldTypeNumber:
		if _, ok := asNumber(value); !ok {
			return "expected a number"
		}
	case FieldTypeDate:
		if _, ok := asDate(value); !ok {
			return "expected a date (YYYY-MM-DD)"
		}
	case FieldTypeBoolean:
		if _, ok := asBool(value); !ok {
			return "expected true or false"
		}
	case FieldTypeSelect:
		s, ok := asText(value)
		if !ok {
			return "expected one choice"
		}
		if _, known := f.options.Label(s); !known {
			return fmt.Sprintf("unknown choice %q", s)
		}
	case FieldTypeMultiSelect:
		list, ok := asStrings(value)
		if !ok {
			return "expected a list of choices"
		}
		seen := make(map[string]struct{}, len(list))
		for _, s := range list {
			if _, known := f.options.Label(s); !known {
				return fmt.Sprintf("unknown choice %q", s)
			}
			if _, dup := seen[s]; dup {
				return fmt.Sprintf("choice %q selected twice", s)
			}
			seen[s] = struct{}{}
		}
	default:
		return fmt.Sprintf("unsupported field type %s", f.typ)
	}
	return ""
}

// ValidateAnswers checks a whole submission against p and returns an
// *AnswerValidationError listing every violation, or nil.
func (p *Prefab) ValidateAnswers(values map[string]interface{}) error {
	if !p.IsActive {
		return ErrPrefabInactive
	}

	var violations []Violation
	unknown := make([]string, 0)
	for id := range values {
		if _, ok := p.Field(id); !ok {
			unknown = append(unknown, id)
		}
	}
	sort.Strings(unknown)
	for _, id := range unknown {
		violations = append(violations, Violation{FieldID: id, Message: "is not a field of this prefab"})
	}

	for _, f := range p.Fields() {
		vs, err := CheckValue(f, values[f.id], values)
		if err != nil {
			return err
		}
		violations = append(violations, vs...)
	}
	if len(violations) > 0 {
		return &AnswerValidationError{Violations: violations}
	}
	return nil
}
