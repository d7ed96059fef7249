package schema

import (
	"fmt"
	"strings"
)

// FieldType is the declared input type of a field.
type FieldType string

const (
	FieldTypeText        FieldType = "TEXT"
	FieldTypeNumber      FieldType = "NUMBER"
	FieldTypeDate        FieldType = "DATE"
	FieldTypeSelect      FieldType = "SELECT"
	FieldTypeMultiSelect FieldType = "MULTISELECT"
	FieldTypeBoolean     FieldType = "BOOLEAN"
)

// FieldTypes lists every supported field type.
func FieldTypes() []FieldType {
	return []FieldType{
		FieldTypeText,
		FieldTypeNumber,
		FieldTypeDate,
		FieldTypeSelect,
		FieldTypeMultiSelect,
		FieldTypeBoolean,
	}
}

// ParseFieldType accepts the canonical names case-insensitively.
func ParseFieldType(s string) (FieldType, error) {
	t := FieldType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeDate, FieldTypeSelect, FieldTypeMultiSelect, FieldTypeBoolean:
		return t, nil
	default:
		return "", fmt.Errorf("unknown field type %q", s)
	}
}

// IsChoice reports whether the type requires an option set.
func (t FieldType) IsChoice() bool {
	return t == FieldTypeSelect || t == FieldTypeMultiSelect
}

// Choice is one selectable entry of an option set.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// OptionInput is the raw option set of a choice field.
type OptionInput struct {
	Choices []Choice `json:"choices"`
}

// Option is a validated, ordered set of choices.
type Option struct {
	choices []Choice
}

func newOption(path string, in OptionInput) (Option, error) {
	if len(in.Choices) == 0 {
		return Option{}, invalid(path, "at least one choice is required")
	}
	seen := make(map[string]struct{}, len(in.Choices))
	choices := make([]Choice, 0, len(in.Choices))
	for i, c := range in.Choices {
		value := strings.TrimSpace(c.Value)
		if value == "" {
			return Option{}, invalid(fmt.Sprintf("%s.choices[%d].value", path, i), "must not be empty")
		}
		if _, dup := seen[value]; dup {
			return Option{}, invalid(fmt.Sprintf("%s.choices[%d].value", path, i), "duplicate choice %q", value)
		}
		seen[value] = struct{}{}
		label := c.Label
		if label == "" {
			label = value
		}
		choices = append(choices, Choice{Value: value, Label: label})
	}
	return Option{choices: choices}, nil
}

// Choices returns a copy of the choices in declared order.
func (o Option) Choices() []Choice {
	return append([]Choice(nil), o.choices...)
}

// Label returns the display label of value.
func (o Option) Label(value string) (string, bool) {
	for _, c := range o.choices {
		if c.Value == value {
			return c.Label, true
		}
	}
	return "", false
}

func (o Option) input() *OptionInput {
	if len(o.choices) == 0 {
		return nil
	}
	return &OptionInput{Choices: o.Choices()}
}

// FieldInput is the raw definition of a field as received from a client.
type FieldInput struct {
	ID              string       `json:"id" validate:"required"`
	Label           string       `json:"label"`
	Type            string       `json:"type" validate:"required"`
	Optional        bool         `json:"optional"`
	Hidden          bool         `json:"hidden"`
	ValidationRules []RuleInput  `json:"validationRules"`
	Options         *OptionInput `json:"options,omitempty"`
}

// Field is a validated form field. The zero value is not usable.
type Field struct {
	id       string
	label    string
	typ      FieldType
	optional bool
	hidden   bool
	rules    []Rule
	options  Option
}

// NewField validates in and builds a Field.
func NewField(in FieldInput) (Field, error) {
	return newField("", in)
}

func newField(path string, in FieldInput) (Field, error) {
	at := func(sub string) string {
		if path == "" {
			return sub
		}
		return path + "." + sub
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		return Field{}, invalid(at("id"), "must not be empty")
	}
	typ, err := ParseFieldType(in.Type)
	if err != nil {
		return Field{}, invalid(at("type"), "%v", err)
	}

	f := Field{
		id:       id,
		label:    in.Label,
		typ:      typ,
		optional: in.Optional,
		hidden:   in.Hidden,
	}

	switch {
	case typ.IsChoice() && in.Options == nil:
		return Field{}, invalid(at("options"), "required for %s fields", typ)
	case !typ.IsChoice() && in.Options != nil:
		return Field{}, invalid(at("options"), "not allowed for %s fields", typ)
	case typ.IsChoice():
		if f.options, err = newOption(at("options"), *in.Options); err != nil {
			return Field{}, err
		}
	}

	f.rules = make([]Rule, 0, len(in.ValidationRules))
	for i, ri := range in.ValidationRules {
		rule, err := newRule(at(fmt.Sprintf("validationRules[%d]", i)), ri, typ)
		if err != nil {
			return Field{}, err
		}
		if rf, ok := rule.params.(RequiredIfParams); ok && rf.Field == id {
			return Field{}, invalid(at(fmt.Sprintf("validationRules[%d].params.field", i)), "a field cannot depend on itself")
		}
		f.rules = append(f.rules, rule)
	}
	return f, nil
}

func (f Field) ID() string      { return f.id }
func (f Field) Label() string   { return f.label }
func (f Field) Type() FieldType { return f.typ }
func (f Field) Optional() bool  { return f.optional }
func (f Field) Hidden() bool    { return f.hidden }
func (f Field) Options() Option { return f.options }

// Title is the label, or the id when no label was given.
func (f Field) Title() string {
	if f.label != "" {
		return f.label
	}
	return f.id
}

// Rules returns the field's rules in declared order.
func (f Field) Rules() []Rule {
	return append([]Rule(nil), f.rules...)
}

// Input converts the field back to its raw definition.
func (f Field) Input() FieldInput {
	rules := make([]RuleInput, 0, len(f.rules))
	for _, r := range f.rules {
		rules = append(rules, r.Input())
	}
	return FieldInput{
		ID:              f.id,
		Label:           f.label,
		Type:            string(f.typ),
		Optional:        f.optional,
		Hidden:          f.hidden,
		ValidationRules: rules,
		Options:         f.options.input(),
	}
}
