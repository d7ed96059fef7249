package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// RuleKind identifies a validation rule.
type RuleKind string

const (
	RuleMinLength  RuleKind = "MIN_LENGTH"
	RuleMaxLength  RuleKind = "MAX_LENGTH"
	RulePattern    RuleKind = "PATTERN"
	RuleRange      RuleKind = "RANGE"
	RuleRequiredIf RuleKind = "REQUIRED_IF"
)

// RuleKinds lists every supported rule kind.
func RuleKinds() []RuleKind {
	return []RuleKind{RuleMinLength, RuleMaxLength, RulePattern, RuleRange, RuleRequiredIf}
}

// Compatible reports whether a rule kind applies to a field type.
func Compatible(kind RuleKind, typ FieldType) bool {
	switch kind {
	case RuleMinLength, RuleMaxLength:
		return typ == FieldTypeText || typ == FieldTypeMultiSelect
	case RulePattern:
		return typ == FieldTypeText
	case RuleRange:
		return typ == FieldTypeText || typ == FieldTypeNumber || typ == FieldTypeDate
	case RuleRequiredIf:
		return true
	default:
		return false
	}
}

// RuleInput is the raw definition of a rule.
type RuleInput struct {
	Kind   string          `json:"kind" validate:"required"`
	Params json.RawMessage `json:"params,omitempty"`
}

// RuleParams is the kind-specific payload of a rule. The set of
// implementations is closed: MinLengthParams, MaxLengthParams, PatternParams,
// RangeParams and RequiredIfParams.
type RuleParams interface {
	Kind() RuleKind
	sealed()
}

// MinLengthParams bounds the rune count of a TEXT value or the number of
// selections of a MULTISELECT value from below.
type MinLengthParams struct {
	Value int `json:"value"`
}

// MaxLengthParams is the upper counterpart of MinLengthParams.
type MaxLengthParams struct {
	Value int `json:"value"`
}

// PatternParams requires a TEXT value to match a regular expression.
type PatternParams struct {
	Expr string `json:"value"`
	re   *regexp.Regexp
}

// RangeParams bounds a value inclusively. Either bound may be absent.
type RangeParams struct {
	Min *Bound
	Max *Bound
}

// RequiredIfParams makes a field mandatory when another field's answer equals
// Equals.
type RequiredIfParams struct {
	Field  string      `json:"field"`
	Equals interface{} `json:"equals"`
}

func (MinLengthParams) Kind() RuleKind  { return RuleMinLength }
func (MaxLengthParams) Kind() RuleKind  { return RuleMaxLength }
func (PatternParams) Kind() RuleKind    { return RulePattern }
func (RangeParams) Kind() RuleKind      { return RuleRange }
func (RequiredIfParams) Kind() RuleKind { return RuleRequiredIf }

func (MinLengthParams) sealed()  {}
func (MaxLengthParams) sealed()  {}
func (PatternParams) sealed()    {}
func (RangeParams) sealed()      {}
func (RequiredIfParams) sealed() {}

// Bound is one end of a RANGE, typed by the field it was declared for.
type Bound struct {
	typ  FieldType
	text string
	num  float64
	date time.Time
}

func parseBound(raw json.RawMessage, typ FieldType) (*Bound, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	b := &Bound{typ: typ}
	switch typ {
	case FieldTypeNumber:
		if err := json.Unmarshal(raw, &b.num); err != nil || math.IsNaN(b.num) || math.IsInf(b.num, 0) {
			return nil, fmt.Errorf("must be a number")
		}
	case FieldTypeDate:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("must be a date string")
		}
		t, ok := parseDate(s)
		if !ok {
			return nil, fmt.Errorf("unparseable date %q", s)
		}
		b.date = t
	case FieldTypeText:
		if err := json.Unmarshal(raw, &b.text); err != nil {
			return nil, fmt.Errorf("must be a string")
		}
	default:
		return nil, &IncompatibleRuleError{Kind: RuleRange, FieldType: typ}
	}
	return b, nil
}

func (b *Bound) String() string {
	switch b.typ {
	case FieldTypeNumber:
		return formatNumber(b.num)
	case FieldTypeDate:
		return b.date.Format(DateLayout)
	default:
		return b.text
	}
}

// compare orders v against the bound: negative when v is below it.
func (b *Bound) compare(v interface{}) (int, bool) {
	switch b.typ {
	case FieldTypeNumber:
		n, ok := asNumber(v)
		if !ok {
			return 0, false
		}
		switch {
		case n < b.num:
			return -1, true
		case n > b.num:
			return 1, true
		}
		return 0, true
	case FieldTypeDate:
		t, ok := asDate(v)
		if !ok {
			return 0, false
		}
		return t.Compare(b.date), true
	default:
		s, ok := asText(v)
		if !ok {
			return 0, false
		}
		return strings.Compare(s, b.text), true
	}
}

// Rule is a validated rule bound to the field type it was declared for.
type Rule struct {
	params    RuleParams
	fieldType FieldType
	raw       json.RawMessage
}

// NewRule validates in against the given field type.
func NewRule(in RuleInput, typ FieldType) (Rule, error) {
	return newRule("", in, typ)
}

func newRule(path string, in RuleInput, typ FieldType) (Rule, error) {
	paramsPath := "params"
	if path != "" {
		paramsPath = path + ".params"
	}
	kind := RuleKind(strings.ToUpper(strings.TrimSpace(in.Kind)))
	if !Compatible(kind, typ) {
		if !knownKind(kind) {
			return Rule{}, invalid(path, "unknown rule kind %q", in.Kind)
		}
		incompatible := &IncompatibleRuleError{Kind: kind, FieldType: typ}
		return Rule{}, &SchemaValidationError{Path: path, Reason: incompatible.Error(), Err: incompatible}
	}

	var (
		params RuleParams
		err    error
	)
	switch kind {
	case RuleMinLength:
		var p MinLengthParams
		if err = decodeParams(in.Params, &p); err == nil && p.Value < 0 {
			err = fmt.Errorf("value must not be negative")
		}
		params = p
	case RuleMaxLength:
		var p MaxLengthParams
		if err = decodeParams(in.Params, &p); err == nil && p.Value < 0 {
			err = fmt.Errorf("value must not be negative")
		}
		params = p
	case RulePattern:
		var p PatternParams
		if err = decodeParams(in.Params, &p); err == nil {
			if p.Expr == "" {
				err = fmt.Errorf("value must not be empty")
			} else if p.re, err = regexp.Compile(p.Expr); err != nil {
				err = fmt.Errorf("invalid pattern: %w", err)
			}
		}
		params = p
	case RuleRange:
		params, err = parseRange(in.Params, typ)
	case RuleRequiredIf:
		var p RequiredIfParams
		if err = decodeParams(in.Params, &p); err == nil {
			p.Field = strings.TrimSpace(p.Field)
			if p.Field == "" {
				err = fmt.Errorf("field must not be empty")
			}
		}
		params = p
	default:
		return Rule{}, invalid(path, "unknown rule kind %q", in.Kind)
	}
	if err != nil {
		return Rule{}, invalid(paramsPath, "%s: %v", kind, err)
	}

	raw := append(json.RawMessage(nil), in.Params...)
	return Rule{params: params, fieldType: typ, raw: raw}, nil
}

func knownKind(kind RuleKind) bool {
	for _, k := range RuleKinds() {
		if k == kind {
			return true
		}
	}
	return false
}

func decodeParams(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return fmt.Errorf("params are required")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("malformed params: %w", err)
	}
	return nil
}

func parseRange(raw json.RawMessage, typ FieldType) (RangeParams, error) {
	var wire struct {
		Min json.RawMessage `json:"min"`
		Max json.RawMessage `json:"max"`
	}
	if err := decodeParams(raw, &wire); err != nil {
		return RangeParams{}, err
	}
	min, err := parseBound(wire.Min, typ)
	if err != nil {
		return RangeParams{}, fmt.Errorf("min %v", err)
	}
	max, err := parseBound(wire.Max, typ)
	if err != nil {
		return RangeParams{}, fmt.Errorf("max %v", err)
	}
	if min == nil && max == nil {
		return RangeParams{}, fmt.Errorf("min or max is required")
	}
	if min != nil && max != nil {
		if c, _ := max.compareBound(min); c > 0 {
			return RangeParams{}, fmt.Errorf("min %s is greater than max %s", min, max)
		}
	}
	return RangeParams{Min: min, Max: max}, nil
}

func (b *Bound) compareBound(other *Bound) (int, bool) {
	switch b.typ {
	case FieldTypeNumber:
		return b.compare(other.num)
	case FieldTypeDate:
		return b.compare(other.date)
	default:
		return b.compare(other.text)
	}
}

func (r Rule) Kind() RuleKind { return r.params.Kind() }

// Params returns the kind-specific payload; switch on its concrete type.
func (r Rule) Params() RuleParams { return r.params }

// FieldType is the type the rule was validated against.
func (r Rule) FieldType() FieldType { return r.fieldType }

func (r Rule) RawParams() json.RawMessage {
	return append(json.RawMessage(nil), r.raw...)
}

// Input converts the rule back to its raw definition.
func (r Rule) Input() RuleInput {
	return RuleInput{Kind: string(r.Kind()), Params: r.RawParams()}
}

// RuleResult is the outcome of evaluating one rule.
type RuleResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

var pass = RuleResult{OK: true}

func fail(format string, args ...interface{}) RuleResult {
	return RuleResult{Message: fmt.Sprintf(format, args...)}
}

// Evaluate checks value against rule for a field of type typ. answers holds
// the other answers of the same submission and is only consulted by
// REQUIRED_IF; it may be nil. Empty values satisfy every rule except
// REQUIRED_IF.
func Evaluate(rule Rule, value interface{}, typ FieldType, answers map[string]interface{}) (RuleResult, error) {
	if rule.params == nil {
		return RuleResult{}, fmt.Errorf("rule was not constructed with NewRule")
	}
	kind := rule.Kind()
	if !Compatible(kind, typ) || (kind == RuleRange && rule.fieldType != typ) {
		return RuleResult{}, &IncompatibleRuleError{Kind: kind, FieldType: typ}
	}

	if p, ok := rule.params.(RequiredIfParams); ok {
		other, present := answers[p.Field]
		if present && matches(other, p.Equals) && isEmpty(value) {
			return fail("required when %s is %v", p.Field, p.Equals), nil
		}
		return pass, nil
	}
	if isEmpty(value) {
		return pass, nil
	}

	switch p := rule.params.(type) {
	case MinLengthParams:
		n, ok := length(value, typ)
		if !ok {
			return fail("expected a %s value", typ), nil
		}
		if n < p.Value {
			return fail("must contain at least %d %s", p.Value, unit(typ)), nil
		}
		return pass, nil
	case MaxLengthParams:
		n, ok := length(value, typ)
		if !ok {
			return fail("expected a %s value", typ), nil
		}
		if n > p.Value {
			return fail("must contain at most %d %s", p.Value, unit(typ)), nil
		}
		return pass, nil
	case PatternParams:
		s, ok := asText(value)
		if !ok {
			return fail("expected a %s value", typ), nil
		}
		re := p.re
		if re == nil {
			re = regexp.MustCompile(p.Expr)
		}
		if !re.MatchString(s) {
			return fail("must match %s", p.Expr), nil
		}
		return pass, nil
	case RangeParams:
		if p.Min != nil {
			c, ok := p.Min.compare(value)
			if !ok {
				return fail("expected a %s value", typ), nil
			}
			if c < 0 {
				return fail("must be at least %s", p.Min), nil
			}
		}
		if p.Max != nil {
			c, ok := p.Max.compare(value)
			if !ok {
				return fail("expected a %s value", typ), nil
			}
			if c > 0 {
				return fail("must be at most %s", p.Max), nil
			}
		}
		return pass, nil
	default:
		return RuleResult{}, fmt.Errorf("no evaluator for rule %s", kind)
	}
}

func length(value interface{}, typ FieldType) (int, bool) {
	if typ == FieldTypeMultiSelect {
		list, ok := asStrings(value)
		return len(list), ok
	}
	s, ok := asText(value)
	return utf8.RuneCountInString(s), ok
}

func unit(typ FieldType) string {
	if typ == FieldTypeMultiSelect {
		return "selections"
	}
	return "characters"
}
