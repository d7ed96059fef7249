package schema

import (
	"fmt"
	"iter"
	"strings"
	"time"
)

// MultiSelectDelimiter joins the labels of a MULTISELECT answer in exports.
const MultiSelectDelimiter = "; "

// AnswerRecord is one submitted response to a prefab. UserID is empty for
// anonymous respondents.
type AnswerRecord struct {
	ID        string
	PrefabID  string
	UserID    string
	Values    map[string]interface{}
	CreatedAt time.Time
}

// Table is the tabular form of a prefab's answers. Rows yields one row per
// answer, in the order the answers were produced; it makes a single pass over
// the underlying answer sequence.
type Table struct {
	Header []string
	Rows   iter.Seq[[]string]
}

// ToTable lays the answers out with one column per field, hidden fields
// included, in group-then-field order.
func ToTable(p *Prefab, answers iter.Seq[AnswerRecord]) Table {
	fields := p.Fields()
	header := make([]string, 0, len(fields))
	for _, f := range fields {
		header = append(header, f.Title())
	}
	rows := func(yield func([]string) bool) {
		for a := range answers {
			row := make([]string, len(fields))
			for i, f := range fields {
				row[i] = RenderCell(f, a.Values[f.id])
			}
			if !yield(row) {
				return
			}
		}
	}
	return Table{Header: header, Rows: rows}
}

// RenderCell formats a stored value for a spreadsheet cell. Choice fields
// render option labels; values that no longer match an option are kept raw.
func RenderCell(f Field, v interface{}) string {
	if v == nil {
		return ""
	}
	switch f.typ {
	case FieldTypeText:
		if s, ok := asText(v); ok {
			return s
		}
	case FieldTypeNumber:
		if n, ok := asNumber(v); ok {
			return formatNumber(n)
		}
	case FieldTypeDate:
		if t, ok := asDate(v); ok {
			return t.Format(DateLayout)
		}
	case FieldTypeBoolean:
		if b, ok := asBool(v); ok {
			if b {
				return "true"
			}
			return "false"
		}
	case FieldTypeSelect:
		if s, ok := asText(v); ok {
			return f.choiceLabel(s)
		}
	case FieldTypeMultiSelect:
		if list, ok := asStrings(v); ok {
			labels := make([]string, 0, len(list))
			for _, s := range list {
				labels = append(labels, f.choiceLabel(s))
			}
			return strings.Join(labels, MultiSelectDelimiter)
		}
	}
	return fmt.Sprint(v)
}

func (f Field) choiceLabel(value string) string {
	if label, ok := f.options.Label(value); ok {
		return label
	}
	return value
}
