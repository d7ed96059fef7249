package schema

import "fmt"

// GroupInput is the raw definition of a group.
type GroupInput struct {
	Name   string       `json:"name"`
	Fields []FieldInput `json:"fields" validate:"dive"`
}

// Group is an ordered section of fields.
type Group struct {
	name   string
	fields []Field
}

// NewGroup validates the fields of in. Field ids must be unique within the group.
func NewGroup(in GroupInput) (Group, error) {
	groups, err := buildGroups([]GroupInput{in})
	if err != nil {
		return Group{}, err
	}
	return groups[0], nil
}

func (g Group) Name() string { return g.name }

// Fields returns the group's fields in declared order.
func (g Group) Fields() []Field {
	return append([]Field(nil), g.fields...)
}

// Visible returns the fields a respondent sees; hidden fields are kept only
// when withHidden is set.
func (g Group) Visible(withHidden bool) []Field {
	out := make([]Field, 0, len(g.fields))
	for _, f := range g.fields {
		if f.hidden && !withHidden {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Input converts the group back to its raw definition.
func (g Group) Input() GroupInput {
	fields := make([]FieldInput, 0, len(g.fields))
	for _, f := range g.fields {
		fields = append(fields, f.Input())
	}
	return GroupInput{Name: g.name, Fields: fields}
}

// buildGroups constructs every group and enforces the cross-field invariants:
// ids unique across all groups and REQUIRED_IF targets that exist.
func buildGroups(in []GroupInput) ([]Group, error) {
	groups := make([]Group, 0, len(in))
	seen := make(map[string]string)
	for gi, raw := range in {
		g := Group{name: raw.Name, fields: make([]Field, 0, len(raw.Fields))}
		for fi, fin := range raw.Fields {
			path := fmt.Sprintf("groups[%d].fields[%d]", gi, fi)
			f, err := newField(path, fin)
			if err != nil {
				return nil, err
			}
			if prev, dup := seen[f.id]; dup {
				return nil, invalid(path+".id", "duplicate field id %q, already declared at %s", f.id, prev)
			}
			seen[f.id] = path
			g.fields = append(g.fields, f)
		}
		groups = append(groups, g)
	}

	for gi, g := range groups {
		for fi, f := range g.fields {
			for ri, r := range f.rules {
				p, ok := r.params.(RequiredIfParams)
				if !ok {
					continue
				}
				if _, exists := seen[p.Field]; !exists {
					return nil, invalid(
						fmt.Sprintf("groups[%d].fields[%d].validationRules[%d].params.field", gi, fi, ri),
						"unknown field %q", p.Field,
					)
				}
			}
		}
	}
	return groups, nil
}
