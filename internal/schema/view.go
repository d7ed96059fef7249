package schema

import (
	"encoding/json"
	"time"
)

// SimpleView is the list projection of a prefab. It never carries fields.
type SimpleView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DetailedView is the full projection of a prefab for one caller.
type DetailedView struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Description       string      `json:"description"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
	Tags              []string    `json:"tags"`
	Groups            []GroupView `json:"groups"`
	IsActive          bool        `json:"isActive"`
	IsAlreadyAnswered bool        `json:"isAlreadyAnswered"`
}

type GroupView struct {
	Name   string      `json:"name,omitempty"`
	Fields []FieldView `json:"fields"`
}

type FieldView struct {
	ID              string       `json:"id"`
	Label           string       `json:"label"`
	Type            FieldType    `json:"type"`
	Optional        bool         `json:"optional"`
	Hidden          bool         `json:"hidden"`
	ValidationRules []RuleView   `json:"validationRules"`
	Options         *OptionInput `json:"options,omitempty"`
}

type RuleView struct {
	Kind   RuleKind        `json:"kind"`
	Params json.RawMessage `json:"params,omitempty"`
}

// NewSimpleView projects p for listings.
func NewSimpleView(p *Prefab) SimpleView {
	return SimpleView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Tags:        tagsOrEmpty(p.Tags),
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// NewDetailedView projects p for caller. Hidden fields are dropped from every
// group unless withHidden is set; groups left empty are still emitted.
// answered comes from the answer store and is forced to false for an
// anonymous caller.
func NewDetailedView(p *Prefab, caller Caller, withHidden, answered bool) DetailedView {
	groups := make([]GroupView, 0, len(p.Groups))
	for _, g := range p.Groups {
		visible := g.Visible(withHidden)
		fields := make([]FieldView, 0, len(visible))
		for _, f := range visible {
			fields = append(fields, newFieldView(f))
		}
		groups = append(groups, GroupView{Name: g.name, Fields: fields})
	}
	return DetailedView{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
		Tags:              tagsOrEmpty(p.Tags),
		Groups:            groups,
		IsActive:          p.IsActive,
		IsAlreadyAnswered: answered && !caller.IsAnonymous(),
	}
}

func newFieldView(f Field) FieldView {
	rules := make([]RuleView, 0, len(f.rules))
	for _, r := range f.rules {
		rules = append(rules, RuleView{Kind: r.Kind(), Params: r.RawParams()})
	}
	return FieldView{
		ID:              f.id,
		Label:           f.label,
		Type:            f.typ,
		Optional:        f.optional,
		Hidden:          f.hidden,
		ValidationRules: rules,
		Options:         f.options.input(),
	}
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
