package schema

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Caller is the identity an operation runs on behalf of. The zero value is
// the anonymous caller.
type Caller struct {
	ID    string
	Roles []string
}

func (c Caller) IsAnonymous() bool { return c.ID == "" }

func (c Caller) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// PrefabInput is the create/update payload of a prefab.
type PrefabInput struct {
	Name        string       `json:"name" validate:"required,max=255"`
	Description string       `json:"description" validate:"max=4000"`
	Tags        []string     `json:"tags" validate:"max=32,dive,max=64"`
	IsActive    *bool        `json:"isActive,omitempty"`
	Groups      []GroupInput `json:"groups" validate:"dive"`
}

// Prefab is a validated form template. Values are only produced by Create,
// Update, SetActive and Restore; treat them as read-only.
type Prefab struct {
	ID          string
	Name        string
	Description string
	Tags        []string
	IsActive    bool
	Groups      []Group
	CreatedAt   time.Time
	UpdatedAt   time.Time
	OwnerID     string
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func checkInput(in PrefabInput) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return invalid("", "%v", err)
	}
	fe := errs[0]
	path := fe.Namespace()
	if i := strings.IndexByte(path, '.'); i >= 0 {
		path = path[i+1:]
	}
	if fe.Param() != "" {
		return invalid(path, "failed on %s=%s", fe.Tag(), fe.Param())
	}
	return invalid(path, "failed on %s", fe.Tag())
}

// Create builds a new prefab owned by caller. Owner identity always comes
// from caller, never from the payload.
func Create(caller Caller, in PrefabInput, now time.Time) (*Prefab, error) {
	if caller.IsAnonymous() {
		return nil, &AuthorizationError{Action: "create prefabs"}
	}
	if err := checkInput(in); err != nil {
		return nil, err
	}
	groups, err := buildGroups(in.Groups)
	if err != nil {
		return nil, err
	}

	ts := instant(now)
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return &Prefab{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Tags:        normalizeTags(in.Tags),
		IsActive:    active,
		Groups:      groups,
		CreatedAt:   ts,
		UpdatedAt:   ts,
		OwnerID:     caller.ID,
	}, nil
}

// Update replaces name, description, tags and groups wholesale. The active
// flag is left alone unless the payload carries one.
func Update(existing *Prefab, in PrefabInput, now time.Time) (*Prefab, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}
	groups, err := buildGroups(in.Groups)
	if err != nil {
		return nil, err
	}

	next := *existing
	next.Name = strings.TrimSpace(in.Name)
	next.Description = in.Description
	next.Tags = normalizeTags(in.Tags)
	next.Groups = groups
	if in.IsActive != nil {
		next.IsActive = *in.IsActive
	}
	next.UpdatedAt = advance(existing.UpdatedAt, now)
	return &next, nil
}

// SetActive toggles the active flag.
func SetActive(existing *Prefab, active bool, now time.Time) *Prefab {
	next := *existing
	next.Tags = append([]string(nil), existing.Tags...)
	next.Groups = append([]Group(nil), existing.Groups...)
	next.IsActive = active
	next.UpdatedAt = advance(existing.UpdatedAt, now)
	return &next
}

// IsOwnedBy reports whether caller owns p.
func (p *Prefab) IsOwnedBy(caller Caller) bool {
	return !caller.IsAnonymous() && caller.ID == p.OwnerID
}

// Fields returns every field in group-then-field order.
func (p *Prefab) Fields() []Field {
	var out []Field
	for _, g := range p.Groups {
		out = append(out, g.fields...)
	}
	return out
}

// Field looks a field up by id.
func (p *Prefab) Field(id string) (Field, bool) {
	for _, g := range p.Groups {
		for _, f := range g.fields {
			if f.id == id {
				return f, true
			}
		}
	}
	return Field{}, false
}

// Snapshot is the persisted form of a prefab.
type Snapshot struct {
	ID          string
	Name        string
	Description string
	Tags        []string
	IsActive    bool
	Groups      []GroupInput
	CreatedAt   time.Time
	UpdatedAt   time.Time
	OwnerID     string
}

// Snapshot returns the persisted form of p.
func (p *Prefab) Snapshot() Snapshot {
	groups := make([]GroupInput, 0, len(p.Groups))
	for _, g := range p.Groups {
		groups = append(groups, g.Input())
	}
	return Snapshot{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Tags:        append([]string(nil), p.Tags...),
		IsActive:    p.IsActive,
		Groups:      groups,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		OwnerID:     p.OwnerID,
	}
}

// Restore rebuilds a prefab from its persisted form, re-running group
// validation so a corrupted document is rejected rather than served.
func Restore(s Snapshot) (*Prefab, error) {
	if s.ID == "" {
		return nil, invalid("id", "must not be empty")
	}
	groups, err := buildGroups(s.Groups)
	if err != nil {
		return nil, err
	}
	return &Prefab{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Tags:        append([]string(nil), s.Tags...),
		IsActive:    s.IsActive,
		Groups:      groups,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		OwnerID:     s.OwnerID,
	}, nil
}

// instant drops sub-microsecond precision, which Postgres would drop anyway.
func instant(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// advance returns now, or the smallest instant after prev when the clock has
// not moved past it.
func advance(prev, now time.Time) time.Time {
	ts := instant(now)
	if !ts.After(prev) {
		ts = instant(prev).Add(time.Microsecond)
	}
	return ts
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
