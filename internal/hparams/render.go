package hparams

import "strings"

// ChangeFunc receives committed edits.
type ChangeFunc func(group, key string, value float64)

// Renderer turns a Schema into a Form. It holds no values of its own; the
// owner of the live values supplies them through the change callback and
// Form.WithValues.
type Renderer struct {
	onChange ChangeFunc
}

// NewRenderer returns a Renderer that reports committed edits to onChange.
// A nil onChange discards edits.
func NewRenderer(onChange ChangeFunc) *Renderer {
	if onChange == nil {
		onChange = func(string, string, float64) {}
	}
	return &Renderer{onChange: onChange}
}

// Form is the rendered field set.
type Form struct {
	Groups []Group `json:"groups"`
}

// Group is a titled set of fields.
type Group struct {
	Name   string  `json:"name"`
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

// Field is one bounded numeric control.
type Field struct {
	Group       string  `json:"group"`
	Key         string  `json:"key"`
	Label       string  `json:"label"`
	Description string  `json:"description,omitempty"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Default     float64 `json:"default"`
	Step        float64 `json:"step"`
	Value       float64 `json:"value"`

	spec     Spec
	onChange ChangeFunc
}

// Render produces exactly one field per spec, in schema order. Each field is
// pre-populated with its default.
func (r *Renderer) Render(s Schema) Form {
	f := Form{Groups: make([]Group, 0, len(s.Groups))}
	for _, g := range s.Groups {
		grp := Group{Name: g.Name, Title: groupTitle(g.Name), Fields: make([]Field, 0, len(g.Params))}
		for _, p := range g.Params {
			grp.Fields = append(grp.Fields, Field{
				Group:       g.Name,
				Key:         p.Key,
				Label:       p.Key,
				Description: p.Description,
				Min:         p.Min,
				Max:         p.Max,
				Default:     p.Default,
				Step:        StepFor(p),
				Value:       p.Default,
				spec:        p,
				onChange:    r.onChange,
			})
		}
		f.Groups = append(f.Groups, grp)
	}
	return f
}

// StepFor is the increment granularity of a spec: one hundredth of its range.
func StepFor(p Spec) float64 {
	return (p.Max - p.Min) / 100
}

func groupTitle(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "_", " "))
}

// Commit parses raw and, if it is a finite number, clamps it into bounds and
// invokes the change callback exactly once. Invalid input returns
// ErrInvalidValue and invokes nothing.
func (f Field) Commit(raw string) (float64, error) {
	x, err := ParseValue(raw)
	if err != nil {
		return 0, err
	}
	x = Clamp(f.spec, x)
	if f.onChange != nil {
		f.onChange(f.Group, f.Key, x)
	}
	return x, nil
}

// Field returns the field at group/key.
func (f Form) Field(group, key string) (Field, bool) {
	for _, g := range f.Groups {
		if g.Name != group {
			continue
		}
		for _, fld := range g.Fields {
			if fld.Key == key {
				return fld, true
			}
		}
	}
	return Field{}, false
}

// WithValues returns a copy of the form whose field values reflect v.
// Fields absent from v keep their defaults.
func (f Form) WithValues(v Values) Form {
	out := Form{Groups: make([]Group, len(f.Groups))}
	for i, g := range f.Groups {
		ng := g
		ng.Fields = make([]Field, len(g.Fields))
		for j, fld := range g.Fields {
			if x, ok := v.Get(fld.Group, fld.Key); ok {
				fld.Value = x
			}
			ng.Fields[j] = fld
		}
		out.Groups[i] = ng
	}
	return out
}
