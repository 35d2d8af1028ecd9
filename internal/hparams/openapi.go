package hparams

import (
	"github.com/getkin/kin-openapi/openapi3"
)

// OpenAPISchema describes s as an object of group objects holding bounded
// numbers. Unknown groups and keys are not allowed.
func OpenAPISchema(s Schema) *openapi3.Schema {
	root := openapi3.NewObjectSchema().WithoutAdditionalProperties()
	root.Title = "hyperparameters"
	for _, g := range s.Groups {
		gs := openapi3.NewObjectSchema().WithoutAdditionalProperties()
		gs.Title = groupTitle(g.Name)
		for _, p := range g.Params {
			ps := openapi3.NewFloat64Schema().WithMin(p.Min).WithMax(p.Max)
			ps.Default = p.Default
			ps.Description = p.Description
			gs.WithProperty(p.Key, ps)
		}
		root.WithProperty(g.Name, gs)
	}
	return root
}

// Validate checks v against the bounds of s, reporting every violation.
func (v Values) Validate(s Schema) error {
	doc := make(map[string]any, len(v))
	for g, params := range v {
		m := make(map[string]any, len(params))
		for k, x := range params {
			m[k] = x
		}
		doc[g] = m
	}
	return OpenAPISchema(s).VisitJSON(doc, openapi3.MultiErrors())
}
