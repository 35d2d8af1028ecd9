// Package hparams describes tunable training hyperparameters and renders them
// into bounded numeric fields.
//
// A Schema is an ordered set of groups, each holding ordered parameter specs.
// Order only matters for display. Schemas come from the built-in Default, a
// local file (LoadFile) or the training service (see trainapi).
package hparams

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Spec declares one tunable numeric value.
type Spec struct {
	Key         string  `json:"key"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Default     float64 `json:"default"`
	Description string  `json:"description,omitempty"`
}

// GroupSpec is a named set of parameter specs.
type GroupSpec struct {
	Name   string `json:"name"`
	Params []Spec `json:"params"`
}

// Schema is the full hyperparameter declaration.
type Schema struct {
	Groups []GroupSpec `json:"groups"`
}

// Lookup returns the spec for group/key.
func (s Schema) Lookup(group, key string) (Spec, bool) {
	for _, g := range s.Groups {
		if g.Name != group {
			continue
		}
		for _, p := range g.Params {
			if p.Key == key {
				return p, true
			}
		}
		return Spec{}, false
	}
	return Spec{}, false
}

// Defaults returns a value set populated with every spec default.
func (s Schema) Defaults() Values {
	v := make(Values, len(s.Groups))
	for _, g := range s.Groups {
		m := make(map[string]float64, len(g.Params))
		for _, p := range g.Params {
			m[p.Key] = p.Default
		}
		v[g.Name] = m
	}
	return v
}

// Len reports the number of parameter specs across all groups.
func (s Schema) Len() int {
	n := 0
	for _, g := range s.Groups {
		n += len(g.Params)
	}
	return n
}

// reservedGroups are top-level fields of the start-training request body.
var reservedGroups = map[string]struct{}{"model_name": {}, "dataset_path": {}}

// Validate checks naming uniqueness and min <= default <= max for every spec.
// Group names may not collide with the fixed start-training fields.
func (s Schema) Validate() error {
	var errs []error
	groups := make(map[string]struct{}, len(s.Groups))
	for _, g := range s.Groups {
		if strings.TrimSpace(g.Name) == "" {
			errs = append(errs, errors.New("group name is empty"))
			continue
		}
		if _, reserved := reservedGroups[g.Name]; reserved {
			errs = append(errs, fmt.Errorf("group name %q is reserved", g.Name))
			continue
		}
		if _, dup := groups[g.Name]; dup {
			errs = append(errs, fmt.Errorf("duplicate group %q", g.Name))
			continue
		}
		groups[g.Name] = struct{}{}
		keys := make(map[string]struct{}, len(g.Params))
		for _, p := range g.Params {
			if err := p.validate(); err != nil {
				errs = append(errs, fmt.Errorf("%s.%s: %w", g.Name, p.Key, err))
				continue
			}
			if _, dup := keys[p.Key]; dup {
				errs = append(errs, fmt.Errorf("duplicate key %s.%s", g.Name, p.Key))
				continue
			}
			keys[p.Key] = struct{}{}
		}
	}
	return errors.Join(errs...)
}

func (p Spec) validate() error {
	if strings.TrimSpace(p.Key) == "" {
		return errors.New("key is empty")
	}
	for _, f := range []float64{p.Min, p.Max, p.Default} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return errors.New("bounds and default must be finite")
		}
	}
	if p.Min > p.Max {
		return fmt.Errorf("min %g greater than max %g", p.Min, p.Max)
	}
	if p.Default < p.Min || p.Default > p.Max {
		return fmt.Errorf("default %g outside [%g, %g]", p.Default, p.Min, p.Max)
	}
	return nil
}

// rawSpec is the document form of a Spec: {min, max, default, description}.
type rawSpec struct {
	Min         *float64 `json:"min" yaml:"min" toml:"min"`
	Max         *float64 `json:"max" yaml:"max" toml:"max"`
	Default     *float64 `json:"default" yaml:"default" toml:"default"`
	Description string   `json:"description" yaml:"description" toml:"description"`
}

func (r rawSpec) spec(key string) (Spec, error) {
	if r.Min == nil || r.Max == nil || r.Default == nil {
		return Spec{}, fmt.Errorf("%s: min, max and default are required", key)
	}
	return Spec{Key: key, Min: *r.Min, Max: *r.Max, Default: *r.Default, Description: r.Description}, nil
}

// LoadFile reads a schema document based on its extension.
// Supports: .yaml/.yml, .json, .toml
func LoadFile(path string) (Schema, error) {
	if path == "" {
		return Schema{}, fmt.Errorf("empty schema path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, err
	}
	return Parse(b, filepath.Ext(path))
}

// Parse decodes a schema document of the given format (yaml, yml, json or
// toml; a leading dot is ignored) and validates it. Documents map group names
// to objects mapping parameter keys to {min, max, default, description}.
func Parse(data []byte, format string) (Schema, error) {
	var (
		s   Schema
		err error
	)
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "yaml", "yml":
		s, err = parseYAML(data)
	case "json":
		s, err = parseJSON(data)
	case "toml":
		s, err = parseTOML(data)
	default:
		return Schema{}, fmt.Errorf("unsupported schema format: %s", format)
	}
	if err != nil {
		return Schema{}, err
	}
	if err := s.Validate(); err != nil {
		return Schema{}, fmt.Errorf("invalid schema: %w", err)
	}
	return s, nil
}

// parseYAML walks the node tree so document key order is kept.
func parseYAML(data []byte) (Schema, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Schema{}, err
	}
	doc := &root
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return Schema{}, nil
		}
		doc = doc.Content[0]
	}
	if doc.Kind != yaml.MappingNode {
		return Schema{}, fmt.Errorf("schema root must be a mapping")
	}
	var s Schema
	for i := 0; i+1 < len(doc.Content); i += 2 {
		name, body := doc.Content[i].Value, doc.Content[i+1]
		if body.Kind != yaml.MappingNode {
			return Schema{}, fmt.Errorf("group %q must be a mapping", name)
		}
		g := GroupSpec{Name: name}
		for j := 0; j+1 < len(body.Content); j += 2 {
			key := body.Content[j].Value
			var raw rawSpec
			if err := body.Content[j+1].Decode(&raw); err != nil {
				return Schema{}, fmt.Errorf("%s.%s: %w", name, key, err)
			}
			p, err := raw.spec(key)
			if err != nil {
				return Schema{}, fmt.Errorf("%s.%w", name, err)
			}
			g.Params = append(g.Params, p)
		}
		s.Groups = append(s.Groups, g)
	}
	return s, nil
}

// parseJSON streams tokens so object key order is kept.
func parseJSON(data []byte) (Schema, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return Schema{}, err
	}
	var s Schema
	for dec.More() {
		name, err := stringToken(dec)
		if err != nil {
			return Schema{}, err
		}
		if err := expectDelim(dec, '{'); err != nil {
			return Schema{}, fmt.Errorf("group %q: %w", name, err)
		}
		g := GroupSpec{Name: name}
		for dec.More() {
			key, err := stringToken(dec)
			if err != nil {
				return Schema{}, err
			}
			var raw rawSpec
			if err := dec.Decode(&raw); err != nil {
				return Schema{}, fmt.Errorf("%s.%s: %w", name, key, err)
			}
			p, err := raw.spec(key)
			if err != nil {
				return Schema{}, fmt.Errorf("%s.%w", name, err)
			}
			g.Params = append(g.Params, p)
		}
		if err := expectDelim(dec, '}'); err != nil {
			return Schema{}, err
		}
		s.Groups = append(s.Groups, g)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return Schema{}, err
	}
	return s, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("unexpected end of schema document")
		}
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return s, nil
}

// parseTOML decodes into maps; tables are unordered there so groups and keys
// are sorted by name.
func parseTOML(data []byte) (Schema, error) {
	var doc map[string]map[string]rawSpec
	if err := toml.Unmarshal(data, &doc); err != nil {
		return Schema{}, err
	}
	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)
	var s Schema
	for _, name := range names {
		params := doc[name]
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		g := GroupSpec{Name: name}
		for _, k := range keys {
			p, err := params[k].spec(k)
			if err != nil {
				return Schema{}, fmt.Errorf("%s.%w", name, err)
			}
			g.Params = append(g.Params, p)
		}
		s.Groups = append(s.Groups, g)
	}
	return s, nil
}
