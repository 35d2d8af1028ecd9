package hparams

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidValue is returned for edits that are not a finite number.
var ErrInvalidValue = errors.New("value must be a finite number")

// ErrUnknownParam is returned for edits addressing a group/key absent from the schema.
var ErrUnknownParam = errors.New("unknown hyperparameter")

// Values holds live hyperparameter values keyed by group then key.
type Values map[string]map[string]float64

// Get returns the value at group/key.
func (v Values) Get(group, key string) (float64, bool) {
	g, ok := v[group]
	if !ok {
		return 0, false
	}
	x, ok := g[key]
	return x, ok
}

// Clone returns a deep copy.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for g, params := range v {
		m := make(map[string]float64, len(params))
		for k, x := range params {
			m[k] = x
		}
		out[g] = m
	}
	return out
}

// Set stores x at group/key after clamping it into the spec bounds. The
// stored value is returned.
func (v Values) Set(s Schema, group, key string, x float64) (float64, error) {
	spec, ok := s.Lookup(group, key)
	if !ok {
		return 0, fmt.Errorf("%w: %s.%s", ErrUnknownParam, group, key)
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, ErrInvalidValue
	}
	x = Clamp(spec, x)
	if v[group] == nil {
		v[group] = make(map[string]float64)
	}
	v[group][key] = x
	return x, nil
}

// Clamp bounds x to [spec.Min, spec.Max].
func Clamp(spec Spec, x float64) float64 {
	if x < spec.Min {
		return spec.Min
	}
	if x > spec.Max {
		return spec.Max
	}
	return x
}

// ParseValue parses a raw edit. Empty, non-numeric, NaN and infinite input is
// rejected with ErrInvalidValue.
func ParseValue(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, ErrInvalidValue
	}
	x, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, ErrInvalidValue
	}
	return x, nil
}

// ParseAssignment parses "group.key=value" as used by the CLI --set flag.
func ParseAssignment(s string) (group, key string, x float64, err error) {
	lhs, rhs, ok := strings.Cut(s, "=")
	if !ok {
		return "", "", 0, fmt.Errorf("expected group.key=value, got %q", s)
	}
	group, key, ok = strings.Cut(strings.TrimSpace(lhs), ".")
	if !ok || group == "" || key == "" {
		return "", "", 0, fmt.Errorf("expected group.key=value, got %q", s)
	}
	x, err = ParseValue(rhs)
	if err != nil {
		return "", "", 0, fmt.Errorf("%s.%s: %w", group, key, err)
	}
	return group, key, x, nil
}
