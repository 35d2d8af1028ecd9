package hparams

import (
	"errors"
	"math"
	"testing"
)

func TestValuesSet_ClampsAndRejects(t *testing.T) {
	s := oneParamSchema()
	v := s.Defaults()
	if got, err := v.Set(s, "training_params", "ratio", 2); err != nil || got != 1 {
		t.Fatalf("got=%v err=%v", got, err)
	}
	if x, _ := v.Get("training_params", "ratio"); x != 1 {
		t.Fatalf("stored=%v", x)
	}
	if _, err := v.Set(s, "training_params", "ratio", math.NaN()); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("NaN err=%v", err)
	}
	if _, err := v.Set(s, "training_params", "nope", 0.1); !errors.Is(err, ErrUnknownParam) {
		t.Fatalf("unknown err=%v", err)
	}
}

func TestValuesClone_IsDeep(t *testing.T) {
	v := Values{"g": {"k": 1}}
	c := v.Clone()
	c["g"]["k"] = 2
	if v["g"]["k"] != 1 {
		t.Fatalf("clone aliases original")
	}
}

func TestParseAssignment(t *testing.T) {
	g, k, x, err := ParseAssignment("training_params.learning_rate=0.0003")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if g != "training_params" || k != "learning_rate" || x != 0.0003 {
		t.Fatalf("got %s %s %v", g, k, x)
	}
	for _, bad := range []string{"noequals", "nodot=1", ".k=1", "g.=1", "g.k=abc"} {
		if _, _, _, err := ParseAssignment(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestValuesValidate_OpenAPIBounds(t *testing.T) {
	s := oneParamSchema()
	if err := s.Defaults().Validate(s); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	bad := Values{"training_params": {"ratio": 3}}
	if err := bad.Validate(s); err == nil {
		t.Fatalf("expected maximum violation")
	}
	unknown := Values{"training_params": {"ratio": 0.5, "extra": 1}}
	if err := unknown.Validate(s); err == nil {
		t.Fatalf("expected additional property violation")
	}
}

func TestOpenAPISchema_CarriesBounds(t *testing.T) {
	sch := OpenAPISchema(Default())
	g := sch.Properties["training_params"]
	if g == nil || g.Value == nil {
		t.Fatalf("missing group")
	}
	lr := g.Value.Properties["learning_rate"]
	if lr == nil || lr.Value.Min == nil || *lr.Value.Min != 0.00001 || lr.Value.Max == nil || *lr.Value.Max != 0.001 {
		t.Fatalf("unexpected learning_rate schema: %+v", lr)
	}
	if lr.Value.Default != 0.0002 {
		t.Fatalf("default=%v", lr.Value.Default)
	}
}
