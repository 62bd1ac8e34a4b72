package mapper

import (
	"errors"
	"testing"
)

func TestApply_KeyPath(t *testing.T) {
	m := Mapping{
		"name": KeyPath("properties.name"),
		"id":   KeyPath("id"),
	}
	out, err := m.Apply(map[string]any{
		"id":         "42",
		"properties": map[string]any{"name": "Acme"},
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if out["id"] != "42" {
		t.Fatalf("id=%v want 42", out["id"])
	}
	if out["name"] != "Acme" {
		t.Fatalf("name=%v want Acme", out["name"])
	}
}

func TestApply_KeyPathNullPropagation(t *testing.T) {
	m := Mapping{"v": KeyPath("a.b.c")}

	out, err := m.Apply(map[string]any{"a": map[string]any{"b": nil}})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if out["v"] != nil {
		t.Fatalf("v=%v want nil", out["v"])
	}

	out, err = m.Apply(map[string]any{"a": nil})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if out["v"] != nil {
		t.Fatalf("v=%v want nil", out["v"])
	}
}

func TestApply_KeyPathMissingKeyYieldsNil(t *testing.T) {
	m := Mapping{"v": KeyPath("a.missing.c")}
	out, err := m.Apply(map[string]any{"a": map[string]any{"b": 1}})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if out["v"] != nil {
		t.Fatalf("v=%v want nil", out["v"])
	}
}

func TestApply_NonTraversableFailsFast(t *testing.T) {
	m := Mapping{"v": KeyPath("a.b.c")}
	_, err := m.Apply(map[string]any{"a": map[string]any{"b": "scalar"}})
	if err == nil {
		t.Fatalf("expected error traversing through scalar")
	}
	var me *Error
	if !errors.As(err, &me) {
		t.Fatalf("err=%T want *mapper.Error", err)
	}
	if me.Path != "a.b.c" {
		t.Fatalf("path=%q", me.Path)
	}
}

func TestApply_LiteralAndFunc(t *testing.T) {
	m := Mapping{
		"kind": Literal("account"),
		"full_name": Func(func(raw map[string]any) (any, error) {
			first, _ := raw["first"].(string)
			last, _ := raw["last"].(string)
			return first + " " + last, nil
		}),
	}
	out, err := m.Apply(map[string]any{"first": "Ada", "last": "Lovelace"})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if out["kind"] != "account" {
		t.Fatalf("kind=%v", out["kind"])
	}
	if out["full_name"] != "Ada Lovelace" {
		t.Fatalf("full_name=%v", out["full_name"])
	}
}

func TestApply_FuncErrorWrapped(t *testing.T) {
	m := Mapping{"v": Func(func(raw map[string]any) (any, error) {
		return nil, errors.New("parse failure")
	})}
	_, err := m.Apply(map[string]any{})
	var me *Error
	if !errors.As(err, &me) {
		t.Fatalf("err=%T want *mapper.Error", err)
	}
	if me.Field != "v" {
		t.Fatalf("field=%q", me.Field)
	}
}
