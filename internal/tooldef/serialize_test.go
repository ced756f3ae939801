package tooldef

import (
	"reflect"
	"testing"
)

func TestSerialize(t *testing.T) {
	t.Run("strips $schema and pins required", func(t *testing.T) {
		def, err := New("read_file", "reads a file", map[string]any{
			"$schema": "http://json-schema.org/draft-07/schema#",
			"type":    "object",
			"properties": map[string]any{
				"path": map[string]any{"type": "string"},
			},
		}, noopExec)
		if err != nil {
			t.Fatalf("New: %v", err)
		}

		spec := Serialize(def)
		if spec.Name != "read_file" || spec.Description != "reads a file" {
			t.Errorf("spec header = %+v", spec)
		}
		if _, ok := spec.Parameters["$schema"]; ok {
			t.Error("$schema survived serialization")
		}
		req, ok := spec.Parameters["required"].([]any)
		if !ok || len(req) != 0 {
			t.Errorf("required = %#v, want empty list", spec.Parameters["required"])
		}
		if spec.Parameters["additionalProperties"] != false {
			t.Error("parameters not normalized")
		}
	})

	t.Run("nil parameters become empty object schema", func(t *testing.T) {
		spec := Serialize(mustDef(t, "noargs"))
		if spec.Parameters["type"] != "object" {
			t.Errorf("type = %v", spec.Parameters["type"])
		}
		props, ok := spec.Parameters["properties"].(map[string]any)
		if !ok || len(props) != 0 {
			t.Errorf("properties = %#v", spec.Parameters["properties"])
		}
		if _, ok := spec.Parameters["required"]; !ok {
			t.Error("required absent")
		}
	})

	t.Run("existing required preserved", func(t *testing.T) {
		def, err := New("t", "d", map[string]any{
			"type": "object",
			"properties": map[string]any{
				"a": map[string]any{"type": "string"},
			},
			"required": []any{"a"},
		}, noopExec)
		if err != nil {
			t.Fatal(err)
		}
		spec := Serialize(def)
		if !reflect.DeepEqual(spec.Parameters["required"], []any{"a"}) {
			t.Errorf("required = %#v", spec.Parameters["required"])
		}
	})

	t.Run("stored definition not mutated", func(t *testing.T) {
		params := map[string]any{"$schema": "x", "type": "object"}
		def, err := New("t", "d", params, noopExec)
		if err != nil {
			t.Fatal(err)
		}
		Serialize(def)
		if _, ok := params["$schema"]; !ok {
			t.Error("input parameters were mutated")
		}
	})
}

func TestSerializeAll(t *testing.T) {
	r := NewRegistry(nil, nil)
	r.Register(mustDef(t, "b"), "")
	r.Register(mustDef(t, "a"), "")

	specs := SerializeAll(r)
	if len(specs) != 2 || specs[0].Name != "a" || specs[1].Name != "b" {
		t.Errorf("specs = %+v", specs)
	}
}
