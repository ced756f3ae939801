// Package schema normalizes arbitrary JSON-Schema-like parameter trees into
// the strict dialect backend function-calling modes accept: no bare type
// arrays, additionalProperties pinned at object nodes, properties always
// present on objects, required filtered to real keys.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Normalize returns a copy of s rewritten for strict function-calling modes:
//
//  1. Object-typed nodes (and the root) gain additionalProperties: false
//     unless the caller already set it.
//  2. A type expressed as an array of primitive names is rewritten to anyOf
//     branches, one type per branch.
//  3. Recursion applies to properties, items (single schema or tuple array),
//     and every branch of anyOf/oneOf/allOf.
//  4. An object node with no properties gains an empty properties map.
//  5. required is filtered to keys actually present in properties.
//
// The input is never mutated. If the rewritten schema no longer compiles as a
// JSON Schema, the original is returned untouched so a malformed third-party
// schema never blocks the caller.
func Normalize(s map[string]any) map[string]any {
	if s == nil {
		return nil
	}
	out, ok := normalizeNode(deepCopy(s).(map[string]any), true)
	if !ok {
		return s
	}
	if !compiles(out) {
		return s
	}
	return out
}

// Value normalizes an arbitrary schema-shaped value. Non-object inputs pass
// through unchanged (defensive fallback for malformed upstream schemas).
func Value(v any) any {
	if m, ok := v.(map[string]any); ok {
		return Normalize(m)
	}
	return v
}

func normalizeNode(node map[string]any, root bool) (map[string]any, bool) {
	// Rule 2: type array -> anyOf branches.
	if types, ok := node["type"].([]any); ok {
		branches, existing := []any{}, node["anyOf"]
		for _, t := range types {
			name, ok := t.(string)
			if !ok {
				return nil, false
			}
			branches = append(branches, map[string]any{"type": name})
		}
		if prior, ok := existing.([]any); ok {
			branches = append(prior, branches...)
		}
		node["anyOf"] = branches
		delete(node, "type")
	}

	typ, _ := node["type"].(string)
	_, hasProps := node["properties"].(map[string]any)
	isObject := typ == "object" || hasProps

	// Rule 1: pin additionalProperties at object nodes and the root.
	// Strict modes reject a root schema without it even when the root is
	// not object-typed, hence the root special case.
	if isObject || root {
		if _, set := node["additionalProperties"]; !set {
			node["additionalProperties"] = false
		}
	}

	// Rule 4: strict modes want a non-absent properties map on objects.
	if typ == "object" && !hasProps {
		node["properties"] = map[string]any{}
	}

	// Rule 3: recurse.
	if props, ok := node["properties"].(map[string]any); ok {
		for key, sub := range props {
			if m, ok := sub.(map[string]any); ok {
				n, ok := normalizeNode(m, false)
				if !ok {
					return nil, false
				}
				props[key] = n
			}
		}
	}
	switch items := node["items"].(type) {
	case map[string]any:
		n, ok := normalizeNode(items, false)
		if !ok {
			return nil, false
		}
		node["items"] = n
	case []any:
		for i, sub := range items {
			if m, ok := sub.(map[string]any); ok {
				n, ok := normalizeNode(m, false)
				if !ok {
					return nil, false
				}
				items[i] = n
			}
		}
	}
	for _, comb := range []string{"anyOf", "oneOf", "allOf"} {
		branches, ok := node[comb].([]any)
		if !ok {
			continue
		}
		for i, sub := range branches {
			if m, ok := sub.(map[string]any); ok {
				n, ok := normalizeNode(m, false)
				if !ok {
					return nil, false
				}
				branches[i] = n
			}
		}
	}

	// Rule 5: upstream schemas sometimes list required keys that were
	// dropped from properties.
	if req, ok := node["required"].([]any); ok {
		props, _ := node["properties"].(map[string]any)
		kept := []any{}
		for _, key := range req {
			name, ok := key.(string)
			if !ok {
				continue
			}
			if _, present := props[name]; present {
				kept = append(kept, name)
			}
		}
		node["required"] = kept
	}

	return node, true
}

// compiles reports whether doc is accepted by a JSON Schema compiler. Used as
// a tripwire so a normalization bug degrades to pass-through instead of
// emitting a schema the backend will reject harder than the original.
func compiles(doc map[string]any) bool {
	return Check(doc) == nil
}

// Check compiles doc as a JSON Schema and returns the compilation error, if
// any. Recovers from compiler panics on pathological input.
func Check(doc map[string]any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("schema compilation panicked: %v", r)
		}
	}()
	// Round-trip to the plain JSON value types the compiler expects.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("schema not serializable: %w", err)
	}
	var plain any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", plain); err != nil {
		return err
	}
	if _, err := c.Compile("schema.json"); err != nil {
		return err
	}
	return nil
}

func deepCopy(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, sub := range v {
			out[k] = deepCopy(sub)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, sub := range v {
			out[i] = deepCopy(sub)
		}
		return out
	default:
		return v
	}
}
