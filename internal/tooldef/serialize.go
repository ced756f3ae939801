package tooldef

import "github.com/aperrin/chatwire/internal/schema"

// FunctionSpec is the backend-neutral wire shape of a tool declaration. The
// executable is stripped; parameters are normalized to the strict JSON-Schema
// dialect function-calling backends accept. Per-backend encoders wrap this in
// their vendor envelope.
type FunctionSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Serialize converts a definition to its wire shape. A nil parameters tree
// becomes an empty object schema; a $schema meta-key some exporters add is
// dropped (function-calling backends reject it); required is always present,
// even when empty, because at least one strict mode rejects its absence.
func Serialize(d Definition) FunctionSpec {
	params := d.Parameters
	if params == nil {
		params = map[string]any{"type": "object"}
	}
	// Normalize may return its input untouched on malformed schemas, and
	// the same definition can be serialized concurrently, so mutate a
	// shallow copy rather than the stored tree.
	normalized := schema.Normalize(params)
	params = make(map[string]any, len(normalized))
	for k, v := range normalized {
		params[k] = v
	}

	delete(params, "$schema")
	if _, ok := params["required"]; !ok {
		params["required"] = []any{}
	}

	return FunctionSpec{
		Name:        d.Name,
		Description: d.Description,
		Parameters:  params,
	}
}

// SerializeAll serializes every definition in the registry, sorted by name.
func SerializeAll(r *Registry) []FunctionSpec {
	defs := r.List()
	specs := make([]FunctionSpec, len(defs))
	for i, d := range defs {
		specs[i] = Serialize(d)
	}
	return specs
}
