// Package tooldef holds user-defined and built-in tool definitions and
// serializes them to the JSON-Schema-based shape backend function-calling
// mechanisms expect. Definitions are validated at construction; the hot
// serialize path never throws.
package tooldef

import (
	"context"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/aperrin/chatwire/internal/schema"
)

// ExecuteFunc runs a tool invocation and returns its textual result.
type ExecuteFunc func(ctx context.Context, input map[string]any) (string, error)

// Definition describes one callable tool.
type Definition struct {
	Name        string
	Description string
	// Parameters is a JSON-Schema-like tree; nil means the tool takes no
	// arguments.
	Parameters map[string]any
	Execute    ExecuteFunc
}

// New validates and returns a Definition. The returned error aggregates every
// violated field so a caller sees all problems at once.
func New(name, description string, parameters map[string]any, execute ExecuteFunc) (Definition, error) {
	d := Definition{
		Name:        name,
		Description: description,
		Parameters:  parameters,
		Execute:     execute,
	}
	if err := d.Validate(); err != nil {
		return Definition{}, fmt.Errorf("invalid tool definition %q: %w", name, err)
	}
	return d, nil
}

// Validate checks the definition shape: non-empty name and description, a
// callable execute, and parameters that compile as a JSON Schema when present.
func (d Definition) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required),
		validation.Field(&d.Description, validation.Required),
		validation.Field(&d.Execute, validation.By(executeCallable)),
		validation.Field(&d.Parameters, validation.By(parametersSchemaShaped)),
	)
}

func executeCallable(value any) error {
	fn, _ := value.(ExecuteFunc)
	if fn == nil {
		return errors.New("must be a callable execute function")
	}
	return nil
}

func parametersSchemaShaped(value any) error {
	params, _ := value.(map[string]any)
	if params == nil {
		return nil
	}
	if err := schema.Check(params); err != nil {
		return fmt.Errorf("must be a valid JSON schema: %w", err)
	}
	return nil
}
