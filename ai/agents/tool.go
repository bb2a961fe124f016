package agents

import "context"

// ToolWithSchema is a named function the LLM may call during its loop.
// Run receives the raw JSON arguments and returns a JSON-encoded result.
type ToolWithSchema interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Run(ctx context.Context, input string) (string, error)
}

// NativeTool adapts a plain function into a ToolWithSchema.
type NativeTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(ctx context.Context, input string) (string, error)
}

// NewNativeTool creates a tool from its schema and implementation.
func NewNativeTool(name, description string, parameters map[string]any, fn func(ctx context.Context, input string) (string, error)) *NativeTool {
	if parameters == nil {
		parameters = objectSchema(nil, nil)
	}
	return &NativeTool{name: name, description: description, parameters: parameters, fn: fn}
}

func (t *NativeTool) Name() string               { return t.name }
func (t *NativeTool) Description() string        { return t.description }
func (t *NativeTool) Parameters() map[string]any { return t.parameters }

func (t *NativeTool) Run(ctx context.Context, input string) (string, error) {
	return t.fn(ctx, input)
}

// objectSchema builds a JSON Schema object for tool parameters.
func objectSchema(properties map[string]any, required []string) map[string]any {
	if properties == nil {
		properties = map[string]any{}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// stringParam and numberParam are schema fragment helpers.
func stringParam(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func numberParam(description string) map[string]any {
	return map[string]any{"type": "number", "description": description}
}

func booleanParam(description string) map[string]any {
	return map[string]any{"type": "boolean", "description": description}
}

func integerParam(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}
