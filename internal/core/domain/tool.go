package domain

// ToolDefinition describes a tool the model may call.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema ToolSchema
}

// ToolSchema is the JSON schema of a tool's input object.
type ToolSchema struct {
	Properties map[string]ToolProperty
	Required   []string
}

// ToolProperty is a single input parameter.
type ToolProperty struct {
	Type        string
	Description string
}

// JSONSchema renders the schema as a JSON schema object.
func (s ToolSchema) JSONSchema() map[string]any {
	props := make(map[string]any, len(s.Properties))
	for name, p := range s.Properties {
		prop := map[string]any{"type": p.Type}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		props[name] = prop
	}
	required := s.Required
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// ToolChoice constrains how the model may use tools.
type ToolChoice struct {
	Type string
}

// ToolChoiceAuto lets the model decide whether to call a tool.
var ToolChoiceAuto = ToolChoice{Type: "auto"}

// ToolOutput is the result of executing a tool: the text shown to the model
// and the sources it drew from.
type ToolOutput struct {
	Text    string
	Sources []Source
}
