package mcp

import (
	"encoding/json"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"
)

// schemaParameters renders an MCP input schema as a JSON Schema object.
func schemaParameters(schema mcptypes.ToolInputSchema) map[string]any {
	typ := schema.Type
	if typ == "" {
		typ = "object"
	}

	properties := schema.Properties
	if properties == nil {
		properties = map[string]any{}
	}

	params := map[string]any{
		"type":       typ,
		"properties": properties,
	}
	if len(schema.Required) > 0 {
		params["required"] = schema.Required
	}
	if schema.Defs != nil {
		params["$defs"] = schema.Defs
	}
	return params
}

// ConvertMCPToolsToOpenAIFormat converts MCP tools to the chat completions
// tool format:
//
//	{"type": "function", "function": {"name": ..., "description": ..., "parameters": {...}}}
func ConvertMCPToolsToOpenAIFormat(mcpTools []mcptypes.Tool) []openai.ChatCompletionToolUnionParam {
	if len(mcpTools) == 0 {
		return nil
	}

	result := make([]openai.ChatCompletionToolUnionParam, len(mcpTools))
	for i, tool := range mcpTools {
		def := openai.FunctionDefinitionParam{
			Name:       tool.Name,
			Parameters: openai.FunctionParameters(schemaParameters(tool.InputSchema)),
		}
		if tool.Description != "" {
			def.Description = openai.String(tool.Description)
		}
		result[i] = openai.ChatCompletionFunctionTool(def)
	}

	return result
}

// ConvertMCPToolsToOllama converts MCP tools to Ollama's native tool format.
func ConvertMCPToolsToOllama(mcpTools []mcptypes.Tool) []api.Tool {
	if len(mcpTools) == 0 {
		return nil
	}

	tools := make([]api.Tool, 0, len(mcpTools))
	for _, tool := range mcpTools {
		tools = append(tools, api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  ollamaParameters(tool.InputSchema),
			},
		})
	}
	return tools
}

func ollamaParameters(schema mcptypes.ToolInputSchema) api.ToolFunctionParameters {
	typ := schema.Type
	if typ == "" {
		typ = "object"
	}

	params := api.ToolFunctionParameters{
		Type:       typ,
		Required:   schema.Required,
		Properties: make(map[string]api.ToolProperty, len(schema.Properties)),
	}
	if schema.Defs != nil {
		params.Defs = schema.Defs
	}

	for name, value := range schema.Properties {
		params.Properties[name] = ollamaProperty(value)
	}
	return params
}

// ollamaProperty converts one JSON Schema property. Values that are not
// already maps go through a JSON round trip first.
func ollamaProperty(value any) api.ToolProperty {
	var prop api.ToolProperty

	m, ok := value.(map[string]any)
	if !ok {
		data, err := json.Marshal(value)
		if err != nil {
			return prop
		}
		if err := json.Unmarshal(data, &m); err != nil {
			return prop
		}
	}

	switch t := m["type"].(type) {
	case string:
		prop.Type = api.PropertyType{t}
	case []string:
		prop.Type = api.PropertyType(t)
	case []any:
		types := make([]string, 0, len(t))
		for _, v := range t {
			if s, ok := v.(string); ok {
				types = append(types, s)
			}
		}
		prop.Type = api.PropertyType(types)
	}

	if desc, ok := m["description"].(string); ok {
		prop.Description = desc
	}
	if enum, ok := m["enum"].([]any); ok {
		prop.Enum = enum
	}
	if items, ok := m["items"]; ok {
		prop.Items = items
	}
	if anyOf, ok := m["anyOf"].([]any); ok {
		prop.AnyOf = make([]api.ToolProperty, 0, len(anyOf))
		for _, item := range anyOf {
			prop.AnyOf = append(prop.AnyOf, ollamaProperty(item))
		}
	}

	return prop
}
