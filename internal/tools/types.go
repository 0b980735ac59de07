// Package tools provides the closed registry of analysis functions a
// question can be dispatched to.
//
// Architecture:
//
//	Question → model tool call (name, args) → Registry.Execute() → Tool.Execute()
//
// Handlers receive the records of the request's own upload; they never
// open files themselves.
package tools

import (
	"context"
	"time"

	"genesys/internal/sequence"
)

// ToolCategory groups functions for listing.
type ToolCategory string

const (
	// CategorySequence covers single-sequence properties and transforms.
	CategorySequence ToolCategory = "/sequence"

	// CategoryComparative covers functions that compare several records.
	CategoryComparative ToolCategory = "/comparative"

	// CategoryGeneral is for metadata functions such as ID extraction.
	CategoryGeneral ToolCategory = "/general"
)

// Property describes a single parameter property for JSON schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
	// Items describes array element schema (required for type="array")
	Items *PropertyItems `json:"items,omitempty"`
}

// PropertyItems describes the schema for array elements.
type PropertyItems struct {
	Type string `json:"type"`
}

// ToolSchema defines the JSON schema for tool arguments.
type ToolSchema struct {
	// Required lists parameters that must be provided.
	Required []string `json:"required"`

	// Properties describes each parameter.
	Properties map[string]Property `json:"properties"`
}

// Input is what a handler runs against.
type Input struct {
	// Records holds every parsed record of the upload, in file order.
	Records []sequence.Record

	// Args are the decoded call arguments.
	Args map[string]any

	// AllRecords widens single-sequence functions to every record.
	AllRecords bool
}

// ExecuteFunc is the signature for tool execution. The value is a string,
// number, slice or map.
type ExecuteFunc func(ctx context.Context, in Input) (any, error)

// Tool is one registered analysis function.
type Tool struct {
	// Name is the unique identifier offered to the model.
	Name string

	// Description explains what the function does.
	// Used for model tool calling and the functions listing.
	Description string

	// Category groups the function for listing.
	Category ToolCategory

	// Execute runs the function.
	Execute ExecuteFunc

	// Schema defines the expected arguments.
	Schema ToolSchema
}

// Validate checks if the tool definition is valid.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return ErrToolNameEmpty
	}
	if t.Execute == nil {
		return ErrToolExecuteNil
	}
	return nil
}

// InputSchema renders the schema as a JSON-schema object.
func (t *Tool) InputSchema() map[string]any {
	props := make(map[string]any, len(t.Schema.Properties))
	for name, p := range t.Schema.Properties {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Items != nil {
			prop["items"] = map[string]any{"type": p.Items.Type}
		}
		props[name] = prop
	}
	required := t.Schema.Required
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// ToolResult wraps the result of tool execution with metadata.
type ToolResult struct {
	// ToolName identifies which tool was executed.
	ToolName string

	// Value is the handler output.
	Value any

	// Text is Value rendered for display or for feeding back to the model.
	Text string

	// Error is set if the tool failed.
	Error error

	// Duration is how long execution took.
	Duration time.Duration
}

// IsSuccess returns true if the tool executed without error.
func (r *ToolResult) IsSuccess() bool {
	return r.Error == nil
}
