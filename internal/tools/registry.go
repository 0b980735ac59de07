package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"genesys/internal/logging"
)

// Registry holds all available tools and provides lookup functionality.
// It is built once at startup and sealed; after that it is read-only and
// safe for concurrent requests.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]*Tool
	sealed bool

	// byCategory provides fast lookup by category.
	byCategory map[ToolCategory][]*Tool
}

// NewRegistry creates a new empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:      make(map[string]*Tool),
		byCategory: make(map[ToolCategory][]*Tool),
	}
}

// Register adds a tool to the registry.
// Returns an error if a tool with the same name already exists.
func (r *Registry) Register(tool *Tool) error {
	if err := tool.Validate(); err != nil {
		return fmt.Errorf("invalid tool: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("%w: cannot add %s", ErrRegistrySealed, tool.Name)
	}
	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, tool.Name)
	}

	r.tools[tool.Name] = tool
	r.byCategory[tool.Category] = append(r.byCategory[tool.Category], tool)

	logging.ToolsDebug("Registered tool: %s (category=%s)", tool.Name, tool.Category)
	return nil
}

// MustRegister registers a tool and panics on error.
// Use this for static tool registration at init time.
func (r *Registry) MustRegister(tool *Tool) {
	if err := r.Register(tool); err != nil {
		panic(fmt.Sprintf("failed to register tool %s: %v", tool.Name, err))
	}
}

// Seal freezes the registry.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// CheckDescriptors verifies that every name offered to the model has a
// handler. Called at startup so a mismatch never reaches a request.
func (r *Registry) CheckDescriptors(names []string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range names {
		if _, ok := r.tools[name]; !ok {
			return fmt.Errorf("%w: descriptor %q has no handler", ErrUnknownFunction, name)
		}
	}
	return nil
}

// Get returns a tool by name, or nil if not found.
func (r *Registry) Get(name string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Has returns true if a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// GetByCategory returns all tools in a category, sorted by name.
func (r *Registry) GetByCategory(category ToolCategory) []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]*Tool, len(r.byCategory[category]))
	copy(tools, r.byCategory[category])
	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Name < tools[j].Name
	})
	return tools
}

// All returns all registered tools sorted by name.
func (r *Registry) All() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		result = append(result, tool)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Names returns all registered tool names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definition is a tool rendered for a model's function-calling API.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Definitions renders every tool as a JSON-schema definition, sorted by name.
func (r *Registry) Definitions() []Definition {
	all := r.All()
	defs := make([]Definition, 0, len(all))
	for _, t := range all {
		defs = append(defs, Definition{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema(),
		})
	}
	return defs
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Execute runs a tool by name.
// Returns ErrUnknownFunction if the tool doesn't exist.
func (r *Registry) Execute(ctx context.Context, name string, in Input) (*ToolResult, error) {
	tool := r.Get(name)
	if tool == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}

	return r.ExecuteTool(ctx, tool, in)
}

// ExecuteTool runs a specific tool.
func (r *Registry) ExecuteTool(ctx context.Context, tool *Tool, in Input) (*ToolResult, error) {
	start := time.Now()

	if in.Args == nil {
		in.Args = map[string]any{}
	}
	if err := r.validateArgs(tool, in.Args); err != nil {
		return &ToolResult{
			ToolName: tool.Name,
			Error:    err,
			Duration: time.Since(start),
		}, err
	}
	if err := ctx.Err(); err != nil {
		return &ToolResult{ToolName: tool.Name, Error: err}, err
	}

	logging.ToolsDebug("Executing tool: %s (records=%d, all_records=%v)", tool.Name, len(in.Records), in.AllRecords)
	value, err := tool.Execute(ctx, in)

	duration := time.Since(start)
	logging.ToolsDebug("Tool %s completed in %v (success=%v)", tool.Name, duration, err == nil)

	res := &ToolResult{
		ToolName: tool.Name,
		Value:    value,
		Error:    err,
		Duration: duration,
	}
	if err == nil {
		res.Text = FormatValue(value)
	}
	return res, err
}

// validateArgs checks that required arguments are present and that every
// declared argument has the declared JSON type.
func (r *Registry) validateArgs(tool *Tool, args map[string]any) error {
	for _, required := range tool.Schema.Required {
		if _, ok := args[required]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingRequiredArg, required)
		}
	}
	for name, value := range args {
		prop, ok := tool.Schema.Properties[name]
		if !ok || value == nil {
			continue
		}
		if !matchesType(prop.Type, value) {
			return fmt.Errorf("%w: %s should be %s, got %T", ErrInvalidArgType, name, prop.Type, value)
		}
	}
	return nil
}

func matchesType(want string, v any) bool {
	switch want {
	case "string":
		_, ok := v.(string)
		return ok
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "integer", "number":
		switch v.(type) {
		case float64, float32, int, int64, int32:
			return true
		}
		return false
	case "array":
		switch v.(type) {
		case []any, []string:
			return true
		}
		return false
	default:
		return true
	}
}
