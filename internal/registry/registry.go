// Package registry implements the Tool Registry: a name-keyed catalogue of
// available tools, JSON-Schema parameter validation, and dispatch.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/xushun007/agentcore/internal/model"
)

// Tool parameter limits, grounded on internal/agent/tool_registry.go.
const (
	MaxToolNameLength = 256
	MaxToolParamsSize = 10 << 20
)

// Tool is the interface every concrete tool implementation satisfies.
// Grounded on internal/agent/provider_types.go's Tool interface, and on
// original_source/src/tools/base_tool.py's BaseTool abstract class (name,
// description, parameter schema, async execute).
type Tool interface {
	Name() string
	Description() string
	Schema() json.RawMessage
	Execute(ctx context.Context, params json.RawMessage) (*model.ToolResult, error)
}

// ToolInfo describes a registered tool, mirroring
// original_source/src/tools/registry.py's ToolInfo dataclass.
type ToolInfo struct {
	Name        string
	Description string
	Schema      json.RawMessage
	Enabled     bool
}

// Registry is the Tool Registry: thread-safe registration, lookup, JSON
// Schema validation, and dispatch. Grounded on
// internal/agent/tool_registry.go's ToolRegistry, generalized with the
// enable/disable and schema-validation surface from
// original_source/src/tools/registry.py's ToolRegistry.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	enabled map[string]bool
	schemas map[string]*jsonschema.Schema
}

// New returns an empty registry ready for tool registration.
func New() *Registry {
	return &Registry{
		tools:   make(map[string]Tool),
		enabled: make(map[string]bool),
		schemas: make(map[string]*jsonschema.Schema),
	}
}

// Register adds a tool to the registry, compiling its schema for later
// parameter validation. If a tool with the same name already exists, it is
// replaced.
func (r *Registry) Register(tool Tool) error {
	compiled, err := compileSchema(tool.Name(), tool.Schema())
	if err != nil {
		return fmt.Errorf("registry: register %s: %w", tool.Name(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
	r.enabled[tool.Name()] = true
	r.schemas[tool.Name()] = compiled
	return nil
}

func compileSchema(name string, raw json.RawMessage) (*jsonschema.Schema, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	c := jsonschema.NewCompiler()
	resource := "tool://" + name + ".json"
	if err := c.AddResource(resource, strings.NewReader(string(raw))); err != nil {
		return nil, err
	}
	return c.Compile(resource)
}

// Unregister removes a tool from the registry by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
	delete(r.enabled, name)
	delete(r.schemas, name)
}

// Get returns a tool by name and whether it is present.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Enable marks a registered tool as available for dispatch.
func (r *Registry) Enable(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[name]; !ok {
		return false
	}
	r.enabled[name] = true
	return true
}

// Disable marks a registered tool as unavailable for dispatch without
// removing its registration.
func (r *Registry) Disable(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[name]; !ok {
		return false
	}
	r.enabled[name] = false
	return true
}

// IsEnabled reports whether a tool is registered and enabled.
func (r *Registry) IsEnabled(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled[name]
}

// List returns the catalogue of registered tools, sorted by name.
// enabledOnly filters out disabled tools, matching
// original_source/src/tools/registry.py's list_tools(enabled_only=...).
func (r *Registry) List(enabledOnly bool) []ToolInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sortStrings(names)

	out := make([]ToolInfo, 0, len(names))
	for _, name := range names {
		if enabledOnly && !r.enabled[name] {
			continue
		}
		t := r.tools[name]
		out = append(out, ToolInfo{
			Name:        t.Name(),
			Description: t.Description(),
			Schema:      t.Schema(),
			Enabled:     r.enabled[name],
		})
	}
	return out
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// ValidateParams checks params against the registered tool's JSON Schema.
func (r *Registry) ValidateParams(name string, params json.RawMessage) error {
	r.mu.RLock()
	schema := r.schemas[name]
	r.mu.RUnlock()
	if schema == nil {
		return nil
	}

	var v any
	if err := json.Unmarshal(params, &v); err != nil {
		return fmt.Errorf("registry: %s: invalid JSON parameters: %w", name, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("registry: %s: %w", name, err)
	}
	return nil
}

// Dispatch validates and executes a named tool, returning a uniform
// model.ToolResult even on failure (the caller feeds it straight back to
// the model as a tool message).
func (r *Registry) Dispatch(ctx context.Context, name string, params json.RawMessage) *model.ToolResult {
	if len(name) > MaxToolNameLength {
		return errorResult(fmt.Sprintf("tool name exceeds maximum length of %d characters", MaxToolNameLength))
	}
	if len(params) > MaxToolParamsSize {
		return errorResult(fmt.Sprintf("tool parameters exceed maximum size of %d bytes", MaxToolParamsSize))
	}

	r.mu.RLock()
	tool, ok := r.tools[name]
	enabled := r.enabled[name]
	r.mu.RUnlock()
	if !ok || !enabled {
		return errorResult("tool not found or disabled: " + name)
	}

	if err := r.ValidateParams(name, params); err != nil {
		return errorResult(err.Error())
	}

	result, err := tool.Execute(ctx, params)
	if err != nil {
		msg := err.Error()
		return &model.ToolResult{Success: false, Output: msg, Error: msg}
	}
	return result
}

func errorResult(msg string) *model.ToolResult {
	return &model.ToolResult{Success: false, Output: msg, Error: msg}
}

// MatchPattern reports whether toolName matches a wildcard-capable pattern,
// grounded on internal/agent/tool_registry.go's matchToolPattern (supports
// the exact "mcp:*" prefix convention and trailing ".*" namespace wildcards).
func MatchPattern(pattern, toolName string) bool {
	if pattern == "" || toolName == "" {
		return false
	}
	if pattern == "mcp:*" {
		return strings.HasPrefix(toolName, "mcp:")
	}
	if strings.HasSuffix(pattern, ".*") {
		return strings.HasPrefix(toolName, strings.TrimSuffix(pattern, "*"))
	}
	return pattern == toolName
}

// MatchAny reports whether toolName matches any of the given patterns.
func MatchAny(patterns []string, toolName string) bool {
	for _, p := range patterns {
		if MatchPattern(p, toolName) {
			return true
		}
	}
	return false
}
