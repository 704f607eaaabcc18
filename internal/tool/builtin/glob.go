package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/xushun007/agentcore/internal/model"
	"github.com/xushun007/agentcore/internal/tools/files"
)

const globResultLimit = 100

// GlobTool finds files matching a glob pattern, sorted by modification time
// (newest first) and capped at globResultLimit results. Grounded on
// original_source/src/tools/glob_tool.py's GlobTool, adapted to
// github.com/bmatcuk/doublestar/v4 for "**" recursive matching instead of
// hand-rolled brace expansion.
type GlobTool struct {
	resolver files.Resolver
}

func NewGlobTool(workspace string) *GlobTool {
	return &GlobTool{resolver: files.Resolver{Root: workspace}}
}

func (t *GlobTool) Name() string { return "glob" }

func (t *GlobTool) Description() string {
	return "Find files matching a glob pattern (supports ** for recursive matching), sorted by modification time."
}

func (t *GlobTool) Schema() json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"pattern": map[string]any{"type": "string", "description": "Glob pattern, e.g. '*.go', '**/*.ts', 'test_*.py'."},
			"path":    map[string]any{"type": "string", "description": "Root directory to search, default: workspace root."},
		},
		"required": []string{"pattern"},
	}
	payload, _ := json.Marshal(schema)
	return payload
}

type globMatch struct {
	path    string
	modTime time.Time
}

func (t *GlobTool) Execute(ctx context.Context, params json.RawMessage) (*model.ToolResult, error) {
	var input struct {
		Pattern string `json:"pattern"`
		Path    string `json:"path"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return errResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	pattern := strings.TrimSpace(input.Pattern)
	if pattern == "" {
		return errResult("pattern is required"), nil
	}
	if input.Path == "" {
		input.Path = "."
	}

	root, err := t.resolver.Resolve(input.Path)
	if err != nil {
		return errResult(err.Error()), nil
	}
	if !strings.HasPrefix(pattern, "**/") && !strings.Contains(pattern, "/") {
		pattern = "**/" + pattern
	}

	var matches []globMatch
	walkErr := doublestar.GlobWalk(fsFor(root), pattern, func(path string, d fs.DirEntry) error {
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		matches = append(matches, globMatch{path: filepath.Join(root, path), modTime: info.ModTime()})
		return nil
	})
	if walkErr != nil {
		return errResult(fmt.Sprintf("glob: %v", walkErr)), nil
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].modTime.After(matches[j].modTime) })
	truncated := len(matches) > globResultLimit
	if truncated {
		matches = matches[:globResultLimit]
	}

	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = m.path
	}

	out, _ := json.MarshalIndent(map[string]any{
		"pattern": input.Pattern, "matches": paths, "count": len(paths), "truncated": truncated,
	}, "", "  ")
	return &model.ToolResult{Title: fmt.Sprintf("%d matches", len(paths)), Output: string(out), Success: true}, nil
}
