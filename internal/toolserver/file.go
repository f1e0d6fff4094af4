// ABOUTME: File toolset: read and write files confined to a workspace root
// ABOUTME: Absolute paths and parent traversal are rejected before touching the disk

package toolserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/event"
	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/protocol"
)

// FileToolset reads and writes files relative to a workspace root. It does
// not go through the sandbox executor: no subprocess is involved, so the
// confinement is the path check itself.
type FileToolset struct {
	root   string
	logger *slog.Logger
}

// NewFile creates the file toolset rooted at the given workspace directory.
func NewFile(root string, logger *slog.Logger) *FileToolset {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileToolset{
		root:   root,
		logger: logger.With("toolset", "file"),
	}
}

// Name implements Toolset.
func (f *FileToolset) Name() string { return "file" }

// Tools implements Toolset.
func (f *FileToolset) Tools() []protocol.ToolDescriptor {
	return []protocol.ToolDescriptor{
		{
			Name:        "read_file",
			Description: "Read a file from the workspace.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"path": {"type": "string", "description": "Workspace-relative path"}
				},
				"required": ["path"]
			}`),
		},
		{
			Name:        "write_file",
			Description: "Write content to a file in the workspace, creating parent directories as needed.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"path": {"type": "string", "description": "Workspace-relative path"},
					"content": {"type": "string", "description": "File content to write"}
				},
				"required": ["path", "content"]
			}`),
		},
	}
}

// Run implements Toolset.
func (f *FileToolset) Run(ctx context.Context, tool string, params map[string]any) <-chan event.StreamEvent {
	switch tool {
	case "read_file":
		return f.readFile(params)
	case "write_file":
		return f.writeFile(params)
	default:
		return singleError("%s", errUnknownTool(tool, "file").Error())
	}
}

// resolve maps a workspace-relative path onto the filesystem. Absolute paths
// and anything escaping the root are refused.
func (f *FileToolset) resolve(rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("path must not be empty")
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("absolute paths are not allowed: %q", rel)
	}
	clean := filepath.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes the workspace: %q", rel)
	}
	return filepath.Join(f.root, clean), nil
}

func (f *FileToolset) readFile(params map[string]any) <-chan event.StreamEvent {
	rel, err := stringParam(params, "path")
	if err != nil {
		return singleError("%s", err.Error())
	}
	full, err := f.resolve(rel)
	if err != nil {
		return singleError("%s", err.Error())
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return singleError("reading %s: %v", rel, err)
	}

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	out := make(chan event.StreamEvent, len(lines)+1)
	for _, line := range lines {
		out <- event.Stdout(line)
	}
	out <- event.ExitCode(0)
	close(out)
	return out
}

func (f *FileToolset) writeFile(params map[string]any) <-chan event.StreamEvent {
	rel, err := stringParam(params, "path")
	if err != nil {
		return singleError("%s", err.Error())
	}
	content, err := stringParam(params, "content")
	if err != nil {
		return singleError("%s", err.Error())
	}
	full, err := f.resolve(rel)
	if err != nil {
		return singleError("%s", err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return singleError("creating directories for %s: %v", rel, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return singleError("writing %s: %v", rel, err)
	}

	f.logger.Info("wrote file", "path", rel, "bytes", len(content))

	out := make(chan event.StreamEvent, 2)
	out <- event.Stdout(fmt.Sprintf("Wrote %d bytes to %s", len(content), rel))
	out <- event.ExitCode(0)
	close(out)
	return out
}
