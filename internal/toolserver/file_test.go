// ABOUTME: Tests for the workspace-confined file toolset
// ABOUTME: Path confinement, read/write round trips, and missing-file errors

package toolserver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/event"
)

func TestFileToolset_WriteThenRead(t *testing.T) {
	fs := NewFile(t.TempDir(), nil)

	events := collect(t, fs.Run(t.Context(), "write_file", map[string]any{
		"path":    "notes/todo.txt",
		"content": "first\nsecond",
	}))
	require.NotEmpty(t, events)
	assert.Equal(t, event.TypeExitCode, events[len(events)-1].Type)
	assert.Equal(t, 0, events[len(events)-1].Code)

	events = collect(t, fs.Run(t.Context(), "read_file", map[string]any{
		"path": "notes/todo.txt",
	}))
	require.Len(t, events, 3)
	assert.Equal(t, "first", events[0].Content)
	assert.Equal(t, "second", events[1].Content)
	assert.Equal(t, event.TypeExitCode, events[2].Type)
}

func TestFileToolset_RejectsAbsolutePaths(t *testing.T) {
	fs := NewFile(t.TempDir(), nil)

	events := collect(t, fs.Run(t.Context(), "read_file", map[string]any{
		"path": "/etc/passwd",
	}))
	require.Len(t, events, 1)
	assert.Equal(t, event.TypeError, events[0].Type)
	assert.Contains(t, events[0].Content, "absolute")
}

func TestFileToolset_RejectsTraversal(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(filepath.Dir(root), "outside.txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o644))
	t.Cleanup(func() { os.Remove(outside) })

	fs := NewFile(root, nil)
	for _, path := range []string{"../outside.txt", "a/../../outside.txt", ".."} {
		events := collect(t, fs.Run(t.Context(), "read_file", map[string]any{"path": path}))
		require.Len(t, events, 1, "path %q", path)
		assert.Equal(t, event.TypeError, events[0].Type, "path %q", path)
	}
}

func TestFileToolset_MissingFile(t *testing.T) {
	fs := NewFile(t.TempDir(), nil)

	events := collect(t, fs.Run(t.Context(), "read_file", map[string]any{
		"path": "nope.txt",
	}))
	require.Len(t, events, 1)
	assert.Equal(t, event.TypeError, events[0].Type)
	assert.Contains(t, events[0].Content, "nope.txt")
}

func TestFileToolset_MissingParams(t *testing.T) {
	fs := NewFile(t.TempDir(), nil)

	events := collect(t, fs.Run(t.Context(), "write_file", map[string]any{"path": "x.txt"}))
	require.Len(t, events, 1)
	assert.Equal(t, event.TypeError, events[0].Type)
	assert.Contains(t, events[0].Content, "content")
}
