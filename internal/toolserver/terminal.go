// ABOUTME: Terminal toolset: run an allow-listed shell command, streaming output live
// ABOUTME: The one toolset whose events arrive line by line as the process produces them

package toolserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/event"
	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/protocol"
	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/sandbox"
)

// TerminalToolset exposes a single execute_command tool backed by the
// sandbox. Output is streamed as it is produced rather than buffered, so
// long-running commands show progress.
type TerminalToolset struct {
	exec   *sandbox.Executor
	logger *slog.Logger
}

// NewTerminal creates the terminal toolset.
func NewTerminal(logger *slog.Logger) *TerminalToolset {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("toolset", "terminal")
	return &TerminalToolset{
		exec:   sandbox.NewExecutor(logger),
		logger: logger,
	}
}

// Name implements Toolset.
func (t *TerminalToolset) Name() string { return "terminal" }

// Tools implements Toolset.
func (t *TerminalToolset) Tools() []protocol.ToolDescriptor {
	return []protocol.ToolDescriptor{
		{
			Name:        "execute_command",
			Description: "Run an allow-listed command and stream its stdout and stderr line by line.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"command": {"type": "string", "description": "Command to run; the first token is the executable"},
					"args": {"type": "array", "items": {"type": "string"}, "description": "Additional arguments appended after the command"}
				},
				"required": ["command"]
			}`),
		},
	}
}

// Run implements Toolset.
func (t *TerminalToolset) Run(ctx context.Context, tool string, params map[string]any) <-chan event.StreamEvent {
	if tool != "execute_command" {
		return singleError("tool %q not found in toolset terminal", tool)
	}

	command, err := stringParam(params, "command")
	if err != nil {
		return singleError("%s", err.Error())
	}
	extra, err := stringSliceParam(params, "args")
	if err != nil {
		return singleError("%s", err.Error())
	}

	// The command string may carry its own arguments; the allow-list check
	// applies to the first token only, matching how a shell resolves it.
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return singleError("param %q must not be empty", "command")
	}

	cmd := sandbox.Command{
		Executable: fields[0],
		Args:       append(fields[1:], extra...),
	}
	t.logger.Info("executing command", "executable", cmd.Executable, "args", cmd.Args)
	return runStreaming(ctx, t.exec, cmd, t.logger)
}
