// ABOUTME: Toolset interface and shared run helpers for tool servers
// ABOUTME: Buffered and streaming execution over the sandbox, as event streams

package toolserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/event"
	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/protocol"
	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/sandbox"
)

// exitPermissionDenied is the exit code reported when the sandbox refuses a
// command. It mirrors the shell convention for "found but not executable".
const exitPermissionDenied = 126

// Toolset is one family of tools hosted by a tool server. Implementations
// are stateless between runs; every invocation produces a fresh event
// stream.
type Toolset interface {
	// Name is the toolset identifier used for logging and server identity.
	Name() string

	// Tools lists the descriptors advertised on /mcp/info.
	Tools() []protocol.ToolDescriptor

	// Run executes one tool and streams its events. Unknown tools and bad
	// params are reported on the stream, never as a panic.
	Run(ctx context.Context, tool string, params map[string]any) <-chan event.StreamEvent
}

// singleError returns a closed stream carrying one error event.
func singleError(format string, args ...any) <-chan event.StreamEvent {
	ch := make(chan event.StreamEvent, 1)
	ch <- event.Errorf(format, args...)
	close(ch)
	return ch
}

// refused reports a sandbox rejection: one error event naming the command
// plus the permission-denied exit code.
func refused(err error) <-chan event.StreamEvent {
	ch := make(chan event.StreamEvent, 2)
	ch <- event.Errorf("%s", err.Error())
	ch <- event.ExitCode(exitPermissionDenied)
	close(ch)
	return ch
}

// runStreaming spawns the command and forwards its output line by line as
// lines are produced.
func runStreaming(ctx context.Context, exec *sandbox.Executor, cmd sandbox.Command, logger *slog.Logger) <-chan event.StreamEvent {
	proc, err := exec.Start(ctx, cmd)
	if err != nil {
		if errors.Is(err, sandbox.ErrCommandNotAllowed) {
			return refused(err)
		}
		return singleError("starting %s: %v", cmd.Executable, err)
	}
	return sandbox.Drain(proc, logger)
}

// runBuffered spawns the command, drains it to completion, and collapses the
// output into at most three events: one stdout, one stderr, the exit code.
// Tools whose output is read as a whole (git, docker) use this shape.
func runBuffered(ctx context.Context, exec *sandbox.Executor, cmd sandbox.Command, logger *slog.Logger) <-chan event.StreamEvent {
	out := make(chan event.StreamEvent, 3)

	proc, err := exec.Start(ctx, cmd)
	if err != nil {
		if errors.Is(err, sandbox.ErrCommandNotAllowed) {
			return refused(err)
		}
		return singleError("starting %s: %v", cmd.Executable, err)
	}

	go func() {
		defer close(out)

		var stdout, stderr []string
		exitCode := 0
		for ev := range sandbox.Drain(proc, logger) {
			switch ev.Type {
			case event.TypeStdout:
				stdout = append(stdout, ev.Content)
			case event.TypeStderr:
				stderr = append(stderr, ev.Content)
			case event.TypeError:
				stderr = append(stderr, ev.Content)
			case event.TypeExitCode:
				exitCode = ev.Code
			}
		}

		if len(stdout) > 0 {
			out <- event.Stdout(strings.Join(stdout, "\n"))
		}
		if len(stderr) > 0 {
			out <- event.Stderr(strings.Join(stderr, "\n"))
		}
		out <- event.ExitCode(exitCode)
	}()

	return out
}

// errUnknownTool reports a tool name the toolset does not host.
func errUnknownTool(tool, toolset string) error {
	return fmt.Errorf("tool %q not found in toolset %s", tool, toolset)
}

// stringParam extracts a required string parameter.
func stringParam(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing required param %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("param %q must be a string", key)
	}
	return s, nil
}

// stringSliceParam extracts an optional string-array parameter. JSON decoding
// delivers arrays as []any, so elements are checked one by one.
func stringSliceParam(params map[string]any, key string) ([]string, error) {
	v, ok := params[key]
	if !ok {
		return nil, nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("param %q must be an array of strings", key)
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("param %q must be an array of strings", key)
		}
		out = append(out, s)
	}
	return out, nil
}
