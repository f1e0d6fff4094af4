// ABOUTME: Folds one invocation's event stream into a single tool-result text
// ABOUTME: Exit code contextualizes output; stderr on success is informational

package agent

import (
	"fmt"
	"strings"

	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/event"
)

// FoldEvents collapses a fully drained event stream into the text of one
// tool-result message.
//
// Policy: a zero exit code means success even when stderr is non-empty —
// plenty of well-behaved tools (git progress output, for one) write to
// stderr on success, so stderr with exit 0 is reported as informational
// rather than as a failure. This is a deliberate judgment call, not an
// oversight.
func FoldEvents(events []event.StreamEvent) string {
	var stdout, stderr, errors []string
	exitCode := -1
	sawExit := false

	for _, ev := range events {
		switch ev.Type {
		case event.TypeStdout:
			stdout = append(stdout, ev.Content)
		case event.TypeStderr:
			stderr = append(stderr, ev.Content)
		case event.TypeError:
			errors = append(errors, ev.Content)
		case event.TypeExitCode:
			exitCode = ev.Code
			sawExit = true
		}
	}

	failed := sawExit && exitCode != 0

	var parts []string
	if len(stdout) > 0 {
		parts = append(parts, "Tool Output (stdout): "+strings.Join(stdout, "\n"))
	}
	if len(stderr) > 0 {
		if failed {
			parts = append(parts, "Tool Error (stderr): "+strings.Join(stderr, "\n"))
		} else {
			parts = append(parts, "Tool Info (stderr): "+strings.Join(stderr, "\n"))
		}
	}
	if len(errors) > 0 {
		parts = append(parts, "Tool Error: "+strings.Join(errors, "\n"))
	}

	if len(parts) == 0 {
		if sawExit {
			return fmt.Sprintf("Tool ran with no output (exit code %d).", exitCode)
		}
		return "Tool produced no output."
	}

	if failed {
		parts = append(parts, fmt.Sprintf("Command failed with exit code %d.", exitCode))
	}

	return strings.Join(parts, "\n")
}
