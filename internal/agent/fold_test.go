// ABOUTME: Tests for folding an event stream into one tool-result text
// ABOUTME: Covers success, stderr-on-success, failure, errors, and empty streams

package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/event"
)

func TestFoldEvents_StdoutSuccess(t *testing.T) {
	got := FoldEvents([]event.StreamEvent{
		event.Stdout("pong"),
		event.ExitCode(0),
	})

	assert.Equal(t, "Tool Output (stdout): pong", got)
}

func TestFoldEvents_MultilineStdout(t *testing.T) {
	got := FoldEvents([]event.StreamEvent{
		event.Stdout("one"),
		event.Stdout("two"),
		event.ExitCode(0),
	})

	assert.Equal(t, "Tool Output (stdout): one\ntwo", got)
}

func TestFoldEvents_StderrOnSuccessIsInformational(t *testing.T) {
	got := FoldEvents([]event.StreamEvent{
		event.Stdout("done"),
		event.Stderr("Cloning into 'repo'..."),
		event.ExitCode(0),
	})

	assert.Contains(t, got, "Tool Info (stderr): Cloning into 'repo'...")
	assert.NotContains(t, got, "Tool Error")
	assert.NotContains(t, got, "Command failed")
}

func TestFoldEvents_StderrOnFailure(t *testing.T) {
	got := FoldEvents([]event.StreamEvent{
		event.Stderr("cat: missing: No such file or directory"),
		event.ExitCode(1),
	})

	assert.Contains(t, got, "Tool Error (stderr): cat: missing: No such file or directory")
	assert.Contains(t, got, "Command failed with exit code 1.")
}

func TestFoldEvents_ErrorEvents(t *testing.T) {
	got := FoldEvents([]event.StreamEvent{
		event.Errorf("command not allowed: rm"),
		event.ExitCode(126),
	})

	assert.Contains(t, got, "Tool Error: command not allowed: rm")
	assert.Contains(t, got, "Command failed with exit code 126.")
}

func TestFoldEvents_NoOutput(t *testing.T) {
	got := FoldEvents([]event.StreamEvent{event.ExitCode(0)})
	assert.Equal(t, "Tool ran with no output (exit code 0).", got)
}

func TestFoldEvents_NoEventsAtAll(t *testing.T) {
	got := FoldEvents(nil)
	assert.Equal(t, "Tool produced no output.", got)
}
