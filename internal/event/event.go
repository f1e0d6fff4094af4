// ABOUTME: StreamEvent type and wire codec shared by tool servers and the orchestrator
// ABOUTME: Tagged union of stdout/stderr/error lines and a terminal exit_code

package event

import (
	"encoding/json"
	"fmt"
)

// Type identifies the kind of a StreamEvent.
type Type string

const (
	// TypeStdout is a line of standard output from a tool run.
	TypeStdout Type = "stdout"

	// TypeStderr is a line of standard error from a tool run.
	TypeStderr Type = "stderr"

	// TypeError reports a failure inside the run or the transport. An error
	// event appearing without a following exit_code means the run never
	// reached completion.
	TypeError Type = "error"

	// TypeExitCode carries the process exit status. It is emitted at most
	// once per invocation and is always the last event of a completed run.
	TypeExitCode Type = "exit_code"
)

// StreamEvent is one element of an invocation's event stream. For stdout,
// stderr, and error events Content holds the text; for exit_code events Code
// holds the status and Content is unused.
type StreamEvent struct {
	Type    Type
	Content string
	Code    int
}

// Stdout builds a stdout event.
func Stdout(content string) StreamEvent {
	return StreamEvent{Type: TypeStdout, Content: content}
}

// Stderr builds a stderr event.
func Stderr(content string) StreamEvent {
	return StreamEvent{Type: TypeStderr, Content: content}
}

// Errorf builds an error event from a format string.
func Errorf(format string, args ...any) StreamEvent {
	return StreamEvent{Type: TypeError, Content: fmt.Sprintf(format, args...)}
}

// ExitCode builds the terminal exit_code event.
func ExitCode(code int) StreamEvent {
	return StreamEvent{Type: TypeExitCode, Code: code}
}

// IsTerminal reports whether the event closes the stream on a completed run.
func (e StreamEvent) IsTerminal() bool {
	return e.Type == TypeExitCode
}

// wireEvent is the JSON shape shared with the tool-server protocol:
// {"type": "stdout"|"stderr"|"error"|"exit_code", "content": string|int}.
type wireEvent struct {
	Type    Type            `json:"type"`
	Content json.RawMessage `json:"content"`
}

// MarshalJSON encodes the event in its wire form. The content field is a
// string for output and error events and a bare integer for exit_code.
func (e StreamEvent) MarshalJSON() ([]byte, error) {
	var content any
	if e.Type == TypeExitCode {
		content = e.Code
	} else {
		content = e.Content
	}
	return json.Marshal(map[string]any{
		"type":    e.Type,
		"content": content,
	})
}

// UnmarshalJSON decodes the wire form, accepting a string or integer content
// depending on the event type.
func (e *StreamEvent) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	switch w.Type {
	case TypeStdout, TypeStderr, TypeError:
		var content string
		if err := json.Unmarshal(w.Content, &content); err != nil {
			return fmt.Errorf("decoding %s content: %w", w.Type, err)
		}
		*e = StreamEvent{Type: w.Type, Content: content}
	case TypeExitCode:
		var code int
		if err := json.Unmarshal(w.Content, &code); err != nil {
			return fmt.Errorf("decoding exit_code content: %w", err)
		}
		*e = StreamEvent{Type: TypeExitCode, Code: code}
	case "":
		return fmt.Errorf("event missing type field")
	default:
		return fmt.Errorf("unknown event type %q", w.Type)
	}
	return nil
}
