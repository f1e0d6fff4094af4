// ABOUTME: Conversation state for one decision loop: an append-only message sequence
// ABOUTME: Roles: user input, assistant output (with tool calls), tool results

package agent

// Role identifies who produced a message.
type Role string

const (
	// RoleUser is human input.
	RoleUser Role = "user"

	// RoleAssistant is decision-function output: text, tool calls, or both.
	RoleAssistant Role = "assistant"

	// RoleTool is a synthesized tool result folded from an event stream.
	RoleTool Role = "tool"
)

// ToolCall is one tool invocation requested by the decision function.
type ToolCall struct {
	// ID correlates the call with its result message.
	ID string

	// UniqueName is the registry key, "server/tool".
	UniqueName string

	// Arguments are the tool's input params.
	Arguments map[string]any
}

// Message is one entry in the conversation.
type Message struct {
	Role    Role
	Content string

	// ToolCalls is set on assistant messages that request tool execution.
	ToolCalls []ToolCall

	// ToolCallID and ToolName are set on tool result messages.
	ToolCallID string
	ToolName   string
}

// State is the ordered message history owned by exactly one decision loop
// for the duration of a conversation turn. It only ever grows: messages are
// appended, never reordered or truncated.
type State struct {
	messages []Message
}

// NewState creates a state seeded with prior history, if any.
func NewState(messages ...Message) *State {
	s := &State{messages: make([]Message, 0, len(messages))}
	s.messages = append(s.messages, messages...)
	return s
}

// UserMessage builds a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Append adds a message to the end of the history.
func (s *State) Append(m Message) {
	s.messages = append(s.messages, m)
}

// Messages returns a copy of the history.
func (s *State) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages.
func (s *State) Len() int { return len(s.messages) }

// Empty reports whether the state holds no messages at all.
func (s *State) Empty() bool { return len(s.messages) == 0 }
