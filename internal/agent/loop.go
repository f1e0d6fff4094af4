// ABOUTME: The decision loop: alternate between the decision function and tool execution
// ABOUTME: Terminates on a final answer; a decision with neither text nor calls fails the turn

package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/event"
	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/registry"
)

// ErrEmptyState indicates the loop was started with no messages to react to.
var ErrEmptyState = errors.New("agent: conversation state is empty")

// ErrProtocolViolation indicates the decision function returned neither a
// final answer nor any tool call. The turn fails; there is no silent retry,
// because retrying an out-of-contract decision function just loops forever.
var ErrProtocolViolation = errors.New("agent: decision returned neither answer nor tool calls")

// ErrMaxTurns indicates the loop exceeded its turn budget without reaching a
// final answer.
var ErrMaxTurns = errors.New("agent: max turns reached")

// Decision is the decision function's verdict: either a final answer
// (terminal) or one or more tool calls (keep executing). Returning both is
// allowed — the text rides along on the assistant message and the calls are
// executed.
type Decision struct {
	FinalAnswer string
	ToolCalls   []ToolCall
}

// DecideFunc is the boundary where a reasoning engine plugs in. It receives
// the full conversation and the tool catalog and decides the next action.
// Its internals are opaque to the loop.
type DecideFunc func(ctx context.Context, messages []Message, tools []registry.RegisteredTool) (Decision, error)

// ToolRunner is the slice of the registry the loop needs.
type ToolRunner interface {
	Run(ctx context.Context, uniqueName string, params map[string]any) <-chan event.StreamEvent
	Tools() []registry.RegisteredTool
}

// Sink receives loop progress events. All methods are called from the loop's
// goroutine; implementations decide their own delivery (SSE, persistence).
type Sink interface {
	OnAssistant(content string, calls []ToolCall)
	OnToolResult(call ToolCall, result string)
	OnFinal(answer string)
}

// noopSink is used when the caller does not care about progress.
type noopSink struct{}

func (noopSink) OnAssistant(string, []ToolCall) {}
func (noopSink) OnToolResult(ToolCall, string)  {}
func (noopSink) OnFinal(string)                 {}

// Config holds everything a Loop needs.
type Config struct {
	Decide   DecideFunc
	Runner   ToolRunner
	Sink     Sink // optional
	Logger   *slog.Logger
	MaxTurns int // 0 means unlimited
}

// Loop drives one conversation: Deciding until the decision function
// returns a final answer, Executing tool calls in between.
type Loop struct {
	decide   DecideFunc
	runner   ToolRunner
	sink     Sink
	logger   *slog.Logger
	maxTurns int
}

// NewLoop creates a Loop from the given configuration.
func NewLoop(cfg Config) (*Loop, error) {
	if cfg.Decide == nil {
		return nil, errors.New("agent: decide function is required")
	}
	if cfg.Runner == nil {
		return nil, errors.New("agent: tool runner is required")
	}

	sink := cfg.Sink
	if sink == nil {
		sink = noopSink{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Loop{
		decide:   cfg.Decide,
		runner:   cfg.Runner,
		sink:     sink,
		logger:   logger.With("component", "agent"),
		maxTurns: cfg.MaxTurns,
	}, nil
}

// Run executes the loop over the given state until the decision function
// produces a final answer. The state is mutated only by appending; the
// caller owns it and may persist it after Run returns. On any error the
// state retains everything appended so far.
func (l *Loop) Run(ctx context.Context, state *State) (string, error) {
	if state.Empty() {
		return "", ErrEmptyState
	}

	turns := 0
	for {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("agent: turn cancelled: %w", err)
		}

		decision, err := l.decide(ctx, state.Messages(), l.runner.Tools())
		if err != nil {
			return "", fmt.Errorf("agent: decision failed: %w", err)
		}

		if len(decision.ToolCalls) == 0 {
			if decision.FinalAnswer == "" {
				l.logger.Error("decision function violated its contract")
				return "", ErrProtocolViolation
			}
			state.Append(Message{Role: RoleAssistant, Content: decision.FinalAnswer})
			l.sink.OnFinal(decision.FinalAnswer)
			return decision.FinalAnswer, nil
		}

		state.Append(Message{
			Role:      RoleAssistant,
			Content:   decision.FinalAnswer,
			ToolCalls: decision.ToolCalls,
		})
		l.sink.OnAssistant(decision.FinalAnswer, decision.ToolCalls)

		for _, call := range decision.ToolCalls {
			result := l.executeCall(ctx, call)
			state.Append(Message{
				Role:       RoleTool,
				Content:    result,
				ToolCallID: call.ID,
				ToolName:   call.UniqueName,
			})
			l.sink.OnToolResult(call, result)
		}

		turns++
		if l.maxTurns > 0 && turns >= l.maxTurns {
			return "", fmt.Errorf("%w (%d)", ErrMaxTurns, l.maxTurns)
		}
	}
}

// executeCall runs one tool call to completion and folds its event stream.
// The stream is always fully drained: a partially consumed stream would leak
// the producer goroutine.
func (l *Loop) executeCall(ctx context.Context, call ToolCall) string {
	l.logger.Info("executing tool call", "tool", call.UniqueName, "call_id", call.ID)

	var events []event.StreamEvent
	for ev := range l.runner.Run(ctx, call.UniqueName, call.Arguments) {
		events = append(events, ev)
	}

	result := FoldEvents(events)
	l.logger.Debug("tool call complete", "tool", call.UniqueName, "events", len(events))
	return result
}
