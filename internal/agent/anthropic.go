// ABOUTME: Anthropic-backed decision function: the reasoning engine shipped with the repo
// ABOUTME: Maps conversation state and the tool catalog onto the Messages API

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/registry"
)

const systemPrompt = "You are an orchestrator agent. Use the provided tools to " +
	"inspect systems and answer the user's question. When no further tool call " +
	"is needed, reply with the final answer as plain text."

// AnthropicDecider implements the decision-function boundary on top of the
// Anthropic Messages API. It is the only component that knows about the
// model; the loop sees a plain DecideFunc.
type AnthropicDecider struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropicDecider creates a decider. The API key is read from
// ANTHROPIC_API_KEY by the SDK's default options.
func NewAnthropicDecider(model string, maxTokens int) *AnthropicDecider {
	return &AnthropicDecider{
		client:    anthropic.NewClient(),
		model:     model,
		maxTokens: maxTokens,
	}
}

// DecideFunc returns the decider as a plain decision function.
func (d *AnthropicDecider) DecideFunc() DecideFunc {
	return d.Decide
}

// Decide asks the model for the next action given the conversation and the
// tool catalog.
func (d *AnthropicDecider) Decide(ctx context.Context, messages []Message, tools []registry.RegisteredTool) (Decision, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(d.model),
		MaxTokens: int64(d.maxTokens),
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:  toMessageParams(messages),
	}
	if len(tools) > 0 {
		params.Tools = toToolParams(tools)
	}

	msg, err := d.client.Messages.New(ctx, params)
	if err != nil {
		return Decision{}, fmt.Errorf("anthropic request: %w", err)
	}

	var decision Decision
	var text strings.Builder
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			toolUse := block.AsToolUse()
			args := map[string]any{}
			if len(toolUse.Input) > 0 {
				if err := json.Unmarshal(toolUse.Input, &args); err != nil {
					return Decision{}, fmt.Errorf("decoding tool_use input for %s: %w", toolUse.Name, err)
				}
			}
			decision.ToolCalls = append(decision.ToolCalls, ToolCall{
				ID:         toolUse.ID,
				UniqueName: fromWireName(toolUse.Name),
				Arguments:  args,
			})
		}
	}
	decision.FinalAnswer = strings.TrimSpace(text.String())

	return decision, nil
}

// wireName maps a registry unique name onto the API's tool-name charset.
// Tool names may not contain "/", so "server/tool" travels as "server__tool".
func wireName(uniqueName string) string {
	return strings.ReplaceAll(uniqueName, "/", "__")
}

// fromWireName reverses wireName. Only the first separator is significant,
// which is unambiguous because config validation forbids "/" and "__" in
// server names, so the first "__" always marks the server/tool boundary.
func fromWireName(name string) string {
	return strings.Replace(name, "__", "/", 1)
}

// toToolParams converts the catalog into API tool definitions.
func toToolParams(tools []registry.RegisteredTool) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        wireName(tool.UniqueName),
				Description: param.NewOpt(tool.Description),
				InputSchema: buildInputSchema(tool.InputSchema),
			},
		})
	}
	return out
}

// buildInputSchema lifts a raw JSON schema into the API's schema shape.
func buildInputSchema(raw json.RawMessage) anthropic.ToolInputSchemaParam {
	schema := anthropic.ToolInputSchemaParam{}
	if len(raw) == 0 {
		return schema
	}

	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return schema
	}

	if props, ok := parsed["properties"]; ok {
		schema.Properties = props
	}
	if req, ok := parsed["required"].([]any); ok {
		required := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				required = append(required, s)
			}
		}
		schema.Required = required
	}
	return schema
}

// toMessageParams rebuilds the API message list from conversation state.
// Tool results become user messages carrying tool_result blocks, matching
// the tool_use IDs of the preceding assistant message.
func toMessageParams(messages []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))

		case RoleAssistant:
			blocks := make([]anthropic.ContentBlockParamUnion, 0, 1+len(m.ToolCalls))
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, call := range m.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, call.Arguments, wireName(call.UniqueName)))
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))

		case RoleTool:
			out = append(out, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false)))
		}
	}
	return out
}
