// ABOUTME: SSE sink for chat streaming plus the persisting wrapper around it
// ABOUTME: Loop progress goes to the wire and to the store in the same order

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/agent"
	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/store"
)

// sseSink writes named events to an SSE response. All writes happen on the
// request goroutine, so no locking is needed.
type sseSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
	logger  *slog.Logger
}

func newSSESink(w http.ResponseWriter, flusher http.Flusher, logger *slog.Logger) *sseSink {
	return &sseSink{w: w, flusher: flusher, logger: logger}
}

// send emits one SSE event. Encoding failures are logged and the event is
// dropped; the stream itself stays usable.
func (s *sseSink) send(eventName string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("encoding SSE payload", "event", eventName, "error", err)
		return
	}
	fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", eventName, data)
	s.flusher.Flush()
}

// toolCallPayload is the wire shape of one requested tool call.
type toolCallPayload struct {
	ID         string         `json:"id"`
	UniqueName string         `json:"unique_name"`
	Arguments  map[string]any `json:"arguments,omitempty"`
}

// persistingSink forwards loop progress to the SSE stream and mirrors it
// into the store. Store failures are logged, never surfaced: the live
// conversation takes precedence over its audit trail.
type persistingSink struct {
	sse      *sseSink
	server   *Server
	threadID string
}

func (p *persistingSink) OnAssistant(content string, calls []agent.ToolCall) {
	payload := map[string]any{"content": content}
	if len(calls) > 0 {
		wireCalls := make([]toolCallPayload, 0, len(calls))
		for _, c := range calls {
			wireCalls = append(wireCalls, toolCallPayload{
				ID:         c.ID,
				UniqueName: c.UniqueName,
				Arguments:  c.Arguments,
			})
		}
		payload["tool_calls"] = wireCalls
	}
	p.sse.send("assistant", payload)

	if content != "" {
		p.server.persistMessage(context.Background(), &store.Message{
			ID:        uuid.NewString(),
			ThreadID:  p.threadID,
			Role:      store.RoleAssistant,
			Content:   content,
			CreatedAt: time.Now(),
		})
	}
}

func (p *persistingSink) OnToolResult(call agent.ToolCall, result string) {
	p.sse.send("tool_result", map[string]any{
		"call_id":     call.ID,
		"unique_name": call.UniqueName,
		"result":      result,
	})

	p.server.persistMessage(context.Background(), &store.Message{
		ID:         uuid.NewString(),
		ThreadID:   p.threadID,
		Role:       store.RoleTool,
		Content:    result,
		ToolName:   call.UniqueName,
		ToolCallID: call.ID,
		CreatedAt:  time.Now(),
	})
}

func (p *persistingSink) OnFinal(answer string) {
	p.sse.send("final", map[string]string{"answer": answer})

	p.server.persistMessage(context.Background(), &store.Message{
		ID:        uuid.NewString(),
		ThreadID:  p.threadID,
		Role:      store.RoleAssistant,
		Content:   answer,
		CreatedAt: time.Now(),
	})
}
