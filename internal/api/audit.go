// ABOUTME: ToolRunner decorator that records every invocation in the store
// ABOUTME: Tees the event stream, capturing exit codes and errors as they pass

package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/agent"
	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/event"
	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/registry"
	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/store"
)

// auditRunner wraps a ToolRunner and writes one Invocation row per run. The
// loop drains the returned channel exactly as it would the inner one; the
// audit row is written once the stream closes.
type auditRunner struct {
	inner    agent.ToolRunner
	store    store.Store
	threadID string
	logger   *slog.Logger
}

func newAuditRunner(inner agent.ToolRunner, st store.Store, threadID string, logger *slog.Logger) *auditRunner {
	return &auditRunner{
		inner:    inner,
		store:    st,
		threadID: threadID,
		logger:   logger.With("component", "audit"),
	}
}

func (a *auditRunner) Tools() []registry.RegisteredTool {
	return a.inner.Tools()
}

func (a *auditRunner) Run(ctx context.Context, uniqueName string, params map[string]any) <-chan event.StreamEvent {
	started := time.Now()
	inner := a.inner.Run(ctx, uniqueName, params)
	out := make(chan event.StreamEvent)

	go func() {
		defer close(out)

		exitCode := -1
		var errText string
		for ev := range inner {
			switch ev.Type {
			case event.TypeExitCode:
				exitCode = ev.Code
			case event.TypeError:
				if errText != "" {
					errText += "\n"
				}
				errText += ev.Content
			}
			out <- ev
		}

		paramsJSON, err := json.Marshal(params)
		if err != nil {
			paramsJSON = []byte("{}")
		}

		// Background context: the audit row should land even when the
		// request was cancelled mid-run.
		inv := &store.Invocation{
			ID:         uuid.NewString(),
			ThreadID:   a.threadID,
			ToolName:   uniqueName,
			ParamsJSON: string(paramsJSON),
			ExitCode:   exitCode,
			Error:      errText,
			StartedAt:  started,
			FinishedAt: time.Now(),
		}
		if err := a.store.RecordInvocation(context.Background(), inv); err != nil {
			a.logger.Warn("recording invocation", "tool", uniqueName, "error", err)
		}
	}()

	return out
}
