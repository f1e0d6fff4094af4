// ABOUTME: HTTP API for chatting with the orchestrator over SSE
// ABOUTME: POST /chat/stream runs the decision loop; threads and history are persisted

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/agent"
	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/store"
)

// maxRequestBodySize bounds chat request bodies (1MB).
const maxRequestBodySize = 1 << 20

// maxTitleLength truncates thread titles derived from the first message.
const maxTitleLength = 80

// Server exposes the orchestrator over HTTP. Each chat request runs its own
// decision loop; the store keeps thread history across requests.
type Server struct {
	store    store.Store
	runner   agent.ToolRunner
	decide   agent.DecideFunc
	maxTurns int
	logger   *slog.Logger
}

// Config holds the Server's collaborators.
type Config struct {
	Store    store.Store
	Runner   agent.ToolRunner
	Decide   agent.DecideFunc
	MaxTurns int
	Logger   *slog.Logger
}

// NewServer creates the API server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("api: store is required")
	}
	if cfg.Runner == nil {
		return nil, errors.New("api: tool runner is required")
	}
	if cfg.Decide == nil {
		return nil, errors.New("api: decide function is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:    cfg.Store,
		runner:   cfg.Runner,
		decide:   cfg.Decide,
		maxTurns: cfg.MaxTurns,
		logger:   logger.With("component", "api"),
	}, nil
}

// RegisterRoutes attaches the API endpoints to the mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /chat/stream", s.handleChatStream)
	mux.HandleFunc("GET /threads", s.handleListThreads)
	mux.HandleFunc("GET /threads/{id}/messages", s.handleThreadMessages)
	mux.HandleFunc("GET /tools", s.handleListTools)
	mux.HandleFunc("GET /health", s.handleHealth)
}

// Handler returns a standalone handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

// chatRequest is the POST /chat/stream body. An empty thread_id starts a new
// thread; the response stream announces its ID.
type chatRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"thread_id,omitempty"`
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		http.Error(w, "reading request body", http.StatusBadRequest)
		return
	}

	var req chatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	thread, state, err := s.prepareThread(ctx, req)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "thread not found", http.StatusNotFound)
			return
		}
		s.logger.Error("preparing thread", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	sink := newSSESink(w, flusher, s.logger)
	sink.send("thread", map[string]string{"thread_id": thread.ID})

	// The user message is persisted before the loop runs so a crashed turn
	// still leaves the question on record.
	s.persistMessage(ctx, &store.Message{
		ID:        uuid.NewString(),
		ThreadID:  thread.ID,
		Role:      store.RoleUser,
		Content:   req.Message,
		CreatedAt: time.Now(),
	})

	runner := newAuditRunner(s.runner, s.store, thread.ID, s.logger)
	loop, err := agent.NewLoop(agent.Config{
		Decide:   s.decide,
		Runner:   runner,
		Sink:     &persistingSink{sse: sink, server: s, threadID: thread.ID},
		Logger:   s.logger,
		MaxTurns: s.maxTurns,
	})
	if err != nil {
		s.logger.Error("building loop", "error", err)
		sink.send("error", map[string]string{"error": "internal error"})
		return
	}

	if _, err := loop.Run(ctx, state); err != nil {
		s.logger.Error("chat turn failed", "thread_id", thread.ID, "error", err)
		sink.send("error", map[string]string{"error": err.Error()})
		return
	}

	if err := s.store.TouchThread(ctx, thread.ID, time.Now()); err != nil {
		s.logger.Warn("touching thread", "thread_id", thread.ID, "error", err)
	}
}

// prepareThread resolves or creates the thread and rebuilds conversation
// state from its history, ending with the new user message.
func (s *Server) prepareThread(ctx context.Context, req chatRequest) (*store.Thread, *agent.State, error) {
	if req.ThreadID != "" {
		thread, err := s.store.GetThread(ctx, req.ThreadID)
		if err != nil {
			return nil, nil, err
		}
		history, err := s.store.GetThreadMessages(ctx, thread.ID, 0)
		if err != nil {
			return nil, nil, fmt.Errorf("loading history: %w", err)
		}
		state := rebuildState(history)
		state.Append(agent.UserMessage(req.Message))
		return thread, state, nil
	}

	now := time.Now()
	thread := &store.Thread{
		ID:        uuid.NewString(),
		Title:     threadTitle(req.Message),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateThread(ctx, thread); err != nil {
		return nil, nil, fmt.Errorf("creating thread: %w", err)
	}
	return thread, agent.NewState(agent.UserMessage(req.Message)), nil
}

// rebuildState converts persisted history into loop state. Stored tool
// results are replayed as user-visible context rather than as tool messages:
// the call/result pairing they belonged to is gone, and an unpaired tool
// message would be rejected by the model API.
func rebuildState(history []*store.Message) *agent.State {
	state := agent.NewState()
	for _, m := range history {
		switch m.Role {
		case store.RoleUser:
			state.Append(agent.UserMessage(m.Content))
		case store.RoleAssistant:
			if m.Content != "" {
				state.Append(agent.Message{Role: agent.RoleAssistant, Content: m.Content})
			}
		case store.RoleTool:
			state.Append(agent.UserMessage(
				fmt.Sprintf("[earlier result from %s]\n%s", m.ToolName, m.Content)))
		}
	}
	return state
}

// threadTitle derives a thread title from the first message. Truncation
// backs up to a rune boundary so a multi-byte character is never split.
func threadTitle(message string) string {
	title := strings.TrimSpace(message)
	if len(title) > maxTitleLength {
		cut := maxTitleLength
		for cut > 0 && !utf8.RuneStart(title[cut]) {
			cut--
		}
		title = title[:cut]
	}
	return title
}

func (s *Server) handleListThreads(w http.ResponseWriter, r *http.Request) {
	threads, err := s.store.ListThreads(r.Context(), 100)
	if err != nil {
		s.logger.Error("listing threads", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	type threadResponse struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		CreatedAt string `json:"created_at"`
		UpdatedAt string `json:"updated_at"`
	}
	out := make([]threadResponse, 0, len(threads))
	for _, t := range threads {
		out = append(out, threadResponse{
			ID:        t.ID,
			Title:     t.Title,
			CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339),
			UpdatedAt: t.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"threads": out}); err != nil {
		s.logger.Error("encoding threads", "error", err)
	}
}

func (s *Server) handleThreadMessages(w http.ResponseWriter, r *http.Request) {
	threadID := r.PathValue("id")

	if _, err := s.store.GetThread(r.Context(), threadID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "thread not found", http.StatusNotFound)
			return
		}
		s.logger.Error("loading thread", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	messages, err := s.store.GetThreadMessages(r.Context(), threadID, 0)
	if err != nil {
		s.logger.Error("loading messages", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	type messageResponse struct {
		ID         string `json:"id"`
		Role       string `json:"role"`
		Content    string `json:"content"`
		ToolName   string `json:"tool_name,omitempty"`
		ToolCallID string `json:"tool_call_id,omitempty"`
		CreatedAt  string `json:"created_at"`
	}
	out := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, messageResponse{
			ID:         m.ID,
			Role:       m.Role,
			Content:    m.Content,
			ToolName:   m.ToolName,
			ToolCallID: m.ToolCallID,
			CreatedAt:  m.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"thread_id": threadID,
		"messages":  out,
	}); err != nil {
		s.logger.Error("encoding messages", "error", err)
	}
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	type toolResponse struct {
		UniqueName  string          `json:"unique_name"`
		Server      string          `json:"server"`
		Description string          `json:"description"`
		InputSchema json.RawMessage `json:"input_schema,omitempty"`
	}

	tools := s.runner.Tools()
	out := make([]toolResponse, 0, len(tools))
	for _, t := range tools {
		out = append(out, toolResponse{
			UniqueName:  t.UniqueName,
			Server:      t.ServerName,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"tools": out}); err != nil {
		s.logger.Error("encoding tools", "error", err)
	}
}

// persistMessage saves a message, logging rather than failing on error:
// losing an audit row must not fail a chat turn.
func (s *Server) persistMessage(ctx context.Context, msg *store.Message) {
	if err := s.store.SaveMessage(ctx, msg); err != nil {
		s.logger.Warn("persisting message", "thread_id", msg.ThreadID, "role", msg.Role, "error", err)
	}
}
