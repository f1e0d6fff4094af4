// ABOUTME: HTTP surface of a tool server: discovery, SSE invocation, health
// ABOUTME: GET /mcp/info lists tools; POST /mcp/run streams StreamEvent frames

package toolserver

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxRequestBodySize bounds /mcp/run request bodies (1MB).
const maxRequestBodySize = 1 << 20

// Server hosts one toolset over the discovery and invocation protocol.
type Server struct {
	toolset Toolset
	logger  *slog.Logger
}

// NewServer creates a Server for the given toolset.
func NewServer(toolset Toolset, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		toolset: toolset,
		logger:  logger.With("component", "toolserver", "toolset", toolset.Name()),
	}
}

// RegisterRoutes attaches the protocol endpoints to the mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /mcp/info", s.handleInfo)
	mux.HandleFunc("POST /mcp/run", s.handleRun)
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
	fmt.Fprintf(w, `{"status":"ok","toolset":%q}`, s.toolset.Name())
}

// infoResponse is the GET /mcp/info body: the server's identity plus its
// tool catalog.
type infoResponse struct {
	Name  string `json:"name"`
	Tools any    `json:"tools"`
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	resp := infoResponse{
		Name:  s.toolset.Name(),
		Tools: s.toolset.Tools(),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("encoding info response", "error", err)
	}
}

// runRequest is the POST /mcp/run body.
type runRequest struct {
	ToolName string         `json:"tool_name"`
	Params   map[string]any `json:"params"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		http.Error(w, "reading request body", http.StatusBadRequest)
		return
	}

	var req runRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.ToolName == "" {
		http.Error(w, "tool_name is required", http.StatusBadRequest)
		return
	}
	if req.Params == nil {
		req.Params = map[string]any{}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	s.logger.Info("invocation started", "tool", req.ToolName)
	start := time.Now()

	events := s.toolset.Run(r.Context(), req.ToolName, req.Params)
	for ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			s.logger.Error("encoding event", "error", err)
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			// Client went away; drain the producer so it can finish.
			for range events {
			}
			s.logger.Warn("client disconnected mid-stream", "tool", req.ToolName)
			return
		}
		flusher.Flush()
	}

	s.logger.Info("invocation complete", "tool", req.ToolName, "duration", time.Since(start))
}
