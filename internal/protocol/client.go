// ABOUTME: HTTP client for one remote tool server: capability discovery and SSE invocation
// ABOUTME: Decodes the server's pushed StreamEvent frames, tolerating malformed ones

package protocol

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/event"
)

const (
	// discoveryTimeout bounds the capability fetch. Invocations are not
	// bounded here: a tool run lasts as long as its process, and callers
	// cancel through the context.
	discoveryTimeout = 30 * time.Second

	// maxFrameBytes bounds a single SSE frame payload.
	maxFrameBytes = 1 << 20
)

// ToolDescriptor describes one capability published by a tool server. It is
// immutable once published.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// ServerInfo is the discovery response from GET /mcp/info.
type ServerInfo struct {
	Name  string           `json:"name"`
	Tools []ToolDescriptor `json:"tools"`
}

// runRequest is the invocation request body for POST /mcp/run.
type runRequest struct {
	ToolName string         `json:"tool_name"`
	Params   map[string]any `json:"params"`
}

// Client talks to a single tool server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the tool server at baseURL. Pass nil for
// the default logger.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     logger.With("component", "protocol", "server_url", baseURL),
	}
}

// BaseURL returns the server address this client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchCapabilities requests the server's tool list. Any transport or decode
// failure is returned as an error; callers log it and move on — one
// unreachable server must never abort discovery of the others.
func (c *Client) FetchCapabilities(ctx context.Context) (*ServerInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, discoveryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/mcp/info", nil)
	if err != nil {
		return nil, fmt.Errorf("building discovery request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching capabilities: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery returned status %d", resp.StatusCode)
	}

	var info ServerInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxFrameBytes)).Decode(&info); err != nil {
		return nil, fmt.Errorf("decoding capability list: %w", err)
	}
	return &info, nil
}

// Invoke runs a named tool on the server and returns its event stream. The
// channel yields decoded StreamEvents and closes when the server ends the
// stream. Malformed frames are dropped with a warning. A transport failure —
// before or during the stream — surfaces as a single error event; there is
// no reconnect, the caller retries the whole invocation if desired.
func (c *Client) Invoke(ctx context.Context, toolName string, params map[string]any) <-chan event.StreamEvent {
	out := make(chan event.StreamEvent, 16)

	go func() {
		defer close(out)

		body, err := json.Marshal(runRequest{ToolName: toolName, Params: params})
		if err != nil {
			out <- event.Errorf("encoding invocation request: %v", err)
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/mcp/run", bytes.NewReader(body))
		if err != nil {
			out <- event.Errorf("building invocation request: %v", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Error("invocation request failed", "tool", toolName, "error", err)
			out <- event.Errorf("failed to connect to server: %v", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			out <- event.Errorf("server rejected invocation of %q: status %d: %s",
				toolName, resp.StatusCode, strings.TrimSpace(string(msg)))
			return
		}

		c.decodeEventStream(resp.Body, toolName, out)
	}()

	return out
}

// decodeEventStream reads SSE frames from the response body and emits each
// decoded StreamEvent. Only "data:" lines carry payloads; comments, event
// names, and blank separators are skipped.
func (c *Client) decodeEventStream(body io.Reader, toolName string, out chan<- event.StreamEvent) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), maxFrameBytes)

	for scanner.Scan() {
		line := scanner.Text()
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "" {
			continue
		}

		var ev event.StreamEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			c.logger.Warn("dropping malformed event frame",
				"tool", toolName, "frame", data, "error", err)
			continue
		}
		out <- ev
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		c.logger.Error("event stream broke mid-invocation", "tool", toolName, "error", err)
		out <- event.Errorf("connection lost during %q: %v", toolName, err)
	}
}
