// ABOUTME: Namespaced tool catalog built by discovering configured tool servers
// ABOUTME: Two-phase: single-writer discovery, then immutable read-only routing

package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/config"
	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/event"
	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/protocol"
)

// RegisteredTool is a discovered tool plus its owning server. The unique
// name "server/tool" is the registry key; it cannot collide because server
// names are required to be unique in configuration.
type RegisteredTool struct {
	protocol.ToolDescriptor
	ServerName string
	UniqueName string
}

// ToolClient is the slice of protocol.Client the registry depends on.
// Defined here so tests can stub servers without a network.
type ToolClient interface {
	FetchCapabilities(ctx context.Context) (*protocol.ServerInfo, error)
	Invoke(ctx context.Context, toolName string, params map[string]any) <-chan event.StreamEvent
}

// ClientFactory builds a client for a server URL. Production passes
// NewProtocolClient; tests substitute stubs.
type ClientFactory func(url string) ToolClient

// NewProtocolClient is the default ClientFactory.
func NewProtocolClient(logger *slog.Logger) ClientFactory {
	return func(url string) ToolClient {
		return protocol.NewClient(url, logger)
	}
}

// Registry maps unique tool names to their descriptors and owning clients.
// It has two phases: Discover populates it exactly once (single writer),
// after which it is read-only and safe for concurrent use without locking.
type Registry struct {
	servers    []config.ToolServer
	newClient  ClientFactory
	logger     *slog.Logger
	discovered bool

	clients map[string]ToolClient
	tools   map[string]RegisteredTool
}

// New creates a registry over the configured servers. Call Discover before
// routing any invocations.
func New(servers []config.ToolServer, factory ClientFactory, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		servers:   servers,
		newClient: factory,
		logger:    logger.With("component", "registry"),
		clients:   make(map[string]ToolClient),
		tools:     make(map[string]RegisteredTool),
	}
}

// Discover contacts every enabled server and registers its tools under
// namespaced unique names. Disabled servers are skipped without any network
// contact. A server that is unreachable or returns a bad capability list is
// logged and left out of the catalog; it never aborts discovery of the rest.
// Discover must be called exactly once, before any Run.
func (r *Registry) Discover(ctx context.Context) error {
	if r.discovered {
		return fmt.Errorf("registry: discovery already completed")
	}
	r.discovered = true

	for _, server := range r.servers {
		if !server.Enabled {
			r.logger.Info("skipping disabled server", "server", server.Name)
			continue
		}

		client := r.newClient(server.URL)
		info, err := client.FetchCapabilities(ctx)
		if err != nil {
			r.logger.Error("discovery failed, skipping server",
				"server", server.Name, "url", server.URL, "error", err)
			continue
		}

		r.clients[server.Name] = client
		for _, tool := range info.Tools {
			unique := server.Name + "/" + tool.Name
			r.tools[unique] = RegisteredTool{
				ToolDescriptor: tool,
				ServerName:     server.Name,
				UniqueName:     unique,
			}
			r.logger.Info("registered tool", "tool", unique)
		}
	}

	r.logger.Info("tool discovery complete", "tools", len(r.tools))
	return nil
}

// Tools returns the catalog sorted by unique name. The returned slice is a
// copy; the registry itself is never mutated after discovery.
func (r *Registry) Tools() []RegisteredTool {
	tools := make([]RegisteredTool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].UniqueName < tools[j].UniqueName })
	return tools
}

// Lookup returns the registered tool for a unique name.
func (r *Registry) Lookup(uniqueName string) (RegisteredTool, bool) {
	t, ok := r.tools[uniqueName]
	return t, ok
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.tools) }

// Run invokes a tool by unique name. An unknown name or a params value that
// violates the tool's input schema yields a single error event — the
// invocation is already modeled as an event stream, so failures ride the
// same channel instead of becoming Go errors. Otherwise the call delegates
// to the owning server's client.
func (r *Registry) Run(ctx context.Context, uniqueName string, params map[string]any) <-chan event.StreamEvent {
	tool, ok := r.tools[uniqueName]
	if !ok {
		r.logger.Error("unknown tool requested", "tool", uniqueName)
		return singleError("tool %q not found", uniqueName)
	}

	if err := validateParams(tool.InputSchema, params); err != nil {
		r.logger.Warn("invocation rejected by schema",
			"tool", uniqueName, "error", err)
		return singleError("invalid params for %q: %v", uniqueName, err)
	}

	client := r.clients[tool.ServerName]
	return client.Invoke(ctx, tool.Name, params)
}

// validateParams checks params against the tool's JSON schema. An absent or
// empty schema accepts anything.
func validateParams(schema json.RawMessage, params map[string]any) error {
	if len(schema) == 0 {
		return nil
	}
	if params == nil {
		params = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewGoLoader(params),
	)
	if err != nil {
		// The schema itself is unusable; the tool server published it, so
		// treat the params as acceptable rather than blocking the tool.
		return nil
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

// singleError returns a closed one-event stream carrying an error.
func singleError(format string, args ...any) <-chan event.StreamEvent {
	out := make(chan event.StreamEvent, 1)
	out <- event.Errorf(format, args...)
	close(out)
	return out
}
