// ABOUTME: Tests for tool discovery and invocation routing
// ABOUTME: Uses stub clients to observe contact patterns without a network

package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/config"
	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/event"
	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/protocol"
)

// stubClient is a ToolClient with canned capabilities and scripted events.
type stubClient struct {
	info       *protocol.ServerInfo
	infoErr    error
	fetchCalls atomic.Int32
	invoked    []string
	events     []event.StreamEvent
}

func (s *stubClient) FetchCapabilities(_ context.Context) (*protocol.ServerInfo, error) {
	s.fetchCalls.Add(1)
	return s.info, s.infoErr
}

func (s *stubClient) Invoke(_ context.Context, toolName string, _ map[string]any) <-chan event.StreamEvent {
	s.invoked = append(s.invoked, toolName)
	out := make(chan event.StreamEvent, len(s.events))
	for _, ev := range s.events {
		out <- ev
	}
	close(out)
	return out
}

func descriptor(name string, schema string) protocol.ToolDescriptor {
	return protocol.ToolDescriptor{
		Name:        name,
		Description: "test tool " + name,
		InputSchema: json.RawMessage(schema),
	}
}

func stubFactory(clients map[string]*stubClient, calls *atomic.Int32) ClientFactory {
	return func(url string) ToolClient {
		if calls != nil {
			calls.Add(1)
		}
		return clients[url]
	}
}

func drainAll(t *testing.T, ch <-chan event.StreamEvent) []event.StreamEvent {
	t.Helper()
	var events []event.StreamEvent
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-deadline:
			t.Fatal("stream did not close")
		}
	}
}

func TestDiscover_RegistersAllToolsUnderUniqueNames(t *testing.T) {
	clients := map[string]*stubClient{
		"http://a": {info: &protocol.ServerInfo{Name: "Alpha", Tools: []protocol.ToolDescriptor{
			descriptor("ping", `{}`), descriptor("trace", `{}`),
		}}},
		"http://b": {info: &protocol.ServerInfo{Name: "Beta", Tools: []protocol.ToolDescriptor{
			descriptor("lookup", `{}`),
		}}},
	}
	servers := []config.ToolServer{
		{Name: "alpha", URL: "http://a", Enabled: true},
		{Name: "beta", URL: "http://b", Enabled: true},
	}

	r := New(servers, stubFactory(clients, nil), nil)
	require.NoError(t, r.Discover(t.Context()))

	assert.Equal(t, 3, r.Len())

	names := make([]string, 0, 3)
	for _, tool := range r.Tools() {
		names = append(names, tool.UniqueName)
	}
	assert.Equal(t, []string{"alpha/ping", "alpha/trace", "beta/lookup"}, names)

	tool, ok := r.Lookup("alpha/ping")
	require.True(t, ok)
	assert.Equal(t, "alpha", tool.ServerName)
	assert.Equal(t, "ping", tool.Name)
}

func TestDiscover_DisabledServersAreNeverContacted(t *testing.T) {
	var factoryCalls atomic.Int32
	clients := map[string]*stubClient{
		"http://a": {info: &protocol.ServerInfo{Name: "Alpha", Tools: []protocol.ToolDescriptor{
			descriptor("ping", `{}`),
		}}},
	}
	servers := []config.ToolServer{
		{Name: "alpha", URL: "http://a", Enabled: true},
		{Name: "beta", URL: "http://b", Enabled: false},
	}

	r := New(servers, stubFactory(clients, &factoryCalls), nil)
	require.NoError(t, r.Discover(t.Context()))

	assert.Equal(t, int32(1), factoryCalls.Load(), "only the enabled server should get a client")
	assert.Equal(t, 1, r.Len())
	_, ok := r.Lookup("beta/anything")
	assert.False(t, ok)
}

func TestDiscover_FailingServerIsSkippedNotFatal(t *testing.T) {
	clients := map[string]*stubClient{
		"http://a": {infoErr: fmt.Errorf("connection refused")},
		"http://b": {info: &protocol.ServerInfo{Name: "Beta", Tools: []protocol.ToolDescriptor{
			descriptor("lookup", `{}`),
		}}},
	}
	servers := []config.ToolServer{
		{Name: "alpha", URL: "http://a", Enabled: true},
		{Name: "beta", URL: "http://b", Enabled: true},
	}

	r := New(servers, stubFactory(clients, nil), nil)
	require.NoError(t, r.Discover(t.Context()))

	assert.Equal(t, 1, r.Len())
	_, ok := r.Lookup("beta/lookup")
	assert.True(t, ok)
}

func TestDiscover_SecondCallIsRejected(t *testing.T) {
	r := New(nil, stubFactory(nil, nil), nil)
	require.NoError(t, r.Discover(t.Context()))
	assert.Error(t, r.Discover(t.Context()))
}

func TestRun_UnknownToolYieldsErrorEventAndTouchesNothing(t *testing.T) {
	alpha := &stubClient{info: &protocol.ServerInfo{Name: "Alpha", Tools: []protocol.ToolDescriptor{
		descriptor("ping", `{}`),
	}}}
	r := New(
		[]config.ToolServer{{Name: "alpha", URL: "http://a", Enabled: true}},
		stubFactory(map[string]*stubClient{"http://a": alpha}, nil),
		nil,
	)
	require.NoError(t, r.Discover(t.Context()))

	before := r.Len()
	events := drainAll(t, r.Run(t.Context(), "alpha/flood", nil))

	require.Len(t, events, 1)
	assert.Equal(t, event.TypeError, events[0].Type)
	assert.Contains(t, events[0].Content, "alpha/flood")
	assert.Empty(t, alpha.invoked, "no client invocation for an unknown tool")
	assert.Equal(t, before, r.Len(), "registry must be unchanged")
}

func TestRun_DelegatesToOwningClient(t *testing.T) {
	alpha := &stubClient{
		info: &protocol.ServerInfo{Name: "Alpha", Tools: []protocol.ToolDescriptor{
			descriptor("ping", `{}`),
		}},
		events: []event.StreamEvent{event.Stdout("pong"), event.ExitCode(0)},
	}
	r := New(
		[]config.ToolServer{{Name: "alpha", URL: "http://a", Enabled: true}},
		stubFactory(map[string]*stubClient{"http://a": alpha}, nil),
		nil,
	)
	require.NoError(t, r.Discover(t.Context()))

	events := drainAll(t, r.Run(t.Context(), "alpha/ping", map[string]any{}))

	assert.Equal(t, []string{"ping"}, alpha.invoked, "client is called with the bare tool name")
	require.Len(t, events, 2)
	assert.Equal(t, event.Stdout("pong"), events[0])
	assert.Equal(t, event.ExitCode(0), events[1])
}

func TestRun_SchemaViolationYieldsErrorEvent(t *testing.T) {
	schema := `{
		"type": "object",
		"properties": {"command": {"type": "string"}},
		"required": ["command"]
	}`
	alpha := &stubClient{info: &protocol.ServerInfo{Name: "Alpha", Tools: []protocol.ToolDescriptor{
		descriptor("execute_command", schema),
	}}}
	r := New(
		[]config.ToolServer{{Name: "alpha", URL: "http://a", Enabled: true}},
		stubFactory(map[string]*stubClient{"http://a": alpha}, nil),
		nil,
	)
	require.NoError(t, r.Discover(t.Context()))

	// Missing required field.
	events := drainAll(t, r.Run(t.Context(), "alpha/execute_command", map[string]any{}))
	require.Len(t, events, 1)
	assert.Equal(t, event.TypeError, events[0].Type)
	assert.Empty(t, alpha.invoked)

	// Wrong type.
	events = drainAll(t, r.Run(t.Context(), "alpha/execute_command", map[string]any{"command": 42}))
	require.Len(t, events, 1)
	assert.Equal(t, event.TypeError, events[0].Type)
	assert.Empty(t, alpha.invoked)

	// Valid params go through.
	events = drainAll(t, r.Run(t.Context(), "alpha/execute_command", map[string]any{"command": "ls"}))
	assert.Equal(t, []string{"execute_command"}, alpha.invoked)
	assert.Empty(t, events)
}

func TestRun_EmptySchemaAcceptsAnything(t *testing.T) {
	alpha := &stubClient{info: &protocol.ServerInfo{Name: "Alpha", Tools: []protocol.ToolDescriptor{
		{Name: "ping", Description: "no schema"},
	}}}
	r := New(
		[]config.ToolServer{{Name: "alpha", URL: "http://a", Enabled: true}},
		stubFactory(map[string]*stubClient{"http://a": alpha}, nil),
		nil,
	)
	require.NoError(t, r.Discover(t.Context()))

	drainAll(t, r.Run(t.Context(), "alpha/ping", map[string]any{"whatever": true}))
	assert.Equal(t, []string{"ping"}, alpha.invoked)
}
