// Package config handles configuration loading for the orchestrator.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable
// expansion. The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	tool_servers:
//	  - name: "terminal"
//	    url: "${TERMINAL_SERVER_URL}"
//	    enabled: true
//
// Syntax: ${VAR_NAME}. Unset variables expand to the empty string.
//
// # Configuration Sections
//
// Orchestrator listen address:
//
//	server:
//	  http_addr: "0.0.0.0:8000"
//
// Conversation store:
//
//	database:
//	  path: "/var/lib/orchestrator/threads.db"
//
// Decision model (the API key comes from ANTHROPIC_API_KEY, never the file):
//
//	anthropic:
//	  model: "claude-sonnet-4-5"
//	  max_tokens: 4096
//	  max_turns: 20
//
// Tool server list — the source of truth for discovery, read once at
// startup:
//
//	tool_servers:
//	  - name: "terminal"
//	    url: "http://127.0.0.1:8001"
//	    enabled: true
//	  - name: "docker"
//	    url: "http://127.0.0.1:8002"
//	    enabled: false
//
// # Validation
//
// Load() rejects duplicate server names (tool unique names depend on them),
// enabled servers without a parseable URL, and a missing database path.
// Validation failures are fatal: startup aborts.
package config
