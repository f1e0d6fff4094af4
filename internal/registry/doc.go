// Package registry builds and routes the namespaced tool catalog.
//
// # Overview
//
// The registry turns the configured tool server list into a flat catalog of
// invocable tools. Each discovered tool is keyed by its unique name:
//
//	unique_name = server_name + "/" + tool_name
//
// Collisions are impossible by construction: config validation requires
// server names to be unique, and a server cannot publish the same tool name
// twice under the protocol.
//
// # Phases
//
// The registry is a two-phase state machine:
//
//   - Discovering: Discover() runs exactly once, single-writer. Enabled
//     servers are queried for capabilities; disabled servers are skipped
//     without any network contact; a failing server is logged and omitted.
//   - Ready: the catalog is immutable. Concurrent reads need no locking.
//
// # Invocation
//
// Run() routes a unique name to its owning server's client. Failures are
// events, not errors: an unknown name or a params value that violates the
// tool's published JSON schema yields a one-event stream carrying an error,
// because the caller is already consuming an event stream.
//
// Argument validation uses gojsonschema against the tool's input_schema as
// published at discovery time. An empty schema accepts anything.
package registry
