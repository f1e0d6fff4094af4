// Package protocol implements the client side of the tool-server protocol.
//
// # Overview
//
// A Client encapsulates one remote tool server as two operations:
//
//   - FetchCapabilities: GET /mcp/info, returning the server's name and its
//     list of ToolDescriptors
//   - Invoke: POST /mcp/run with {"tool_name": ..., "params": ...}, consuming
//     the server's Server-Sent Events response as a channel of StreamEvents
//
// The event wire shape is identical to what the sandbox drain produces
// locally on the server side, making the client a demultiplexing mirror of
// the remote process's output.
//
// # Failure behavior
//
// Discovery failures return an error; the registry logs them and keeps
// discovering other servers. Invocation failures never raise: a connect
// failure, a non-200 response, or a dropped connection mid-stream all
// surface as a single error event on the returned channel. Malformed SSE
// frames are dropped with a warning rather than killing the stream.
package protocol
