// Package event defines the stream event type shared by every invocation path.
//
// # Overview
//
// One tool invocation, whether it runs a local subprocess or crosses the
// network to a remote tool server, produces a single ordered sequence of
// StreamEvents:
//
//   - stdout: one line of standard output
//   - stderr: one line of standard error
//   - error: a failure inside the run or the transport
//   - exit_code: the process exit status, always last on a completed run
//
// # Ordering
//
// Order within one origin stream (stdout, or stderr) is FIFO. Interleaving
// between stdout and stderr is not deterministic and must not be relied on.
// Exactly one exit_code event is emitted per completed run, and it is the
// final event. An error event with no following exit_code means the run
// never completed (for example, the connection to the tool server dropped).
//
// # Wire form
//
// Events serialize to the JSON shape used on the tool-server protocol:
//
//	{"type": "stdout", "content": "hello"}
//	{"type": "exit_code", "content": 0}
//
// The content field is a string for output and error events and a bare
// integer for exit_code.
package event
