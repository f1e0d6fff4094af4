// Package api exposes the orchestrator over HTTP.
//
// # Endpoints
//
//   - POST /chat/stream — run one chat turn, streaming loop progress as SSE
//     events: thread, assistant, tool_result, final, error
//   - GET /threads — recently updated threads
//   - GET /threads/{id}/messages — a thread's persisted history
//   - GET /tools — the discovered tool catalog
//   - GET /health — liveness
//
// # Persistence posture
//
// The store is an audit trail, not a dependency of the conversation. User
// messages, assistant output, tool results, and invocation records are all
// written as the turn progresses, but a failed write is logged and the turn
// carries on. Only thread resolution at the start of a request treats store
// errors as fatal, since without a thread there is nothing to append to.
package api
