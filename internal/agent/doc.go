// Package agent drives the decision loop over the tool registry.
//
// # Overview
//
// A Loop alternates between two states until it reaches a terminal answer:
//
//   - Deciding: the decision function receives the conversation state and
//     the full tool catalog and returns either a final answer or one or
//     more tool-call requests
//   - Executing: each requested call is dispatched through the registry,
//     its event stream fully drained, and the result folded into a single
//     tool message appended to the state
//
// # Decision function boundary
//
// DecideFunc is where a reasoning engine plugs in. The loop treats it as
// opaque; the repo ships AnthropicDecider as the production implementation,
// and tests substitute scripted functions. A decision carrying neither text
// nor tool calls violates the contract and fails the turn with
// ErrProtocolViolation — the loop never retries it silently.
//
// # Result folding
//
// FoldEvents collapses a drained event stream into one message:
//
//	Tool Output (stdout): ...
//	Tool Info (stderr): ...       (zero exit — informational)
//	Tool Error (stderr): ...      (nonzero exit)
//	Tool Error: ...               (error events)
//	Command failed with exit code N.
//
// A run with no output at all is reported explicitly rather than as an
// empty message.
//
// # State ownership
//
// A State belongs to exactly one Loop for the duration of a turn. It is
// append-only; callers may read or persist it after Run returns.
package agent
