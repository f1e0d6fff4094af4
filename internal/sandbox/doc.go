// Package sandbox runs allow-listed commands and multiplexes their output.
//
// # Overview
//
// The sandbox is the security boundary of a tool server. Every subprocess a
// tool runs goes through two pieces:
//
//   - Executor: checks the executable against a fixed allow-list and spawns
//     the process with captured stdout/stderr pipes
//   - Drain: concurrently reads both pipes into a single ordered channel of
//     StreamEvents terminated by one exit_code event
//
// # Allow-list
//
// The allow-list is a membership test on the executable token only:
//
//	ls, dir, pwd, echo, cat, date, whoami, git, docker
//
// Arguments are not pattern-validated. This restricts which programs can run,
// not what they do; stronger isolation (containers, VMs) is a deployment
// concern outside this package. The list is fixed at compile time — changing
// it requires a new binary.
//
// # Draining
//
// Drain reads stdout and stderr on separate goroutines. This is not an
// optimization: reading one pipe to completion before opening the other
// deadlocks whenever the process fills the unread pipe's kernel buffer.
// Interleaving between the two streams is therefore unspecified; order
// within one stream is preserved.
//
// Lines are decoded as UTF-8 with a Windows-1252 fallback for tools that
// emit legacy encodings. A read failure on one stream becomes an error event
// and the other stream keeps draining — partial failure is visible, not
// fatal.
//
// # Usage
//
//	exec := sandbox.NewExecutor(logger)
//	proc, err := exec.Start(ctx, sandbox.Command{Executable: "git", Args: []string{"status"}})
//	if err != nil { ... }
//	for ev := range sandbox.Drain(proc, logger) {
//	    // stdout/stderr events, then one exit_code event
//	}
package sandbox
