// Package toolserver implements the server side of the tool protocol: an
// HTTP server hosting one toolset, advertising it on GET /mcp/info and
// executing it over POST /mcp/run as a Server-Sent Events stream.
//
// # Toolsets
//
// Four toolsets ship with the repo:
//
//   - terminal: execute_command — runs an allow-listed command and streams
//     output line by line as the process produces it
//   - git: git_status, git_clone, git_add, git_commit — buffered runs of
//     the git CLI
//   - docker: docker_ps, docker_build, docker_run — buffered runs of the
//     docker CLI
//   - file: read_file, write_file — workspace-confined file access with no
//     subprocess at all
//
// A tool server binary hosts exactly one toolset; the orchestrator's
// registry composes several servers into one catalog.
//
// # Failure shape
//
// Nothing a client sends can crash a run. Unknown tools, bad params, and
// sandbox refusals all surface as error events on the stream; a refused
// command additionally reports exit code 126. The HTTP status is already
// 200 by the time execution starts, so the stream is the only error
// channel — callers must watch for error events, not status codes.
package toolserver
