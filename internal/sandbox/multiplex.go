// ABOUTME: Concurrent drain of a subprocess's stdout and stderr into one event stream
// ABOUTME: Line-oriented, UTF-8 with Windows-1252 fallback, exit_code always last

package sandbox

import (
	"bufio"
	"io"
	"log/slog"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/event"
)

const (
	// maxLineBytes bounds a single output line. Longer lines are split by
	// the scanner's buffer limit and surface as a read error event.
	maxLineBytes = 1 << 20

	// drainBufferSize is the event channel buffer. Producers block once the
	// consumer falls this far behind, which bounds memory for chatty tools.
	drainBufferSize = 64
)

// Drain consumes the process's stdout and stderr concurrently and returns a
// channel of events. The channel yields stdout/stderr events as lines arrive
// (interleaving between the two streams is unspecified), then exactly one
// exit_code event, then closes.
//
// Reading both pipes at once is required: draining stdout to completion
// before touching stderr deadlocks as soon as the process fills the unread
// stderr pipe buffer.
func Drain(proc *Process, logger *slog.Logger) <-chan event.StreamEvent {
	return DrainStreams(proc.Stdout(), proc.Stderr(), proc.Wait, logger)
}

// DrainStreams is Drain over raw readers and an exit-status function. The
// wait function is called only after both readers hit EOF, so its result is
// always the final event.
func DrainStreams(stdout, stderr io.Reader, wait func() int, logger *slog.Logger) <-chan event.StreamEvent {
	if logger == nil {
		logger = slog.Default()
	}
	out := make(chan event.StreamEvent, drainBufferSize)

	go func() {
		defer close(out)

		var wg sync.WaitGroup
		wg.Add(2)
		go drainStream(stdout, event.TypeStdout, out, logger, &wg)
		go drainStream(stderr, event.TypeStderr, out, logger, &wg)
		wg.Wait()

		out <- event.ExitCode(wait())
	}()

	return out
}

// drainStream reads one pipe line by line until EOF, emitting an event per
// line. A read failure is reported as a single error event for that stream;
// the other stream keeps draining. After a failure the rest of this pipe is
// still consumed and discarded: leaving it unread would let the process
// block on a full pipe buffer and the invocation would never reach its
// exit_code.
func drainStream(r io.Reader, typ event.Type, out chan<- event.StreamEvent, logger *slog.Logger, wg *sync.WaitGroup) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		out <- event.StreamEvent{Type: typ, Content: decodeLine(scanner.Bytes())}
	}

	if err := scanner.Err(); err != nil {
		logger.Warn("stream read failed", "stream", string(typ), "error", err)
		out <- event.Errorf("reading %s: %v", typ, err)
		if _, err := io.Copy(io.Discard, r); err != nil {
			logger.Warn("discarding remainder of stream failed", "stream", string(typ), "error", err)
		}
	}
}

// decodeLine interprets a raw output line as UTF-8, falling back to
// Windows-1252 for tools that emit legacy single-byte encodings. The
// fallback cannot fail: every byte maps to some rune, so no line is ever
// dropped here.
func decodeLine(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		// Windows-1252 decodes any byte sequence; this path is unreachable
		// in practice but kept so a decoder change cannot panic the drain.
		return string(raw)
	}
	return string(decoded)
}
