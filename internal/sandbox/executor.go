// ABOUTME: Allow-list enforced subprocess execution for tool servers
// ABOUTME: Spawns commands with independently readable stdout/stderr pipes

package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
)

// ErrCommandNotAllowed is returned when a command's executable is not on the
// allow-list. The check happens before any process is spawned.
var ErrCommandNotAllowed = errors.New("sandbox: command not allowed")

// allowedCommands is the fixed set of executables a tool server may run.
// It is read-only for the lifetime of the process; changing it requires a
// restart. Arguments are not validated, only the executable token — this is
// a command-name restriction, not a full argument sandbox.
var allowedCommands = map[string]struct{}{
	"ls":     {},
	"dir":    {},
	"pwd":    {},
	"echo":   {},
	"cat":    {},
	"date":   {},
	"whoami": {},
	"git":    {},
	"docker": {},
}

// CommandAllowed reports whether the executable is on the allow-list.
func CommandAllowed(executable string) bool {
	_, ok := allowedCommands[executable]
	return ok
}

// Command is one subprocess invocation. It is constructed per run and never
// persisted.
type Command struct {
	Executable string
	Args       []string
}

// Process is a running subprocess started by the Executor. Stdout and Stderr
// are independent pipes; both must be drained concurrently or the process can
// block on a full pipe buffer.
type Process struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser
}

// Stdout returns the process's standard output pipe.
func (p *Process) Stdout() io.Reader { return p.stdout }

// Stderr returns the process's standard error pipe.
func (p *Process) Stderr() io.Reader { return p.stderr }

// Wait blocks until the process exits and returns its exit code. A process
// that terminated abnormally (killed, start raced with context cancellation)
// reports -1.
func (p *Process) Wait() int {
	err := p.cmd.Wait()
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// Executor validates commands against the allow-list and spawns them.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates an Executor. Pass nil for the default logger.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{logger: logger.With("component", "sandbox")}
}

// Start validates the command and spawns it as a subprocess with captured
// stdout and stderr. It returns ErrCommandNotAllowed (wrapping the command
// name) without spawning anything if the executable is not allow-listed.
// The call returns as soon as the process has started; its lifetime is
// managed through the returned Process.
func (e *Executor) Start(ctx context.Context, command Command) (*Process, error) {
	if command.Executable == "" {
		return nil, fmt.Errorf("%w: empty executable", ErrCommandNotAllowed)
	}
	if !CommandAllowed(command.Executable) {
		return nil, fmt.Errorf("%w: %q", ErrCommandNotAllowed, command.Executable)
	}

	cmd := exec.CommandContext(ctx, command.Executable, command.Args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("opening stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("opening stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %q: %w", command.Executable, err)
	}

	e.logger.Debug("process started",
		"executable", command.Executable,
		"args", command.Args,
		"pid", cmd.Process.Pid,
	)

	return &Process{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}
