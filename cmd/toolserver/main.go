// ABOUTME: Entry point for a tool server hosting one toolset
// ABOUTME: Serves discovery and SSE invocation endpoints over HTTP

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/toolserver"
)

// Version is set by goreleaser at build time.
var version = "dev"

func main() {
	toolset := flag.String("toolset", "terminal", "toolset to host: terminal, git, docker, file")
	addr := flag.String("addr", "0.0.0.0:8100", "address to listen on")
	workspace := flag.String("workspace", ".", "workspace root for the file toolset")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	if err := run(*toolset, *addr, *workspace, *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(toolsetName, addr, workspace, logLevel string) error {
	logger := setupLogger(logLevel)

	var toolset toolserver.Toolset
	switch toolsetName {
	case "terminal":
		toolset = toolserver.NewTerminal(logger)
	case "git":
		toolset = toolserver.NewGit(logger)
	case "docker":
		toolset = toolserver.NewDocker(logger)
	case "file":
		toolset = toolserver.NewFile(workspace, logger)
	default:
		return fmt.Errorf("unknown toolset %q (want terminal, git, docker, or file)", toolsetName)
	}

	color.New(color.FgCyan, color.Bold).Printf("toolserver %s\n", version)
	color.New(color.FgGreen).Print("  ▶ ")
	fmt.Printf("Toolset: %s\n", toolset.Name())
	color.New(color.FgGreen).Print("  ▶ ")
	fmt.Printf("Listen:  %s\n", addr)
	fmt.Println()

	srv := toolserver.NewServer(toolset, logger)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting tool server", "toolset", toolset.Name(), "addr", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("HTTP server: %w", err)
	}
}

func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
