// ABOUTME: Entry point for the orchestrator server and CLI
// ABOUTME: Discovers tool servers, runs the decision loop, serves the chat API

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/agent"
	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/api"
	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/config"
	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/registry"
	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                _               _             _
  ___  _ __ ___| |__   ___  ___| |_ _ __ __ _| |_ ___  _ __
 / _ \| '__/ __| '_ \ / _ \/ __| __| '__/ _' | __/ _ \| '__|
| (_) | | | (__| | | |  __/\__ \ |_| | | (_| | || (_) | |
 \___/|_|  \___|_| |_|\___||___/\__|_|  \__,_|\__\___/|_|
`

// getConfigPath returns the path to the orchestrator config file.
// Priority: ORCHESTRATOR_CONFIG env var > XDG_CONFIG_HOME/orchestrator/orchestrator.yaml > ~/.config/orchestrator/orchestrator.yaml
func getConfigPath() string {
	if envPath := os.Getenv("ORCHESTRATOR_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "orchestrator.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "orchestrator", "orchestrator.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: orchestrator <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve              Start the orchestrator server")
		fmt.Println("  ask QUESTION       Run one question through the decision loop")
		fmt.Println("  tools              Discover and list available tools")
		fmt.Println("  health             Check orchestrator health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "ask":
		err = runAsk(ctx)
	case "tools":
		err = runTools(ctx)
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("Model:     %s\n", cfg.Anthropic.Model)
	fmt.Println()

	logger.Info("starting orchestrator",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"tool_servers", len(cfg.ToolServers),
	)

	sqlStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer sqlStore.Close()

	reg, err := discoverTools(ctx, cfg, logger)
	if err != nil {
		return err
	}

	decider := agent.NewAnthropicDecider(cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
	apiServer, err := api.NewServer(api.Config{
		Store:    sqlStore,
		Runner:   reg,
		Decide:   decider.DecideFunc(),
		MaxTurns: cfg.Anthropic.MaxTurns,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("HTTP server: %w", err)
	}
}

// discoverTools builds the registry from configured tool servers and runs
// discovery once.
func discoverTools(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*registry.Registry, error) {
	reg := registry.New(cfg.ToolServers, registry.NewProtocolClient(logger), logger)
	if err := reg.Discover(ctx); err != nil {
		return nil, fmt.Errorf("discovering tools: %w", err)
	}
	logger.Info("tool discovery complete", "tools", reg.Len())
	return reg, nil
}

func runAsk(ctx context.Context) error {
	if len(os.Args) < 3 {
		return errors.New("usage: orchestrator ask QUESTION")
	}
	question := strings.Join(os.Args[2:], " ")

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := setupLogger(cfg.Logging)

	reg, err := discoverTools(ctx, cfg, logger)
	if err != nil {
		return err
	}

	decider := agent.NewAnthropicDecider(cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
	loop, err := agent.NewLoop(agent.Config{
		Decide:   decider.DecideFunc(),
		Runner:   reg,
		Sink:     &cliSink{},
		Logger:   logger,
		MaxTurns: cfg.Anthropic.MaxTurns,
	})
	if err != nil {
		return fmt.Errorf("creating loop: %w", err)
	}

	answer, err := loop.Run(ctx, agent.NewState(agent.UserMessage(question)))
	if err != nil {
		return err
	}

	fmt.Println()
	color.New(color.FgGreen, color.Bold).Println(answer)
	return nil
}

// cliSink prints loop progress to the terminal as it happens.
type cliSink struct{}

func (cliSink) OnAssistant(content string, calls []agent.ToolCall) {
	if content != "" {
		fmt.Println(content)
	}
	for _, call := range calls {
		color.New(color.FgCyan).Printf("→ %s", call.UniqueName)
		color.New(color.FgHiBlack).Printf(" %v\n", call.Arguments)
	}
}

func (cliSink) OnToolResult(call agent.ToolCall, result string) {
	color.New(color.FgHiBlack).Printf("← %s\n", indent(result, "  "))
}

func (cliSink) OnFinal(string) {}

func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}

func runTools(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := setupLogger(cfg.Logging)

	reg, err := discoverTools(ctx, cfg, logger)
	if err != nil {
		return err
	}

	tools := reg.Tools()
	if len(tools) == 0 {
		fmt.Println("No tools available")
		return nil
	}

	for _, tool := range tools {
		color.New(color.FgCyan, color.Bold).Printf("%s\n", tool.UniqueName)
		if tool.Description != "" {
			fmt.Printf("  %s\n", tool.Description)
		}
	}
	return nil
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}
