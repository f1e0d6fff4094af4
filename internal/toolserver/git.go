// ABOUTME: Git toolset: status, clone, add, and commit via the git CLI
// ABOUTME: Buffered runs; git's stderr chatter on success stays informational downstream

package toolserver

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/event"
	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/protocol"
	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/sandbox"
)

// GitToolset wraps the git CLI. Every tool takes a repository path and runs
// `git -C path ...` so the server's own working directory never matters.
type GitToolset struct {
	exec   *sandbox.Executor
	logger *slog.Logger
}

// NewGit creates the git toolset.
func NewGit(logger *slog.Logger) *GitToolset {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("toolset", "git")
	return &GitToolset{
		exec:   sandbox.NewExecutor(logger),
		logger: logger,
	}
}

// Name implements Toolset.
func (g *GitToolset) Name() string { return "git" }

// Tools implements Toolset.
func (g *GitToolset) Tools() []protocol.ToolDescriptor {
	return []protocol.ToolDescriptor{
		{
			Name:        "git_status",
			Description: "Show the working tree status of a repository.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"path": {"type": "string", "description": "Path to the repository"}
				},
				"required": ["path"]
			}`),
		},
		{
			Name:        "git_clone",
			Description: "Clone a repository into the given path.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"repo_url": {"type": "string", "description": "URL of the repository to clone"},
					"path": {"type": "string", "description": "Directory to clone into"}
				},
				"required": ["repo_url", "path"]
			}`),
		},
		{
			Name:        "git_add",
			Description: "Stage files in a repository.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"path": {"type": "string", "description": "Path to the repository"},
					"files": {"type": "array", "items": {"type": "string"}, "description": "Files to stage; defaults to all changes"}
				},
				"required": ["path"]
			}`),
		},
		{
			Name:        "git_commit",
			Description: "Commit staged changes with a message.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"path": {"type": "string", "description": "Path to the repository"},
					"message": {"type": "string", "description": "Commit message"}
				},
				"required": ["path", "message"]
			}`),
		},
	}
}

// Run implements Toolset.
func (g *GitToolset) Run(ctx context.Context, tool string, params map[string]any) <-chan event.StreamEvent {
	args, err := g.buildArgs(tool, params)
	if err != nil {
		return singleError("%s", err.Error())
	}

	cmd := sandbox.Command{Executable: "git", Args: args}
	g.logger.Info("running git", "tool", tool, "args", args)
	return runBuffered(ctx, g.exec, cmd, g.logger)
}

func (g *GitToolset) buildArgs(tool string, params map[string]any) ([]string, error) {
	switch tool {
	case "git_status":
		path, err := stringParam(params, "path")
		if err != nil {
			return nil, err
		}
		return []string{"-C", path, "status"}, nil

	case "git_clone":
		repoURL, err := stringParam(params, "repo_url")
		if err != nil {
			return nil, err
		}
		path, err := stringParam(params, "path")
		if err != nil {
			return nil, err
		}
		return []string{"clone", repoURL, path}, nil

	case "git_add":
		path, err := stringParam(params, "path")
		if err != nil {
			return nil, err
		}
		files, err := stringSliceParam(params, "files")
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			files = []string{"."}
		}
		return append([]string{"-C", path, "add"}, files...), nil

	case "git_commit":
		path, err := stringParam(params, "path")
		if err != nil {
			return nil, err
		}
		message, err := stringParam(params, "message")
		if err != nil {
			return nil, err
		}
		return []string{"-C", path, "commit", "-m", message}, nil

	default:
		return nil, errUnknownTool(tool, "git")
	}
}
