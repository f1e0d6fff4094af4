// ABOUTME: Docker toolset: ps, build, and run via the docker CLI
// ABOUTME: Buffered runs; docker_run always detaches cleanup with --rm

package toolserver

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/event"
	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/protocol"
	"github.com/Mohamedbadawyy12/llm-mcp-orchestrator/internal/sandbox"
)

// DockerToolset wraps the docker CLI.
type DockerToolset struct {
	exec   *sandbox.Executor
	logger *slog.Logger
}

// NewDocker creates the docker toolset.
func NewDocker(logger *slog.Logger) *DockerToolset {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("toolset", "docker")
	return &DockerToolset{
		exec:   sandbox.NewExecutor(logger),
		logger: logger,
	}
}

// Name implements Toolset.
func (d *DockerToolset) Name() string { return "docker" }

// Tools implements Toolset.
func (d *DockerToolset) Tools() []protocol.ToolDescriptor {
	return []protocol.ToolDescriptor{
		{
			Name:        "docker_ps",
			Description: "List running containers.",
			InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
		},
		{
			Name:        "docker_build",
			Description: "Build an image from a directory containing a Dockerfile.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"path": {"type": "string", "description": "Build context directory"},
					"tag": {"type": "string", "description": "Tag for the built image"}
				},
				"required": ["path", "tag"]
			}`),
		},
		{
			Name:        "docker_run",
			Description: "Run a container from an image and wait for it to exit.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"image_tag": {"type": "string", "description": "Image to run"}
				},
				"required": ["image_tag"]
			}`),
		},
	}
}

// Run implements Toolset.
func (d *DockerToolset) Run(ctx context.Context, tool string, params map[string]any) <-chan event.StreamEvent {
	args, err := d.buildArgs(tool, params)
	if err != nil {
		return singleError("%s", err.Error())
	}

	cmd := sandbox.Command{Executable: "docker", Args: args}
	d.logger.Info("running docker", "tool", tool, "args", args)
	return runBuffered(ctx, d.exec, cmd, d.logger)
}

func (d *DockerToolset) buildArgs(tool string, params map[string]any) ([]string, error) {
	switch tool {
	case "docker_ps":
		return []string{"ps"}, nil

	case "docker_build":
		path, err := stringParam(params, "path")
		if err != nil {
			return nil, err
		}
		tag, err := stringParam(params, "tag")
		if err != nil {
			return nil, err
		}
		return []string{"build", "-t", tag, path}, nil

	case "docker_run":
		image, err := stringParam(params, "image_tag")
		if err != nil {
			return nil, err
		}
		return []string{"run", "--rm", image}, nil

	default:
		return nil, errUnknownTool(tool, "docker")
	}
}
