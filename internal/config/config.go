// ABOUTME: Configuration loading and parsing for the orchestrator and tool servers
// ABOUTME: YAML files with environment variable expansion and startup validation

package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete orchestrator configuration.
type Config struct {
	Server      ServerConfig    `yaml:"server"`
	Database    DatabaseConfig  `yaml:"database"`
	Logging     LoggingConfig   `yaml:"logging"`
	Anthropic   AnthropicConfig `yaml:"anthropic"`
	ToolServers []ToolServer    `yaml:"tool_servers"`
}

// ServerConfig holds the orchestrator's own listen address.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds conversation store configuration.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// AnthropicConfig holds settings for the decision model. The API key is read
// from the ANTHROPIC_API_KEY environment variable by the SDK, never from the
// config file.
type AnthropicConfig struct {
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
	MaxTurns  int    `yaml:"max_turns"`
}

// ToolServer is one entry in the tool server list. The list is the source of
// truth for which servers participate in discovery; it is read once at
// startup and static for the process lifetime.
type ToolServer struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// Defaults applied when the config file omits a value.
const (
	DefaultHTTPAddr  = "0.0.0.0:8000"
	DefaultModel     = "claude-sonnet-4-5"
	DefaultMaxTokens = 4096
	DefaultMaxTurns  = 20
)

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded. A
// malformed file or an invalid server list is fatal: the caller should abort
// startup.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults fills unset fields with their defaults.
func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = DefaultHTTPAddr
	}
	if c.Anthropic.Model == "" {
		c.Anthropic.Model = DefaultModel
	}
	if c.Anthropic.MaxTokens == 0 {
		c.Anthropic.MaxTokens = DefaultMaxTokens
	}
	if c.Anthropic.MaxTurns == 0 {
		c.Anthropic.MaxTurns = DefaultMaxTurns
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks that the configuration is usable. Server names must be
// unique and must not contain "/" or "__": tool unique names are
// "server/tool" and are flattened to "server__tool" on the model wire, so
// either sequence inside a server name would make distinct tools alias each
// other.
func (c *Config) Validate() error {
	seen := make(map[string]struct{}, len(c.ToolServers))
	for i, server := range c.ToolServers {
		if server.Name == "" {
			return fmt.Errorf("tool_servers[%d]: name is required", i)
		}
		if strings.Contains(server.Name, "/") || strings.Contains(server.Name, "__") {
			return fmt.Errorf("tool_servers[%d]: name %q must not contain %q or %q", i, server.Name, "/", "__")
		}
		if _, dup := seen[server.Name]; dup {
			return fmt.Errorf("tool_servers: duplicate server name %q", server.Name)
		}
		seen[server.Name] = struct{}{}

		if !server.Enabled {
			continue
		}
		if server.URL == "" {
			return fmt.Errorf("tool_servers[%q]: url is required for enabled servers", server.Name)
		}
		if _, err := url.ParseRequestURI(server.URL); err != nil {
			return fmt.Errorf("tool_servers[%q]: invalid url: %w", server.Name, err)
		}
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	return nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. An unset variable expands to an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
