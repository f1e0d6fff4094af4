// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, and server list validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: "0.0.0.0:9000"

database:
  path: "./test.db"

logging:
  level: "debug"
  format: "json"

anthropic:
  model: "claude-sonnet-4-5"
  max_tokens: 2048
  max_turns: 10

tool_servers:
  - name: "terminal"
    url: "http://127.0.0.1:8001"
    enabled: true
  - name: "git"
    url: "http://127.0.0.1:8002"
    enabled: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:9000" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:9000")
	}
	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}
	if cfg.Anthropic.MaxTokens != 2048 {
		t.Errorf("Anthropic.MaxTokens = %d, want 2048", cfg.Anthropic.MaxTokens)
	}
	if len(cfg.ToolServers) != 2 {
		t.Fatalf("len(ToolServers) = %d, want 2", len(cfg.ToolServers))
	}
	if !cfg.ToolServers[0].Enabled || cfg.ToolServers[1].Enabled {
		t.Errorf("enabled flags wrong: %+v", cfg.ToolServers)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "./test.db"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != DefaultHTTPAddr {
		t.Errorf("HTTPAddr default = %q, want %q", cfg.Server.HTTPAddr, DefaultHTTPAddr)
	}
	if cfg.Anthropic.Model != DefaultModel {
		t.Errorf("Model default = %q, want %q", cfg.Anthropic.Model, DefaultModel)
	}
	if cfg.Anthropic.MaxTurns != DefaultMaxTurns {
		t.Errorf("MaxTurns default = %d, want %d", cfg.Anthropic.MaxTurns, DefaultMaxTurns)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level default = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_TOOLSERVER_URL", "http://10.0.0.5:8001")

	path := writeConfig(t, `
database:
  path: "./test.db"

tool_servers:
  - name: "terminal"
    url: "${TEST_TOOLSERVER_URL}"
    enabled: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ToolServers[0].URL != "http://10.0.0.5:8001" {
		t.Errorf("URL = %q, want expanded env var", cfg.ToolServers[0].URL)
	}
}

func TestLoad_MissingFileIsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_MalformedYAMLIsError(t *testing.T) {
	path := writeConfig(t, "tool_servers: [not: valid: yaml")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestValidate_DuplicateServerNamesRejected(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "./test.db"

tool_servers:
  - name: "terminal"
    url: "http://127.0.0.1:8001"
    enabled: true
  - name: "terminal"
    url: "http://127.0.0.1:8002"
    enabled: true
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected duplicate server name to be rejected")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("error = %v, want mention of duplicate", err)
	}
}

func TestValidate_ServerNameDelimitersRejected(t *testing.T) {
	// "/" and "__" are structural in tool names: "server/tool" on the
	// registry side, "server__tool" on the model wire. A server named
	// "a__b" would make "a__b/c" and "a/b__c" collide after flattening.
	for _, name := range []string{"a/b", "a__b", "git__", "/terminal"} {
		path := writeConfig(t, `
database:
  path: "./test.db"

tool_servers:
  - name: "`+name+`"
    url: "http://127.0.0.1:8001"
    enabled: true
`)

		_, err := Load(path)
		if err == nil {
			t.Fatalf("server name %q should be rejected", name)
		}
		if !strings.Contains(err.Error(), "must not contain") {
			t.Errorf("name %q: error = %v, want mention of forbidden characters", name, err)
		}
	}
}

func TestValidate_EnabledServerNeedsURL(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "./test.db"

tool_servers:
  - name: "terminal"
    enabled: true
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected enabled server without url to be rejected")
	}
}

func TestValidate_DisabledServerMayOmitURL(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "./test.db"

tool_servers:
  - name: "parked"
    enabled: false
`)

	if _, err := Load(path); err != nil {
		t.Fatalf("disabled server without url should be fine, got %v", err)
	}
}

func TestValidate_MissingDatabasePathRejected(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: "0.0.0.0:9000"
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected missing database.path to be rejected")
	}
}
