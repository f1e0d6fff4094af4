// ABOUTME: Tests for the API mapping helpers of the Anthropic decider
// ABOUTME: Wire-name translation and input-schema lifting

package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWireName_RoundTrip(t *testing.T) {
	assert.Equal(t, "terminal__run_command", wireName("terminal/run_command"))
	assert.Equal(t, "terminal/run_command", fromWireName("terminal__run_command"))

	// Underscores inside the tool name survive: only the first pair is the
	// separator on the way back.
	assert.Equal(t, "git__git_status", wireName("git/git_status"))
	assert.Equal(t, "git/git_status", fromWireName("git__git_status"))
}

func TestBuildInputSchema(t *testing.T) {
	raw := json.RawMessage(`{
		"type": "object",
		"properties": {"command": {"type": "string"}},
		"required": ["command"]
	}`)

	schema := buildInputSchema(raw)

	props, ok := schema.Properties.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "command")
	assert.Equal(t, []string{"command"}, schema.Required)
}

func TestBuildInputSchema_Empty(t *testing.T) {
	schema := buildInputSchema(nil)
	assert.Nil(t, schema.Properties)
	assert.Empty(t, schema.Required)

	// Malformed schemas degrade to an unconstrained tool rather than erroring.
	schema = buildInputSchema(json.RawMessage(`{not json`))
	assert.Nil(t, schema.Properties)
}
