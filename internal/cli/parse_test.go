package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBuiltins(t *testing.T) {
	out, err := execute(t, NewParseCommand(&RootOptions{Format: "text"}),
		"--type", "(i32,index)->f32", "--attr", "{b, a = 1}")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ type (i32, index) -> f32")
	assert.Contains(t, out, "✓ attr {a = 1, b}")
}

func TestParseDialectTypes(t *testing.T) {
	out, err := execute(t, NewParseCommand(&RootOptions{Format: "json"}), calcDecl,
		"--type", "!calc.vec<f32,4>",
		"--type", "!calc.vec<f32>",
		"--type", `!calc.vec<f32, "four">`,
		"--attr", `#calc.unit<"m">`,
	)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string        `json:"status"`
		Data   []ParseResult `json:"data"`
		Error  *CLIError     `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.Len(t, resp.Data, 4)

	assert.Equal(t, ParseResult{Kind: "type", Input: "!calc.vec<f32,4>", Output: "!calc.vec<f32, 4>"}, resp.Data[0])
	assert.Equal(t, "ARITY", resp.Data[1].Code)
	assert.Equal(t, "CONSTRAINT_VIOLATION", resp.Data[2].Code)
	assert.Equal(t, `#calc.unit<"m">`, resp.Data[3].Output)
	assert.Equal(t, "2 input(s) failed", resp.Error.Message)
}

func TestParseMalformedInput(t *testing.T) {
	out, err := execute(t, NewParseCommand(&RootOptions{Format: "text"}), "--type", "!!")
	require.Error(t, err)
	assert.Contains(t, out, "✗ type !!")
	assert.Contains(t, out, "PARSE_ERROR")
}

func TestParseUsesConfiguredDialects(t *testing.T) {
	opts := &RootOptions{Format: "text", Dialects: []string{geoDecl}}
	out, err := execute(t, NewParseCommand(opts), "--type", "!geo.pt<1, 2>")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ type !geo.pt<1, 2>")
}

func TestParseNothingToParse(t *testing.T) {
	_, err := execute(t, NewParseCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestParseBadDeclarations(t *testing.T) {
	_, err := execute(t, NewParseCommand(&RootOptions{Format: "text"}), "/nonexistent.dyn", "--type", "i32")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load dialects")
}
