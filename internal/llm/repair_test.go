package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairJSON_ValidPassesThrough(t *testing.T) {
	in := `[["pillow", "numpy"], ["opencv-python"]]`
	out, stats, err := RepairJSON(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.False(t, stats.WasRepaired)
	assert.Empty(t, stats.RepairStrategies)
}

func TestRepairJSON_StripsCodeFences(t *testing.T) {
	in := "```json\n[[\"pillow\"]]\n```"
	out, stats, err := RepairJSON(in)
	require.NoError(t, err)
	assert.Equal(t, `[["pillow"]]`, out)
	assert.True(t, stats.WasRepaired)
	assert.Contains(t, stats.RepairStrategies, "code_fences")
}

func TestRepairJSON_TrailingCommas(t *testing.T) {
	in := `{"a": [1, 2,], "b": 3,}`
	out, stats, err := RepairJSON(in)
	require.NoError(t, err)
	assert.Contains(t, stats.RepairStrategies, "trailing_commas")

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, float64(3), parsed["b"])
}

func TestRepairJSON_LibraryFallback(t *testing.T) {
	// Single quotes and an unquoted key need the heavyweight repair path.
	in := `{name: 'pillow'}`
	out, stats, err := RepairJSON(in)
	require.NoError(t, err)
	assert.Contains(t, stats.RepairStrategies, "jsonrepair_library")

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, "pillow", parsed["name"])
}

func TestRepairJSON_FencedWithTrailingComma(t *testing.T) {
	in := "```\n[\"a\", \"b\",]\n```"
	out, _, err := RepairJSON(in)
	require.NoError(t, err)

	var parsed []string
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, []string{"a", "b"}, parsed)
}
