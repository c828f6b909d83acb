package ailink

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type repairTarget struct {
	Accuracy string   `json:"accuracy"`
	Items    []string `json:"items,omitempty"`
}

func TestParseObjectStrict(t *testing.T) {
	var out repairTarget
	require.NoError(t, ParseObject(`{"accuracy": "accurate"}`, &out))
	require.Equal(t, "accurate", out.Accuracy)
}

func TestParseObjectStripsCodeFences(t *testing.T) {
	var out repairTarget
	raw := "```json\n{\"accuracy\": \"vague\"}\n```"
	require.NoError(t, ParseObject(raw, &out))
	require.Equal(t, "vague", out.Accuracy)
}

func TestParseObjectExtractsEmbeddedObject(t *testing.T) {
	var out repairTarget
	raw := "Here is my assessment:\n{\"accuracy\": \"accurate\"}\nHope that helps."
	require.NoError(t, ParseObject(raw, &out))
	require.Equal(t, "accurate", out.Accuracy)
}

func TestParseObjectRepairsTrailingComma(t *testing.T) {
	var out repairTarget
	require.NoError(t, ParseObject(`{"accuracy": "vague",}`, &out))
	require.Equal(t, "vague", out.Accuracy)
}

func TestParseObjectRepairsSmartQuotes(t *testing.T) {
	var out repairTarget
	raw := "{“accuracy”: “none”}"
	require.NoError(t, ParseObject(raw, &out))
	require.Equal(t, "none", out.Accuracy)
}

func TestParseObjectClosesUnterminatedTrailingArray(t *testing.T) {
	var out repairTarget
	raw := `{"accuracy": "accurate", "items": ["a", "b",`
	require.NoError(t, ParseObject(raw, &out))
	require.Equal(t, "accurate", out.Accuracy)
	require.Equal(t, []string{"a", "b"}, out.Items)
}

func TestParseObjectStripsControlCharacters(t *testing.T) {
	var out repairTarget
	raw := "noise {\"accuracy\": \"vague\"} trailing"
	require.NoError(t, ParseObject(raw, &out))
	require.Equal(t, "vague", out.Accuracy)
}

func TestParseObjectFailsOnGarbage(t *testing.T) {
	var out repairTarget
	require.Error(t, ParseObject("no json here at all", &out))
	require.Error(t, ParseObject("", &out))
}
