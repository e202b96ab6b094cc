package recovery

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/souschef-ai/souschef/types"
)

func TestRecoverDirect(t *testing.T) {
	e := NewEngine(nil)

	res, err := e.Recover(`{"nom": "Tarte Tatin", "temps": 45}`, false)
	require.NoError(t, err)
	assert.Equal(t, StrategyDirect, res.Strategy)
	assert.False(t, res.Repaired())

	obj, ok := res.Value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Tarte Tatin", obj["nom"])
	assert.Equal(t, json.Number("45"), obj["temps"])
}

func TestRecoverDirectArray(t *testing.T) {
	e := NewEngine(nil)

	res, err := e.Recover(`[{"nom": "A"}, {"nom": "B"}]`, true)
	require.NoError(t, err)
	assert.Equal(t, StrategyDirect, res.Strategy)

	items, ok := res.Value.([]any)
	require.True(t, ok)
	assert.Len(t, items, 2)
}

func TestRecoverExtractFromProse(t *testing.T) {
	e := NewEngine(nil)

	raw := `Voici la recette demandee: {"nom": "Ratatouille", "temps": 90} Bon appetit!`
	res, err := e.Recover(raw, false)
	require.NoError(t, err)
	assert.Equal(t, StrategyExtract, res.Strategy)
	assert.True(t, res.Repaired())

	obj := res.Value.(map[string]any)
	assert.Equal(t, "Ratatouille", obj["nom"])
}

func TestRecoverExtractFromCodeFence(t *testing.T) {
	e := NewEngine(nil)

	raw := "Here you go:\n```json\n{\"nom\": \"Quiche\", \"disponible\": true}\n```\nLet me know!"
	res, err := e.Recover(raw, false)
	require.NoError(t, err)
	assert.Equal(t, StrategyExtract, res.Strategy)

	obj := res.Value.(map[string]any)
	assert.Equal(t, "Quiche", obj["nom"])
	assert.Equal(t, true, obj["disponible"])
}

func TestRecoverExtractHonorsStringBrackets(t *testing.T) {
	e := NewEngine(nil)

	// The brace inside the string value must not terminate extraction.
	raw := `note: {"texte": "use a } brace and a \" quote", "n": 1} done`
	res, err := e.Recover(raw, false)
	require.NoError(t, err)
	assert.Equal(t, StrategyExtract, res.Strategy)

	obj := res.Value.(map[string]any)
	assert.Equal(t, `use a } brace and a " quote`, obj["texte"])
}

func TestRecoverRepairPythonLiterals(t *testing.T) {
	e := NewEngine(nil)

	res, err := e.Recover(`{'nom': 'Salade', 'disponible': True, 'garniture': None}`, false)
	require.NoError(t, err)
	assert.Equal(t, StrategyRepair, res.Strategy)
	assert.True(t, res.Repaired())

	obj := res.Value.(map[string]any)
	assert.Equal(t, "Salade", obj["nom"])
	assert.Equal(t, true, obj["disponible"])
	assert.Nil(t, obj["garniture"])
}

func TestRecoverRepairBareKeysAndTrailingComma(t *testing.T) {
	e := NewEngine(nil)

	res, err := e.Recover(`{nom: "Soupe", temps: 20,}`, false)
	require.NoError(t, err)
	assert.Equal(t, StrategyRepair, res.Strategy)

	obj := res.Value.(map[string]any)
	assert.Equal(t, "Soupe", obj["nom"])
	assert.Equal(t, json.Number("20"), obj["temps"])
}

func TestRecoverPartialArray(t *testing.T) {
	e := NewEngine(nil)

	// The middle element is malformed beyond repair; the complete ones
	// survive.
	raw := `[{"nom": "A", "temps": 10}, {"nom": , "temps": 20}, {"nom": "C", "temps": 30}]`
	res, err := e.Recover(raw, true)
	require.NoError(t, err)
	assert.Equal(t, StrategyPartial, res.Strategy)

	items := res.Value.([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].(map[string]any)["nom"])
	assert.Equal(t, "C", items[1].(map[string]any)["nom"])
}

func TestRecoverPartialTruncatedArray(t *testing.T) {
	e := NewEngine(nil)

	// Response cut off mid-stream: no closing bracket at all.
	raw := `[{"nom": "A", "temps": 10}, {"nom": "B", "temps": 20}, {"nom": "C", "te`
	res, err := e.Recover(raw, true)
	require.NoError(t, err)
	assert.Equal(t, StrategyPartial, res.Strategy)

	items := res.Value.([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].(map[string]any)["nom"])
	assert.Equal(t, "B", items[1].(map[string]any)["nom"])
}

func TestRecoverPartialNestedElementEndsInBracket(t *testing.T) {
	e := NewEngine(nil)

	// The last complete element itself ends in ']'; truncation must not eat
	// it.
	raw := `[[1, 2], [3, 4`
	res, err := e.Recover(raw, true)
	require.NoError(t, err)
	assert.Equal(t, StrategyPartial, res.Strategy)

	items := res.Value.([]any)
	require.Len(t, items, 1)
	inner := items[0].([]any)
	assert.Equal(t, json.Number("1"), inner[0])
	assert.Equal(t, json.Number("2"), inner[1])
}

func TestRecoverFallbackListMode(t *testing.T) {
	e := NewEngine(nil)

	res, err := e.Recover(`Je ne peux pas vous aider avec cette demande.`, true)
	require.NoError(t, err)
	assert.Equal(t, StrategyFallback, res.Strategy)
	assert.Equal(t, []any{}, res.Value)
}

func TestRecoverFallbackObjectMode(t *testing.T) {
	e := NewEngine(nil)

	res, err := e.Recover(`Je ne peux pas vous aider avec cette demande.`, false)
	require.Error(t, err)
	assert.Equal(t, types.ErrRecoveryExhausted, types.CodeOf(err))
	assert.Equal(t, StrategyFallback, res.Strategy)
}

func TestRecoverEmptyInput(t *testing.T) {
	e := NewEngine(nil)

	res, err := e.Recover("   \n\t  ", false)
	require.Error(t, err)
	assert.Equal(t, types.ErrRecoveryExhausted, types.CodeOf(err))

	res, err = e.Recover("", true)
	require.NoError(t, err)
	assert.Equal(t, []any{}, res.Value)
}

func TestRecoverAttemptLog(t *testing.T) {
	e := NewEngine(nil)

	res, err := e.Recover(`prose then {'ok': True}`, false)
	require.NoError(t, err)
	assert.Equal(t, StrategyRepair, res.Strategy)

	// One attempt per tried strategy, failures before the success.
	require.Len(t, res.Attempts, 3)
	assert.False(t, res.Attempts[0].OK)
	assert.Equal(t, StrategyDirect, res.Attempts[0].Strategy)
	assert.False(t, res.Attempts[1].OK)
	assert.Equal(t, StrategyExtract, res.Attempts[1].Strategy)
	assert.True(t, res.Attempts[2].OK)
	assert.Equal(t, StrategyRepair, res.Attempts[2].Strategy)
}

func TestRecoverRejectsTrailingJSON(t *testing.T) {
	e := NewEngine(nil)

	// Two concatenated values cannot pass the direct decode; extraction
	// picks the first balanced payload.
	res, err := e.Recover(`{"a": 1} {"b": 2}`, false)
	require.NoError(t, err)
	assert.Equal(t, StrategyExtract, res.Strategy)

	obj := res.Value.(map[string]any)
	assert.Equal(t, json.Number("1"), obj["a"])
	assert.NotContains(t, obj, "b")
}

func TestStrategyString(t *testing.T) {
	assert.Equal(t, "direct", StrategyDirect.String())
	assert.Equal(t, "extract", StrategyExtract.String())
	assert.Equal(t, "repair", StrategyRepair.String())
	assert.Equal(t, "partial", StrategyPartial.String())
	assert.Equal(t, "fallback", StrategyFallback.String())
}
