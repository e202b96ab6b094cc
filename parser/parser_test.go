package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/souschef-ai/souschef/types"
)

type fakeObserver struct {
	recoveries []string
	dropped    int
}

func (f *fakeObserver) RecordRecovery(strategy string) { f.recoveries = append(f.recoveries, strategy) }
func (f *fakeObserver) RecordDroppedElement()          { f.dropped++ }

func TestParseOneExact(t *testing.T) {
	p := New(nil)

	record, err := p.ParseOne(`{"nom": "Tarte", "temps": 45}`, recipeSchema(), ModeLenient)
	require.NoError(t, err)

	assert.Equal(t, types.ConfidenceExact, record.Confidence)
	assert.Equal(t, 0, record.Strategy)
	assert.Equal(t, "Tarte", record.GetString("nom"))
}

func TestParseOneRepairedConfidence(t *testing.T) {
	p := New(nil)

	record, err := p.ParseOne(`Voici: {'nom': 'Salade', 'temps': 15}`, recipeSchema(), ModeLenient)
	require.NoError(t, err)

	assert.Equal(t, types.ConfidenceRepaired, record.Confidence)
	assert.Equal(t, "Salade", record.GetString("nom"))
	temps, _ := record.GetInt("temps")
	assert.Equal(t, int64(15), temps)
}

func TestParseOneStrictRejectsRepair(t *testing.T) {
	p := New(nil)

	_, err := p.ParseOne(`Voici: {"nom": "Salade", "temps": 15}`, recipeSchema(), ModeStrict)
	require.Error(t, err)
	assert.Equal(t, types.ErrParse, types.CodeOf(err))

	// The same payload without prose passes strict mode.
	record, err := p.ParseOne(`{"nom": "Salade", "temps": 15}`, recipeSchema(), ModeStrict)
	require.NoError(t, err)
	assert.Equal(t, types.ConfidenceExact, record.Confidence)
}

func TestParseOneValidationFailure(t *testing.T) {
	p := New(nil)

	_, err := p.ParseOne(`{"nom": "Tarte"}`, recipeSchema(), ModeLenient)
	require.Error(t, err)
	assert.Equal(t, types.ErrValidation, types.CodeOf(err))
}

func TestParseOneUnrecoverable(t *testing.T) {
	p := New(nil)

	_, err := p.ParseOne(`desole, pas de JSON ici`, recipeSchema(), ModeLenient)
	require.Error(t, err)
	assert.Equal(t, types.ErrParse, types.CodeOf(err))
}

func TestParseListExact(t *testing.T) {
	p := New(nil)

	raw := `[{"nom": "A", "temps": 10}, {"nom": "B", "temps": 20}]`
	records, err := p.ParseList(raw, recipeSchema(), ModeLenient)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "A", records[0].GetString("nom"))
	assert.Equal(t, "B", records[1].GetString("nom"))
	assert.Equal(t, types.ConfidenceExact, records[0].Confidence)
}

func TestParseListDropsInvalidElements(t *testing.T) {
	obs := &fakeObserver{}
	p := New(nil, WithObserver(obs))

	// Three elements, one with an empty name: the other two survive.
	raw := `[{"nom": "A", "temps": 10}, {"nom": "", "temps": 20}, {"nom": "C", "temps": 30}]`
	records, err := p.ParseList(raw, recipeSchema(), ModeLenient)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "A", records[0].GetString("nom"))
	assert.Equal(t, "C", records[1].GetString("nom"))
	assert.Equal(t, 1, obs.dropped)
}

func TestParseListStrictSurfacesElementFailure(t *testing.T) {
	p := New(nil)

	raw := `[{"nom": "A", "temps": 10}, {"nom": "", "temps": 20}]`
	_, err := p.ParseList(raw, recipeSchema(), ModeStrict)
	require.Error(t, err)
	assert.Equal(t, types.ErrValidation, types.CodeOf(err))
}

func TestParseListWrapsSingleObject(t *testing.T) {
	p := New(nil)

	records, err := p.ParseList(`{"nom": "Seule", "temps": 5}`, recipeSchema(), ModeLenient)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Seule", records[0].GetString("nom"))
}

func TestParseListScalarYieldsEmpty(t *testing.T) {
	p := New(nil)

	records, err := p.ParseList(`"pas une liste"`, recipeSchema(), ModeLenient)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = p.ParseList(`"pas une liste"`, recipeSchema(), ModeStrict)
	require.Error(t, err)
}

func TestParseListFallbackEmpty(t *testing.T) {
	p := New(nil)

	records, err := p.ParseList(`aucune suggestion disponible`, recipeSchema(), ModeLenient)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseListPartialRecoveryConfidence(t *testing.T) {
	p := New(nil)

	// Truncated mid-element: complete elements come back tagged repaired.
	raw := `[{"nom": "A", "temps": 10}, {"nom": "B", "temps": 20}, {"nom": "C", "te`
	records, err := p.ParseList(raw, recipeSchema(), ModeLenient)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, types.ConfidenceRepaired, r.Confidence)
		assert.Equal(t, 3, r.Strategy)
	}
}

func TestParseObserverRecordsRecovery(t *testing.T) {
	obs := &fakeObserver{}
	p := New(nil, WithObserver(obs))

	_, err := p.ParseOne(`{"nom": "Tarte", "temps": 45}`, recipeSchema(), ModeLenient)
	require.NoError(t, err)
	_, err = p.ParseOne(`Voici: {'nom': 'Salade', 'temps': 15}`, recipeSchema(), ModeLenient)
	require.NoError(t, err)

	assert.Equal(t, []string{"direct", "repair"}, obs.recoveries)
}
