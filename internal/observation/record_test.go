package observation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDIsMonotonicallyDistinct(t *testing.T) {
	seen := make(map[int64]bool)
	prev := int64(0)
	for i := 0; i < 1000; i++ {
		id := NewID()
		assert.Greater(t, id, prev)
		assert.False(t, seen[id])
		seen[id] = true
		prev = id
	}
}

func TestCellKeyDistinguishesDimensions(t *testing.T) {
	base := Record{Plant: 1, EntryName: "ANTRACNOSE", Organ: "FOLHA", Quadrant: "Q1", Branch: "R1"}

	other := base
	other.Branch = "R2"
	assert.NotEqual(t, base.Cell(), other.Cell())

	other = base
	other.SubLocationIndex = 2
	assert.NotEqual(t, base.Cell(), other.Cell())

	same := base
	same.ID = 42
	same.Score = 3
	assert.Equal(t, base.Cell(), same.Cell(), "id and score are not part of cell identity")
}

func TestPresenceKeyIgnoresQuadrantAndBranch(t *testing.T) {
	a := Record{Plant: 2, EntryName: "INIMIGOS NATURAIS", Organ: "ARANHA", Quadrant: "Q1", Branch: "R1"}
	b := Record{Plant: 2, EntryName: "INIMIGOS NATURAIS", Organ: "ARANHA", Quadrant: "Q4"}

	assert.Equal(t, a.Presence(), b.Presence())
}

func TestRecordWireFormat(t *testing.T) {
	score := 3.0
	in := &Input{
		Plant:       4,
		EntryName:   "TRIPES",
		Organ:       "RAMO",
		Quadrant:    "Q2",
		SubLocation: "Bordadura",
		Score:       &score,
		BatchID:     "245",
		CostCenter:  "1.5.1.01.07",
		Evaluator:   "Maria",
	}
	rec := New(in, score, Point{Latitude: -9.28, Longitude: -40.87, Accuracy: 12, CapturedAt: 1700000000000})

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.EqualValues(t, 4, decoded["planta"])
	assert.Equal(t, "TRIPES", decoded["doencaOuPraga"])
	assert.Equal(t, "RAMO", decoded["orgao"])
	assert.Equal(t, "Q2", decoded["quadrante"])
	assert.Equal(t, "Bordadura", decoded["identificadorDeLocal"])
	assert.EqualValues(t, 3, decoded["nota"])
	assert.Equal(t, "245", decoded["lote"])
	assert.Equal(t, "1.5.1.01.07", decoded["centroCusto"])
	assert.Equal(t, "Maria", decoded["nomeAvaliador"])
	assert.NotContains(t, decoded, "ramo", "empty optional dimensions are omitted")
}

func TestRoundTripKeepsCell(t *testing.T) {
	rec := Record{
		ID: 7, Plant: 1, EntryName: "OÍDIO", Organ: "FOLHA",
		Quadrant: "Q3", Branch: "R2", Score: 4, BatchID: "245",
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var back Record
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, rec.Cell(), back.Cell())
}
