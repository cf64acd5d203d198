package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grandvalle/fieldscout-go/internal/catalog"
	"github.com/grandvalle/fieldscout-go/internal/observation"
)

const testCC = "1.5.1.01.01"

var recID int64

func rec(plant int, entry, organ, quadrant, branch, subLocation string, index int, score float64) observation.Record {
	recID++
	return observation.Record{
		ID: recID, Plant: plant, EntryName: entry, Organ: organ,
		Quadrant: quadrant, Branch: branch,
		SubLocation: subLocation, SubLocationIndex: index,
		Score: score, BatchID: "245", CostCenter: testCC, Evaluator: "Maria",
	}
}

func findItem(t *testing.T, items []ItemSummary, name string) *ItemSummary {
	t.Helper()
	for i := range items {
		if items[i].Name == name {
			return &items[i]
		}
	}
	t.Fatalf("no summary for %s", name)
	return nil
}

func findOrgan(t *testing.T, item *ItemSummary, name string) *OrganSummary {
	t.Helper()
	for i := range item.Organs {
		if item.Organs[i].Name == name {
			return &item.Organs[i]
		}
	}
	t.Fatalf("no organ summary for %s", name)
	return nil
}

func TestEmptyCollectionYieldsNothing(t *testing.T) {
	assert.Empty(t, ComputePlantSummary(catalog.Default(), nil, 1, 10, testCC))
}

func TestEmptyCostCenterYieldsNothing(t *testing.T) {
	records := []observation.Record{rec(1, "ANTRACNOSE", "FOLHA", "Q1", "R1", "", 0, 4)}
	assert.Empty(t, ComputePlantSummary(catalog.Default(), records, 1, 10, ""))
}

func TestLeafOrganPercentage(t *testing.T) {
	records := []observation.Record{rec(1, "ANTRACNOSE", "FOLHA", "Q1", "R1", "", 0, 4)}

	items := ComputePlantSummary(catalog.Default(), records, 1, 10, testCC)
	organ := findOrgan(t, findItem(t, items, "ANTRACNOSE"), "FOLHA")

	// Leaf organs score up to 8 per plant, so the ceiling is 8*10=80.
	assert.Equal(t, 4.0, organ.TotalScore)
	assert.Equal(t, 5.0, organ.Percentage)
}

func TestNonLeafOrganPercentage(t *testing.T) {
	records := []observation.Record{rec(1, "ANTRACNOSE", "FRUTO", "Q2", "", "", 0, 2)}

	items := ComputePlantSummary(catalog.Default(), records, 1, 10, testCC)
	organ := findOrgan(t, findItem(t, items, "ANTRACNOSE"), "FRUTO")

	assert.Equal(t, 2.0, organ.TotalScore)
	assert.Equal(t, 5.0, organ.Percentage)
}

func TestDiseaseDedupLastWins(t *testing.T) {
	records := []observation.Record{
		rec(1, "OÍDIO", "FOLHA", "Q1", "R1", "", 0, 2),
		rec(1, "OÍDIO", "FOLHA", "Q1", "R1", "", 0, 5),
	}

	items := ComputePlantSummary(catalog.Default(), records, 1, 10, testCC)
	organ := findOrgan(t, findItem(t, items, "OÍDIO"), "FOLHA")

	assert.Equal(t, 5.0, organ.TotalScore)
}

func TestDiseaseDedupKeepsDistinctCells(t *testing.T) {
	records := []observation.Record{
		rec(1, "OÍDIO", "FOLHA", "Q1", "R1", "", 0, 2),
		rec(1, "OÍDIO", "FOLHA", "Q1", "R2", "", 0, 3),
		rec(1, "OÍDIO", "FOLHA", "Q2", "R1", "", 0, 1),
	}

	items := ComputePlantSummary(catalog.Default(), records, 1, 10, testCC)
	organ := findOrgan(t, findItem(t, items, "OÍDIO"), "FOLHA")

	assert.Equal(t, 6.0, organ.TotalScore)
}

func TestPestCountsNotSums(t *testing.T) {
	records := []observation.Record{
		rec(1, "TRIPES", "RAMO", "", "", catalog.Border, 1, 5),
		rec(1, "TRIPES", "RAMO", "", "", catalog.Border, 2, 3),
		rec(1, "TRIPES", "RAMO", "", "", catalog.Interior, 1, 4),
		rec(1, "TRIPES", "RAMO", "", "", catalog.Interior, 2, 4),
		rec(1, "TRIPES", "RAMO", "", "", catalog.Interior, 3, 4),
	}

	items := ComputePlantSummary(catalog.Default(), records, 1, 14, testCC)
	organ := findOrgan(t, findItem(t, items, "TRIPES"), "RAMO")

	// Counts, never score sums.
	assert.Equal(t, 2, organ.TotalBorder)
	assert.Equal(t, 3, organ.TotalInterior)
	assert.False(t, organ.HasBranch)

	// Batch 14 maxima are (5, 9), no branch dimension so multiplier 4.
	assert.InDelta(t, 10.0, organ.PctBorder, 1e-12)
	assert.InDelta(t, 8.3333333333, organ.PctInterior, 1e-9)
	assert.InDelta(t, 9.1666666666, organ.Average, 1e-9)
}

func TestPestBranchDimensionDoublesMultiplier(t *testing.T) {
	records := []observation.Record{
		rec(1, "COCHONILHA", "FOLHA (Aulacaspis e Pseudaonidia)", "", "R1", catalog.Border, 1, 1),
		rec(1, "COCHONILHA", "FOLHA (Aulacaspis e Pseudaonidia)", "", "R2", catalog.Border, 1, 1),
	}

	items := ComputePlantSummary(catalog.Default(), records, 1, 10, testCC)
	organ := findOrgan(t, findItem(t, items, "COCHONILHA"), "FOLHA (Aulacaspis e Pseudaonidia)")

	require.True(t, organ.HasBranch)
	// maxBorder 4 times multiplier 8 gives 32; 2*100/32 = 6.25.
	assert.InDelta(t, 6.25, organ.PctBorder, 1e-12)
}

func TestUnknownBatchSizeFallsBackToDefaults(t *testing.T) {
	records := []observation.Record{
		rec(1, "TRIPES", "RAMO", "", "", catalog.Border, 1, 1),
	}

	items := ComputePlantSummary(catalog.Default(), records, 1, 99, testCC)
	organ := findOrgan(t, findItem(t, items, "TRIPES"), "RAMO")

	// Falls back to (4, 6): 1*100/(4*4) = 6.25.
	assert.InDelta(t, 6.25, organ.PctBorder, 1e-12)
}

func TestCompositeCombinesOrgans(t *testing.T) {
	records := []observation.Record{
		rec(1, "ANTRACNOSE", "FOLHA", "Q1", "R1", "", 0, 4),
		rec(1, "ANTRACNOSE", "FRUTO", "Q1", "", "", 0, 2),
	}

	items := ComputePlantSummary(catalog.Default(), records, 1, 10, testCC)
	item := findItem(t, items, "ANTRACNOSE")

	// sumScores 6 over sumMax 80+40+40 = 160.
	assert.InDelta(t, 3.75, item.Composite, 1e-12)
}

func TestCompositeCanExceedHundred(t *testing.T) {
	var records []observation.Record
	for i := 0; i < 130; i++ {
		records = append(records, rec(1, "LEPIDÓPTEROS", "INFLORESC.", "", "", catalog.Border, i, 1))
	}

	items := ComputePlantSummary(catalog.Default(), records, 1, 10, testCC)
	item := findItem(t, items, "LEPIDÓPTEROS")

	// Single organ, sumMax (4+6)*4 = 40, count 130: no clamping.
	assert.InDelta(t, 325.0, item.Composite, 1e-9)
}

func TestSummaryIsPureAndReentrant(t *testing.T) {
	records := []observation.Record{
		rec(1, "ANTRACNOSE", "FOLHA", "Q1", "R1", "", 0, 4),
		rec(1, "TRIPES", "RAMO", "", "", catalog.Border, 1, 2),
	}
	snapshot := make([]observation.Record, len(records))
	copy(snapshot, records)

	first := ComputePlantSummary(catalog.Default(), records, 1, 10, testCC)
	second := ComputePlantSummary(catalog.Default(), records, 1, 10, testCC)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, records)
}

func TestSummaryFiltersPlantAndCostCenter(t *testing.T) {
	other := rec(1, "ANTRACNOSE", "FOLHA", "Q2", "R1", "", 0, 8)
	other.CostCenter = "1.5.1.02.01"
	records := []observation.Record{
		rec(1, "ANTRACNOSE", "FOLHA", "Q1", "R1", "", 0, 4),
		rec(2, "ANTRACNOSE", "FOLHA", "Q1", "R1", "", 0, 6),
		other,
	}

	items := ComputePlantSummary(catalog.Default(), records, 1, 10, testCC)
	organ := findOrgan(t, findItem(t, items, "ANTRACNOSE"), "FOLHA")
	assert.Equal(t, 4.0, organ.TotalScore)
}

func TestPresenceEntryExcludedFromSummaries(t *testing.T) {
	records := []observation.Record{
		rec(1, "INIMIGOS NATURAIS", "ARANHA", "", "", "", 0, 1),
	}
	items := ComputePlantSummary(catalog.Default(), records, 1, 10, testCC)
	for i := range items {
		assert.NotEqual(t, "INIMIGOS NATURAIS", items[i].Name)
	}
}
