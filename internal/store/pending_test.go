package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grandvalle/fieldscout-go/internal/observation"
)

func TestCountPendingPackages(t *testing.T) {
	keys := []string{"pacote_A_1_100", "pacote_A_2_101", "avaliacoes_A"}
	assert.Equal(t, 2, CountPendingPackages(keys))
	assert.Zero(t, CountPendingPackages(nil))
	assert.Zero(t, CountPendingPackages([]string{"avaliacoes_A", "config"}))
}

func TestCountPendingRecordsSumsMembers(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, SavePackage(s, &Package{
		Header:  PackageHeader{BatchID: "245", Plant: 1},
		Records: []observation.Record{{ID: 1}, {ID: 2}},
	}, 100))
	require.NoError(t, SavePackage(s, &Package{
		Header:  PackageHeader{BatchID: "245", Plant: 2},
		Records: []observation.Record{{ID: 3}},
	}, 101))

	total, err := CountPendingRecords(s)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestCountPendingRecordsSkipsCorruptPayloads(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, SavePackage(s, &Package{
		Header:  PackageHeader{BatchID: "245", Plant: 1},
		Records: []observation.Record{{ID: 1}, {ID: 2}},
	}, 100))
	require.NoError(t, s.Set("pacote_245_2_101", "{not json"))

	total, err := CountPendingRecords(s)
	require.NoError(t, err)
	assert.Equal(t, 2, total, "a corrupt entry is skipped, not fatal")
}
