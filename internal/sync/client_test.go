package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grandvalle/fieldscout-go/internal/catalog"
	"github.com/grandvalle/fieldscout-go/internal/conf"
	"github.com/grandvalle/fieldscout-go/internal/errors"
	"github.com/grandvalle/fieldscout-go/internal/observation"
	"github.com/grandvalle/fieldscout-go/internal/store"
)

const testBaseURL = "http://farm.test/api"

func newTestClient(t *testing.T) *Client {
	t.Helper()
	settings := &conf.Settings{}
	settings.Sync.URL = testBaseURL
	settings.Sync.Timeout = 45

	c := New(settings)
	httpmock.ActivateNonDefault(c.HTTPClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestSyncPackagesReturnsServerTotal(t *testing.T) {
	c := newTestClient(t)

	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/sincronizar-pacote",
		func(req *http.Request) (*http.Response, error) {
			var got []store.Package
			require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
			require.Len(t, got, 2)
			assert.Equal(t, "245", got[0].Header.BatchID)
			return httpmock.NewJsonResponse(http.StatusOK, map[string]int{"total": 3})
		})

	packages := []store.Package{
		{Header: store.PackageHeader{BatchID: "245", Plant: 1}, Records: []observation.Record{{ID: 1}, {ID: 2}}},
		{Header: store.PackageHeader{BatchID: "245", Plant: 2}, Records: []observation.Record{{ID: 3}}},
	}

	total, err := c.SyncPackages(context.Background(), packages)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestSyncPackagesServerRejection(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/sincronizar-pacote",
		httpmock.NewStringResponder(http.StatusInternalServerError, "boom"))

	_, err := c.SyncPackages(context.Background(), []store.Package{{}})
	require.Error(t, err)
	var ee *errors.EnhancedError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, errors.CategorySync, ee.Category)
}

func TestSyncIndicatorsSkipsEmptyRows(t *testing.T) {
	c := newTestClient(t)
	// No responder registered: a request would fail the test.
	require.NoError(t, c.SyncIndicators(context.Background(), nil))
}

func TestBuildIndicatorsFiltersZeroEntries(t *testing.T) {
	records := []observation.Record{
		{ID: 1, Plant: 1, EntryName: "ANTRACNOSE", Organ: "FOLHA", Quadrant: "Q1", Branch: "R1",
			Score: 4, BatchID: "245", CostCenter: "1.5.1.01.01"},
		{ID: 2, Plant: 1, EntryName: "OÍDIO", Organ: "FOLHA", Quadrant: "Q1", Branch: "R1",
			Score: 0, BatchID: "245", CostCenter: "1.5.1.01.01"},
	}

	rows := BuildIndicators(catalog.Default(), records, "245", 10)
	require.Len(t, rows, 1)
	assert.Equal(t, "ANTRACNOSE", rows[0].Entry)
	assert.Equal(t, 1, rows[0].Plant)
	assert.NotEmpty(t, rows[0].MobileID)
	assert.InDelta(t, 2.5, rows[0].Composite, 1e-12)
}

// memStore is a map-backed store for service tests.
type memStore struct {
	data map[string]string
}

func newMemStore() *memStore { return &memStore{data: map[string]string{}} }

func (m *memStore) Open() error  { return nil }
func (m *memStore) Close() error { return nil }

func (m *memStore) Get(key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", store.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) Set(key, value string) error {
	m.data[key] = value
	return nil
}

func (m *memStore) Delete(key string) error {
	delete(m.data, key)
	return nil
}

func (m *memStore) Keys(prefix string) ([]string, error) {
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func TestSyncPendingDeletesOnlyAfterConfirmation(t *testing.T) {
	c := newTestClient(t)
	m := newMemStore()
	require.NoError(t, store.SavePackage(m, &store.Package{
		Header:  store.PackageHeader{BatchID: "245", Plant: 1},
		Records: []observation.Record{{ID: 1}, {ID: 2}},
	}, 100))
	require.NoError(t, store.SaveBatch(m, "245", []observation.Record{{ID: 1}}))

	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/sincronizar-pacote",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]int{"total": 2}))

	svc := &Service{Store: m, Client: c, Catalog: catalog.Default()}
	result, err := svc.SyncPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Packages)
	assert.Equal(t, 2, result.Records)

	keys, _ := m.Keys(store.PackageKeyPrefix)
	assert.Empty(t, keys, "confirmed packages are deleted")
	_, err = m.Get(store.BatchKey("245"))
	assert.NoError(t, err, "saved batch is untouched by package sync")
}

func TestSyncPendingKeepsDataOnFailure(t *testing.T) {
	c := newTestClient(t)
	m := newMemStore()
	require.NoError(t, store.SavePackage(m, &store.Package{
		Header:  store.PackageHeader{BatchID: "245", Plant: 1},
		Records: []observation.Record{{ID: 1}},
	}, 100))

	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/sincronizar-pacote",
		httpmock.NewStringResponder(http.StatusBadGateway, "unavailable"))

	svc := &Service{Store: m, Client: c, Catalog: catalog.Default()}
	_, err := svc.SyncPending(context.Background(), 10)
	require.Error(t, err)

	keys, _ := m.Keys(store.PackageKeyPrefix)
	assert.Len(t, keys, 1, "nothing is deleted on failure")
}

func TestSyncPendingSkipsCorruptPackages(t *testing.T) {
	c := newTestClient(t)
	m := newMemStore()
	require.NoError(t, store.SavePackage(m, &store.Package{
		Header:  store.PackageHeader{BatchID: "245", Plant: 1},
		Records: []observation.Record{{ID: 1}},
	}, 100))
	require.NoError(t, m.Set("pacote_245_2_101", "{not json"))

	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/sincronizar-pacote",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]int{"total": 1}))

	svc := &Service{Store: m, Client: c, Catalog: catalog.Default()}
	result, err := svc.SyncPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Packages)
	assert.Equal(t, 1, result.Skipped)

	keys, _ := m.Keys(store.PackageKeyPrefix)
	assert.Equal(t, []string{"pacote_245_2_101"}, keys, "the corrupt package stays for inspection")
}

func TestSyncPendingLabelsIndicatorsPerBatch(t *testing.T) {
	c := newTestClient(t)
	c.Settings.Sync.IndicatorsAlong = true
	m := newMemStore()

	require.NoError(t, store.SavePackage(m, &store.Package{
		Header: store.PackageHeader{BatchID: "245", Plant: 1},
		Records: []observation.Record{
			{ID: 1, Plant: 1, EntryName: "ANTRACNOSE", Organ: "FOLHA", Quadrant: "Q1", Branch: "R1",
				Score: 4, BatchID: "245", CostCenter: "1.5.1.01.01"},
		},
	}, 100))
	require.NoError(t, store.SavePackage(m, &store.Package{
		Header: store.PackageHeader{BatchID: "300", Plant: 2},
		Records: []observation.Record{
			{ID: 2, Plant: 2, EntryName: "ANTRACNOSE", Organ: "FOLHA", Quadrant: "Q1", Branch: "R1",
				Score: 3, BatchID: "300", CostCenter: "1.5.1.02.03"},
		},
	}, 101))

	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/sincronizar-pacote",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]int{"total": 2}))

	var rows []IndicatorRow
	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/sincronizar-relatorio",
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, json.NewDecoder(req.Body).Decode(&rows))
			return httpmock.NewStringResponse(http.StatusOK, "ok"), nil
		})

	svc := &Service{Store: m, Client: c, Catalog: catalog.Default()}
	result, err := svc.SyncPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Packages)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, result.IndicatorRows)

	byBatch := make(map[string]IndicatorRow)
	for _, row := range rows {
		byBatch[row.BatchID] = row
	}
	require.Contains(t, byBatch, "245")
	require.Contains(t, byBatch, "300")
	assert.Equal(t, 1, byBatch["245"].Plant)
	assert.Equal(t, 2, byBatch["300"].Plant)
}

func TestSyncPendingNothingToDo(t *testing.T) {
	c := newTestClient(t)
	svc := &Service{Store: newMemStore(), Client: c, Catalog: catalog.Default()}

	result, err := svc.SyncPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, result.Packages)
}
