package sync

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/grandvalle/fieldscout-go/internal/catalog"
	"github.com/grandvalle/fieldscout-go/internal/errors"
	"github.com/grandvalle/fieldscout-go/internal/observation"
	"github.com/grandvalle/fieldscout-go/internal/store"
)

// Result summarizes one sync run.
type Result struct {
	Packages      int // packages transmitted
	Records       int // server-confirmed record total
	Skipped       int // corrupt packages left in place
	IndicatorRows int // dashboard rows transmitted alongside
}

// Service drives the pending-package sync flow against one store and one
// client.
type Service struct {
	Store   store.Interface
	Client  *Client
	Catalog catalog.Catalog
}

// SyncPending transmits all pending packages and deletes them locally only
// after the server confirms receipt. Corrupt packages are skipped and left in
// place; a transport failure aborts before anything is deleted.
func (s *Service) SyncPending(ctx context.Context, batchSize int) (*Result, error) {
	keys, err := s.Store.Keys(store.PackageKeyPrefix)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		serviceLogger().Info("nothing to sync")
		return &Result{}, nil
	}

	var (
		packages []store.Package
		sentKeys []string
		skipped  int
	)
	for _, key := range keys {
		raw, err := s.Store.Get(key)
		if err != nil {
			serviceLogger().Warn("skipping unreadable package", "key", key, "error", err)
			skipped++
			continue
		}
		var pkg store.Package
		if err := json.Unmarshal([]byte(raw), &pkg); err != nil {
			serviceLogger().Warn("skipping corrupt package", "key", key, "error", err)
			skipped++
			continue
		}
		packages = append(packages, pkg)
		sentKeys = append(sentKeys, key)
	}

	if len(packages) == 0 {
		return nil, errors.Newf("all %d pending packages are unreadable", len(keys)).
			Component("sync").
			Category(errors.CategorySync).
			Build()
	}

	total, err := s.Client.SyncPackages(ctx, packages)
	if err != nil {
		return nil, err
	}

	result := &Result{Packages: len(packages), Records: total, Skipped: skipped}

	if s.Client.Settings.Sync.IndicatorsAlong {
		// Rows carry their batch label, so each pending batch is aggregated
		// separately.
		byBatch := make(map[string][]observation.Record)
		var batchIDs []string
		for i := range packages {
			id := packages[i].Header.BatchID
			if _, seen := byBatch[id]; !seen {
				batchIDs = append(batchIDs, id)
			}
			byBatch[id] = append(byBatch[id], packages[i].Records...)
		}
		sort.Strings(batchIDs)

		var rows []IndicatorRow
		for _, id := range batchIDs {
			rows = append(rows, BuildIndicators(s.Catalog, byBatch[id], id, batchSize)...)
		}
		if err := s.Client.SyncIndicators(ctx, rows); err != nil {
			// Indicators are advisory; the packages were confirmed, so local
			// cleanup still proceeds.
			serviceLogger().Warn("indicator upload failed", "error", err)
		} else {
			result.IndicatorRows = len(rows)
		}
	}

	for _, key := range sentKeys {
		if err := s.Store.Delete(key); err != nil {
			return result, errors.New(err).
				Component("sync").
				Category(errors.CategorySync).
				Context("key", key).
				Build()
		}
	}
	serviceLogger().Info("sync complete",
		"packages", result.Packages, "records", result.Records, "skipped", skipped)
	return result, nil
}
