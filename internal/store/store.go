// Package store persists survey data between field sessions: saved batches of
// observation records and offline sync packages, both keyed JSON payloads in
// a local SQLite database. Records are removed only after the sync endpoint
// confirms receipt.
package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/grandvalle/fieldscout-go/internal/errors"
	"github.com/grandvalle/fieldscout-go/internal/logging"
	"github.com/grandvalle/fieldscout-go/internal/observation"
)

var serviceLogger = logging.ServiceLogger("store")

// ErrKeyNotFound is returned by Get for absent keys.
var ErrKeyNotFound = errors.NewStd("key not found")

// Key naming conventions shared with the sync wire format.
const (
	batchKeyPrefix   = "avaliacoes_"
	PackageKeyPrefix = "pacote_"
)

// BatchKey returns the storage key holding the saved records of one batch.
func BatchKey(batchID string) string {
	return batchKeyPrefix + batchID
}

// PackageKey returns the storage key for one offline package. The timestamp
// keeps repeated saves of the same plant distinct.
func PackageKey(batchID string, plant int, timestamp int64) string {
	return fmt.Sprintf("%s%s_%d_%d", PackageKeyPrefix, batchID, plant, timestamp)
}

// PackageHeader carries the batch context a package was captured under. JSON
// field names match the sync wire format.
type PackageHeader struct {
	BatchID    string `json:"lote"`
	Plant      int    `json:"planta"`
	CostCenter string `json:"centroCusto"`
	Evaluator  string `json:"nomeAvaliador"`
	SavedAt    string `json:"criadoEm"`
}

// Package is one offline sync unit: a header plus the records captured for
// that plant.
type Package struct {
	Header  PackageHeader        `json:"header"`
	Records []observation.Record `json:"avaliacoes"`
}

// Interface is the persistence contract. The SQLite implementation is the
// production store; tests may substitute their own.
type Interface interface {
	Open() error
	Close() error

	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
	Keys(prefix string) ([]string, error)
}

// SaveBatch appends records to the saved collection of a batch, creating it
// when absent.
func SaveBatch(s Interface, batchID string, records []observation.Record) error {
	existing, err := LoadBatch(s, batchID)
	if err != nil {
		return err
	}
	merged := append(existing, records...)

	data, err := json.Marshal(merged)
	if err != nil {
		return errors.New(err).
			Component("store").
			Category(errors.CategoryDatabase).
			Context("batch_id", batchID).
			Build()
	}
	if err := s.Set(BatchKey(batchID), string(data)); err != nil {
		return err
	}
	serviceLogger().Info("batch saved", "batch_id", batchID, "records", len(merged))
	return nil
}

// LoadBatch returns the saved records of a batch, or an empty slice when the
// batch has never been saved.
func LoadBatch(s Interface, batchID string) ([]observation.Record, error) {
	raw, err := s.Get(BatchKey(batchID))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var records []observation.Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, errors.New(err).
			Component("store").
			Category(errors.CategoryDatabase).
			Context("batch_id", batchID).
			Build()
	}
	return records, nil
}

// SavePackage stores one offline sync package under its timestamped key.
func SavePackage(s Interface, pkg *Package, timestamp int64) error {
	data, err := json.Marshal(pkg)
	if err != nil {
		return errors.New(err).
			Component("store").
			Category(errors.CategoryDatabase).
			Context("batch_id", pkg.Header.BatchID).
			Build()
	}
	key := PackageKey(pkg.Header.BatchID, pkg.Header.Plant, timestamp)
	if err := s.Set(key, string(data)); err != nil {
		return err
	}
	serviceLogger().Info("package saved", "key", key, "records", len(pkg.Records))
	return nil
}

// LoadPackage reads and decodes one stored package.
func LoadPackage(s Interface, key string) (*Package, error) {
	raw, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	var pkg Package
	if err := json.Unmarshal([]byte(raw), &pkg); err != nil {
		return nil, errors.New(err).
			Component("store").
			Category(errors.CategoryDatabase).
			Context("key", key).
			Build()
	}
	return &pkg, nil
}

// DeletePlant removes every record of one plant from a saved batch. The batch
// key is kept even when the remaining collection is empty, so the save
// history stays visible.
func DeletePlant(s Interface, batchID string, plant int) (int, error) {
	records, err := LoadBatch(s, batchID)
	if err != nil {
		return 0, err
	}

	kept := records[:0]
	removed := 0
	for i := range records {
		if records[i].Plant == plant {
			removed++
			continue
		}
		kept = append(kept, records[i])
	}
	if removed == 0 {
		return 0, nil
	}

	data, err := json.Marshal(kept)
	if err != nil {
		return 0, errors.New(err).
			Component("store").
			Category(errors.CategoryDatabase).
			Context("batch_id", batchID).
			Build()
	}
	if err := s.Set(BatchKey(batchID), string(data)); err != nil {
		return 0, err
	}
	serviceLogger().Info("plant records removed", "batch_id", batchID, "plant", plant, "removed", removed)
	return removed, nil
}

// DeleteBatch removes the saved collection and every pending package of a
// batch. Whole batch or nothing: called only after the sync endpoint has
// confirmed receipt.
func DeleteBatch(s Interface, batchID string) error {
	keys, err := s.Keys(PackageKeyPrefix + batchID + "_")
	if err != nil {
		return err
	}
	keys = append(keys, BatchKey(batchID))
	for _, key := range keys {
		if err := s.Delete(key); err != nil {
			return err
		}
	}
	serviceLogger().Info("batch cleared", "batch_id", batchID, "keys", len(keys))
	return nil
}

// ParsePackageKey extracts the batch id from a package key, or false when the
// key does not follow the package naming convention.
func ParsePackageKey(key string) (batchID string, ok bool) {
	rest, found := strings.CutPrefix(key, PackageKeyPrefix)
	if !found {
		return "", false
	}
	// The trailing "_<plant>_<timestamp>" is stripped; the batch id itself
	// never contains an underscore.
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) == 0 || parts[0] == "" {
		return "", false
	}
	return parts[0], true
}
