// Package observation defines the atomic unit of collected survey data: one
// severity score or presence flag for a specific plant/entry/organ cell,
// together with its provenance (evaluator, GPS point, timestamp).
package observation

import (
	"sync"
	"time"
)

// Point is a captured GPS coordinate. Accuracy 999 marks a low-confidence
// fallback point so downstream reporting can flag it.
type Point struct {
	Latitude   float64 `gorm:"column:latitude" json:"latitude"`
	Longitude  float64 `gorm:"column:longitude" json:"longitude"`
	Accuracy   float64 `gorm:"column:accuracy" json:"accuracy"`
	CapturedAt int64   `gorm:"column:captured_at" json:"timestamp"`
}

// FallbackAccuracy tags a point that came from the configured fallback
// coordinate rather than a live GPS fix.
const FallbackAccuracy = 999

// Record represents a single observation data point. JSON field names match
// the sync wire format; gorm tags allow batches to be mirrored into
// relational storage.
type Record struct {
	ID               int64   `gorm:"column:id;primaryKey" json:"id"`
	Plant            int     `gorm:"column:plant" json:"planta"`
	EntryName        string  `gorm:"column:entry_name;index" json:"doencaOuPraga"`
	Organ            string  `gorm:"column:organ" json:"orgao"`
	Quadrant         string  `gorm:"column:quadrant" json:"quadrante,omitempty"`
	Branch           string  `gorm:"column:branch" json:"ramo,omitempty"`
	SubLocation      string  `gorm:"column:sub_location" json:"identificadorDeLocal,omitempty"`
	SubLocationIndex int     `gorm:"column:sub_location_index" json:"numeroLocal,omitempty"`
	Score            float64 `gorm:"column:score" json:"nota"`
	BatchID          string  `gorm:"column:batch_id;index" json:"lote"`
	CostCenter       string  `gorm:"column:cost_center" json:"centroCusto"`
	Evaluator        string  `gorm:"column:evaluator" json:"nomeAvaliador"`
	Point            Point   `gorm:"embedded;embeddedPrefix:point_" json:"local"`
	CreatedAt        string  `gorm:"column:created_at" json:"criadoEm"`
}

// CellKey uniquely identifies the cell a non-presence record occupies. Zero
// values ("" / 0) act as the absent marker for the optional dimensions; real
// quadrant, branch and sub-location labels are never empty.
type CellKey struct {
	Plant            int
	EntryName        string
	Organ            string
	Quadrant         string
	Branch           string
	SubLocation      string
	SubLocationIndex int
}

// Cell returns the identity key of the cell this record occupies.
func (r *Record) Cell() CellKey {
	return CellKey{
		Plant:            r.Plant,
		EntryName:        r.EntryName,
		Organ:            r.Organ,
		Quadrant:         r.Quadrant,
		Branch:           r.Branch,
		SubLocation:      r.SubLocation,
		SubLocationIndex: r.SubLocationIndex,
	}
}

// PresenceKey is the reduced identity used by presence-type (checkbox)
// records: quadrant, branch and sub-location are ignored.
type PresenceKey struct {
	Plant     int
	EntryName string
	Organ     string
}

// Presence returns the reduced identity key of this record.
func (r *Record) Presence() PresenceKey {
	return PresenceKey{Plant: r.Plant, EntryName: r.EntryName, Organ: r.Organ}
}

// Input is one requested observation write. Score nil or negative clears the
// target cell instead of writing a value.
type Input struct {
	Plant            int
	EntryName        string
	Organ            string
	Quadrant         string
	Branch           string
	SubLocation      string
	SubLocationIndex int
	Score            *float64
	BatchID          string
	CostCenter       string
	Evaluator        string
}

// Cell returns the identity key of the cell this input targets.
func (in *Input) Cell() CellKey {
	return CellKey{
		Plant:            in.Plant,
		EntryName:        in.EntryName,
		Organ:            in.Organ,
		Quadrant:         in.Quadrant,
		Branch:           in.Branch,
		SubLocation:      in.SubLocation,
		SubLocationIndex: in.SubLocationIndex,
	}
}

var (
	idMu   sync.Mutex
	lastID int64
)

// NewID returns a monotonically distinct timestamp-based record id. Two calls
// in the same millisecond still yield distinct values.
func NewID() int64 {
	idMu.Lock()
	defer idMu.Unlock()
	id := time.Now().UnixMilli()
	if id <= lastID {
		id = lastID + 1
	}
	lastID = id
	return id
}

// New constructs a record for the given input with a fresh id, the supplied
// location point and the current capture timestamp.
func New(in *Input, score float64, point Point) Record {
	return Record{
		ID:               NewID(),
		Plant:            in.Plant,
		EntryName:        in.EntryName,
		Organ:            in.Organ,
		Quadrant:         in.Quadrant,
		Branch:           in.Branch,
		SubLocation:      in.SubLocation,
		SubLocationIndex: in.SubLocationIndex,
		Score:            score,
		BatchID:          in.BatchID,
		CostCenter:       in.CostCenter,
		Evaluator:        in.Evaluator,
		Point:            point,
		CreatedAt:        time.Now().Format(time.RFC3339),
	}
}
