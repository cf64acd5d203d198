package sync

import (
	"time"

	"github.com/google/uuid"

	"github.com/grandvalle/fieldscout-go/internal/aggregate"
	"github.com/grandvalle/fieldscout-go/internal/catalog"
	"github.com/grandvalle/fieldscout-go/internal/observation"
)

// IndicatorRow is one per-plant per-entry summary line for the server's
// dashboard. JSON field names match the sync wire format.
type IndicatorRow struct {
	MobileID   string  `json:"mobileId"`
	BatchID    string  `json:"lote"`
	Plant      int     `json:"planta"`
	CostCenter string  `json:"centroCusto"`
	Entry      string  `json:"doencaOuPraga"`
	Kind       string  `json:"tipo"`
	Composite  float64 `json:"percentualComposto"`
	CreatedAt  string  `json:"criadoEm"`
}

// hasAnyTotal reports whether any organ of the summary saw at least one
// scored or counted observation.
func hasAnyTotal(item *aggregate.ItemSummary) bool {
	for i := range item.Organs {
		o := &item.Organs[i]
		if o.TotalScore > 0 || o.TotalBorder > 0 || o.TotalInterior > 0 {
			return true
		}
	}
	return false
}

// BuildIndicators computes the indicator rows for every plant and cost center
// in the collection, keeping only entries with a positive composite or at
// least one non-zero organ total. Each row gets a fresh mobile id so the
// server can de-duplicate retransmissions.
func BuildIndicators(cat catalog.Catalog, records []observation.Record, batchID string, batchSize int) []IndicatorRow {
	now := time.Now().Format(time.RFC3339)

	var rows []IndicatorRow
	for _, cc := range aggregate.CostCenters(records) {
		for _, plant := range aggregate.Plants(records, cc) {
			for _, item := range aggregate.ComputePlantSummary(cat, records, plant, batchSize, cc) {
				if item.Composite <= 0 && !hasAnyTotal(&item) {
					continue
				}
				rows = append(rows, IndicatorRow{
					MobileID:   uuid.New().String(),
					BatchID:    batchID,
					Plant:      plant,
					CostCenter: cc,
					Entry:      item.Name,
					Kind:       string(item.Kind),
					Composite:  item.Composite,
					CreatedAt:  now,
				})
			}
		}
	}
	return rows
}
