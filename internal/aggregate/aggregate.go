// Package aggregate derives per-plant and per-lot severity summaries from the
// raw observation collection. All computations are pure: the input collection
// is never mutated and repeated calls yield identical output.
package aggregate

import (
	"strings"

	"github.com/grandvalle/fieldscout-go/internal/catalog"
	"github.com/grandvalle/fieldscout-go/internal/observation"
)

// OrganSummary holds the aggregated numbers for one organ of one entry.
// Disease organs populate TotalScore/Percentage; pest organs populate the
// border/interior counts and percentages.
type OrganSummary struct {
	Name string

	// Disease fields.
	TotalScore float64
	Percentage float64

	// Pest fields.
	TotalBorder   int
	TotalInterior int
	PctBorder     float64
	PctInterior   float64
	Average       float64
	HasBranch     bool
}

// ItemSummary is the aggregated result for one catalog entry on one plant.
// Composite is the overall entry percentage and is not clamped: several
// over-threshold organs can push it past 100.
type ItemSummary struct {
	Name      string
	Kind      catalog.Kind
	Organs    []OrganSummary
	Composite float64
}

// leafOrgan reports whether an organ name denotes leaves, which doubles the
// per-organ score ceiling (8 per plant instead of 4).
func leafOrgan(name string) bool {
	return strings.Contains(strings.ToUpper(name), "FOLHA")
}

// batchMaxima returns the border/interior sample maxima for a batch size.
// Unknown sizes fall back to the 10-plant defaults.
func batchMaxima(batchSize int) (maxBorder, maxInterior int) {
	switch batchSize {
	case 14:
		return 5, 9
	case 18:
		return 6, 12
	default:
		return 4, 6
	}
}

type dedupKey struct {
	quadrant    string
	branch      string
	subLocation string
	index       int
}

func diseaseOrgan(records []observation.Record, organ *catalog.OrganSpec, batchSize int) OrganSummary {
	// Last-seen score wins per (quadrant, branch, subLocation, index); the
	// reconciliation engine keeps cells unique, but stored batches can carry
	// stale duplicates from older saves.
	scores := make(map[dedupKey]float64)
	order := make([]dedupKey, 0, len(records))
	for i := range records {
		r := &records[i]
		key := dedupKey{r.Quadrant, r.Branch, r.SubLocation, r.SubLocationIndex}
		if _, seen := scores[key]; !seen {
			order = append(order, key)
		}
		scores[key] = r.Score
	}

	var total float64
	for _, key := range order {
		total += scores[key]
	}

	perPlant := 4.0
	if leafOrgan(organ.Name) {
		perPlant = 8.0
	}
	max := perPlant * float64(batchSize)

	out := OrganSummary{Name: organ.Name, TotalScore: total}
	if max > 0 {
		out.Percentage = total * 100 / max
	}
	return out
}

func pestOrgan(records []observation.Record, organ *catalog.OrganSpec, batchSize int) OrganSummary {
	out := OrganSummary{Name: organ.Name}
	for i := range records {
		switch records[i].SubLocation {
		case catalog.Border:
			out.TotalBorder++
		case catalog.Interior:
			out.TotalInterior++
		}
		if records[i].Branch != "" {
			out.HasBranch = true
		}
	}

	maxBorder, maxInterior := batchMaxima(batchSize)
	mult := 4.0
	if out.HasBranch {
		mult = 8.0
	}
	if denom := float64(maxBorder) * mult; denom > 0 {
		out.PctBorder = float64(out.TotalBorder) * 100 / denom
	}
	if denom := float64(maxInterior) * mult; denom > 0 {
		out.PctInterior = float64(out.TotalInterior) * 100 / denom
	}
	out.Average = (out.PctBorder + out.PctInterior) / 2
	return out
}

// ComputePlantSummary aggregates one plant's records for one cost center into
// per-entry summaries, in catalog order. An empty collection or an empty cost
// center yields an empty result. Presence-only entries carry no score scale
// and are excluded.
func ComputePlantSummary(cat catalog.Catalog, records []observation.Record, plant, batchSize int, costCenter string) []ItemSummary {
	if len(records) == 0 || costCenter == "" {
		return nil
	}

	var out []ItemSummary
	for e := range cat {
		entry := &cat[e]
		if entry.PresenceOnly {
			continue
		}

		var entryRecords []observation.Record
		for i := range records {
			r := &records[i]
			if r.Plant == plant && r.EntryName == entry.Name && r.CostCenter == costCenter {
				entryRecords = append(entryRecords, records[i])
			}
		}

		item := ItemSummary{Name: entry.Name, Kind: entry.Kind}
		var sumScores, sumMax float64
		for o := range entry.Organs {
			organ := &entry.Organs[o]
			var organRecords []observation.Record
			for i := range entryRecords {
				if entryRecords[i].Organ == organ.Name {
					organRecords = append(organRecords, entryRecords[i])
				}
			}

			var os OrganSummary
			if entry.Kind == catalog.Disease {
				os = diseaseOrgan(organRecords, organ, batchSize)
				perPlant := 4.0
				if leafOrgan(organ.Name) {
					perPlant = 8.0
				}
				sumScores += os.TotalScore
				sumMax += perPlant * float64(batchSize)
			} else {
				os = pestOrgan(organRecords, organ, batchSize)
				maxBorder, maxInterior := batchMaxima(batchSize)
				mult := 4.0
				if os.HasBranch {
					mult = 8.0
				}
				sumScores += float64(os.TotalBorder + os.TotalInterior)
				sumMax += float64(maxBorder+maxInterior) * mult
			}
			item.Organs = append(item.Organs, os)
		}

		if sumMax > 0 {
			item.Composite = sumScores * 100 / sumMax
		}
		out = append(out, item)
	}
	return out
}
