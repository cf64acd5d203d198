package aggregate

import (
	"sort"

	"github.com/grandvalle/fieldscout-go/internal/catalog"
	"github.com/grandvalle/fieldscout-go/internal/observation"
)

// LotEntry is one catalog entry's overall percentage across all observed
// plants of one cost center.
type LotEntry struct {
	Name       string
	Kind       catalog.Kind
	Percentage float64
}

// Plants returns the sorted distinct plant numbers observed for a cost
// center.
func Plants(records []observation.Record, costCenter string) []int {
	seen := make(map[int]bool)
	for i := range records {
		if records[i].CostCenter == costCenter {
			seen[records[i].Plant] = true
		}
	}
	plants := make([]int, 0, len(seen))
	for p := range seen {
		plants = append(plants, p)
	}
	sort.Ints(plants)
	return plants
}

// CostCenters returns the sorted distinct cost centers present in the
// collection.
func CostCenters(records []observation.Record) []string {
	seen := make(map[string]bool)
	for i := range records {
		if records[i].CostCenter != "" {
			seen[records[i].CostCenter] = true
		}
	}
	ccs := make([]string, 0, len(seen))
	for cc := range seen {
		ccs = append(ccs, cc)
	}
	sort.Strings(ccs)
	return ccs
}

type lotDedupKey struct {
	plant int
	cell  dedupKey
}

// lotDiseasePct computes one disease organ's lot-wide percentage: the summed
// scores of every plant's de-duplicated cells over the single-plant ceiling.
// The denominator does not scale with the plant count, so the lot percentage
// accumulates across plants.
func lotDiseasePct(records []observation.Record, organ *catalog.OrganSpec, batchSize int) float64 {
	scores := make(map[lotDedupKey]float64)
	order := make([]lotDedupKey, 0, len(records))
	for i := range records {
		r := &records[i]
		key := lotDedupKey{r.Plant, dedupKey{r.Quadrant, r.Branch, r.SubLocation, r.SubLocationIndex}}
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
	if max <= 0 {
		return 0
	}
	return total * 100 / max
}

// ComputeLotSummary derives each entry's overall percentage for one cost
// center from the lot-wide organ totals: per organ the same formulas as the
// plant summary applied to all plants' records at once, then the mean over
// the organs that saw at least one observation. Entries with no observations
// are omitted. Used by the report header.
func ComputeLotSummary(cat catalog.Catalog, records []observation.Record, batchSize int, costCenter string) []LotEntry {
	if costCenter == "" {
		return nil
	}
	var ccRecords []observation.Record
	for i := range records {
		if records[i].CostCenter == costCenter {
			ccRecords = append(ccRecords, records[i])
		}
	}
	if len(ccRecords) == 0 {
		return nil
	}

	var out []LotEntry
	for e := range cat {
		entry := &cat[e]
		if entry.PresenceOnly {
			continue
		}

		var entryRecords []observation.Record
		for i := range ccRecords {
			if ccRecords[i].EntryName == entry.Name {
				entryRecords = append(entryRecords, ccRecords[i])
			}
		}

		var organPcts []float64
		for o := range entry.Organs {
			organ := &entry.Organs[o]
			var organRecords []observation.Record
			for i := range entryRecords {
				if entryRecords[i].Organ == organ.Name {
					organRecords = append(organRecords, entryRecords[i])
				}
			}
			// Unobserved organs stay out of the average.
			if len(organRecords) == 0 {
				continue
			}

			if entry.Kind == catalog.Disease {
				organPcts = append(organPcts, lotDiseasePct(organRecords, organ, batchSize))
			} else {
				organPcts = append(organPcts, pestOrgan(organRecords, organ, batchSize).Average)
			}
		}
		if len(organPcts) == 0 {
			continue
		}

		var sum float64
		for _, pct := range organPcts {
			sum += pct
		}
		out = append(out, LotEntry{
			Name:       entry.Name,
			Kind:       entry.Kind,
			Percentage: sum / float64(len(organPcts)),
		})
	}
	return out
}

// HealthyPlants returns the plants whose every observation for the cost
// center scored zero, sorted ascending. Plants without any record are not
// healthy, they are unobserved.
func HealthyPlants(records []observation.Record, costCenter string) []int {
	scored := make(map[int]bool)
	clean := make(map[int]bool)
	for i := range records {
		r := &records[i]
		if r.CostCenter != costCenter {
			continue
		}
		if !scored[r.Plant] {
			scored[r.Plant] = true
			clean[r.Plant] = true
		}
		if r.Score != 0 {
			clean[r.Plant] = false
		}
	}

	var plants []int
	for p, ok := range clean {
		if ok {
			plants = append(plants, p)
		}
	}
	sort.Ints(plants)
	return plants
}
