// Package reconcile implements the local-first record reconciliation rules:
// identifying the observation cell an input targets, replacing any prior
// occupant (last write wins), and toggling presence-type records. All
// operations are copy-on-write; callers must not assume in-place mutation.
package reconcile

import (
	"strings"

	"github.com/grandvalle/fieldscout-go/internal/errors"
	"github.com/grandvalle/fieldscout-go/internal/logging"
	"github.com/grandvalle/fieldscout-go/internal/observation"
)

var serviceLogger = logging.ServiceLogger("reconcile")

// Validation sentinels. Both are recoverable: the user supplies the missing
// field and retries.
var (
	ErrMissingCostCenter = errors.NewStd("no cost center selected")
	ErrMissingEvaluator  = errors.NewStd("evaluator name is required")
)

func validate(in *observation.Input) error {
	if strings.TrimSpace(in.CostCenter) == "" {
		return errors.New(ErrMissingCostCenter).
			Component("reconcile").
			Category(errors.CategoryValidation).
			Context("plant", in.Plant).
			Build()
	}
	if strings.TrimSpace(in.Evaluator) == "" {
		return errors.New(ErrMissingEvaluator).
			Component("reconcile").
			Category(errors.CategoryValidation).
			Context("plant", in.Plant).
			Build()
	}
	return nil
}

// ApplyNumeric applies one numeric observation to the collection and returns
// the updated collection. The cell the input targets is emptied first; when
// the score is present and non-negative a fresh record is appended, otherwise
// the cell stays empty ("clearing" an entry). The input collection is never
// mutated.
func ApplyNumeric(records []observation.Record, in *observation.Input, point observation.Point) ([]observation.Record, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	cell := in.Cell()
	out := make([]observation.Record, 0, len(records)+1)
	for i := range records {
		if records[i].Cell() != cell {
			out = append(out, records[i])
		}
	}

	if in.Score != nil && *in.Score >= 0 {
		rec := observation.New(in, *in.Score, point)
		out = append(out, rec)
		serviceLogger().Debug("observation applied",
			"plant", in.Plant, "entry", in.EntryName, "organ", in.Organ,
			"quadrant", in.Quadrant, "score", *in.Score)
	} else {
		serviceLogger().Debug("observation cleared",
			"plant", in.Plant, "entry", in.EntryName, "organ", in.Organ, "quadrant", in.Quadrant)
	}

	return out, nil
}

// ToggleCheckbox toggles a presence-type record identified by (plant, entry,
// organ), ignoring quadrant and branch: create with score 1 if absent, delete
// if present. The input collection is never mutated.
func ToggleCheckbox(records []observation.Record, in *observation.Input, point observation.Point) ([]observation.Record, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	key := observation.PresenceKey{Plant: in.Plant, EntryName: in.EntryName, Organ: in.Organ}
	var existing *observation.Record
	for i := range records {
		if records[i].Presence() == key {
			existing = &records[i]
			break
		}
	}

	if existing != nil {
		out := make([]observation.Record, 0, len(records)-1)
		for i := range records {
			if records[i].ID != existing.ID {
				out = append(out, records[i])
			}
		}
		serviceLogger().Debug("presence toggled off", "plant", in.Plant, "entry", in.EntryName, "organ", in.Organ)
		return out, nil
	}

	out := make([]observation.Record, 0, len(records)+1)
	out = append(out, records...)
	out = append(out, observation.New(in, 1, point))
	serviceLogger().Debug("presence toggled on", "plant", in.Plant, "entry", in.EntryName, "organ", in.Organ)
	return out, nil
}

// Score returns the score of the record occupying the given cell for the
// given cost center, or 0 if the cell is empty. A zero return cannot
// distinguish "explicitly scored zero" from "never observed"; this ambiguity
// is inherited from the field workflow and deliberately preserved.
func Score(records []observation.Record, plant int, entry, organ, quadrant, branch, subLocation, costCenter string) float64 {
	for i := range records {
		r := &records[i]
		if r.Plant == plant &&
			r.EntryName == entry &&
			r.Organ == organ &&
			r.Quadrant == quadrant &&
			r.Branch == branch &&
			r.SubLocation == subLocation &&
			r.CostCenter == costCenter {
			return r.Score
		}
	}
	return 0
}

// CheckboxValue reports whether a presence record with score 1 exists for
// (plant, entry, organ).
func CheckboxValue(records []observation.Record, plant int, entry, organ string) bool {
	for i := range records {
		r := &records[i]
		if r.Plant == plant && r.EntryName == entry && r.Organ == organ && r.Score == 1 {
			return true
		}
	}
	return false
}

// CheckCellUniqueness verifies the collection invariant: at most one record
// per cell identity. A violation is an internal consistency error, not a
// user-recoverable condition.
func CheckCellUniqueness(records []observation.Record) error {
	seen := make(map[observation.CellKey]int64, len(records))
	for i := range records {
		cell := records[i].Cell()
		if prior, dup := seen[cell]; dup {
			return errors.Newf("duplicate records %d and %d for one cell", prior, records[i].ID).
				Component("reconcile").
				Category(errors.CategoryState).
				Context("entry", records[i].EntryName).
				Context("organ", records[i].Organ).
				Build()
		}
		seen[cell] = records[i].ID
	}
	return nil
}
