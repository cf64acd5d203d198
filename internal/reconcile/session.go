package reconcile

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/grandvalle/fieldscout-go/internal/errors"
	"github.com/grandvalle/fieldscout-go/internal/geo"
	"github.com/grandvalle/fieldscout-go/internal/observation"
)

// ErrWriteInFlight is returned when a capture arrives while another one is
// still acquiring its location fix. The caller retries after the first write
// lands; queuing is deliberately not offered.
var ErrWriteInFlight = errors.NewStd("another observation write is in progress")

// Session holds the in-memory record collection for one capture session and
// serializes writes through it. Location acquisition happens outside the
// collection lock, so a slow GPS fix never blocks reads, but only one write
// may be in flight at a time.
type Session struct {
	locations geo.Provider

	mu      sync.RWMutex
	records []observation.Record

	busy atomic.Bool
}

// NewSession creates a session over an initial record collection. The slice
// is adopted as-is; callers hand over ownership.
func NewSession(locations geo.Provider, initial []observation.Record) *Session {
	return &Session{locations: locations, records: initial}
}

// Records returns a snapshot of the current collection.
func (s *Session) Records() []observation.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]observation.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the current number of records.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Session) capture(ctx context.Context, in *observation.Input,
	apply func([]observation.Record, *observation.Input, observation.Point) ([]observation.Record, error)) error {

	if !s.busy.CompareAndSwap(false, true) {
		return errors.New(ErrWriteInFlight).
			Component("reconcile").
			Category(errors.CategoryState).
			Context("plant", in.Plant).
			Build()
	}
	defer s.busy.Store(false)

	fix, err := s.locations.Current(ctx)
	if err != nil {
		// Cancellation discards the pending input entirely.
		return errors.New(err).
			Component("reconcile").
			Category(errors.CategoryLocation).
			Context("plant", in.Plant).
			Build()
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	updated, err := apply(s.records, in, fix.Point)
	if err != nil {
		return err
	}
	s.records = updated
	return nil
}

// CaptureNumeric acquires a location fix and applies one numeric observation.
// A second call while the first is still acquiring its fix fails with
// ErrWriteInFlight.
func (s *Session) CaptureNumeric(ctx context.Context, in *observation.Input) error {
	return s.capture(ctx, in, ApplyNumeric)
}

// CaptureToggle acquires a location fix and toggles one presence record.
func (s *Session) CaptureToggle(ctx context.Context, in *observation.Input) error {
	return s.capture(ctx, in, ToggleCheckbox)
}

// Score reads the score of one cell from the current collection.
func (s *Session) Score(plant int, entry, organ, quadrant, branch, subLocation, costCenter string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Score(s.records, plant, entry, organ, quadrant, branch, subLocation, costCenter)
}

// CheckboxValue reads one presence flag from the current collection.
func (s *Session) CheckboxValue(plant int, entry, organ string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CheckboxValue(s.records, plant, entry, organ)
}
