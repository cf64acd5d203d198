package reconcile

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grandvalle/fieldscout-go/internal/geo"
	"github.com/grandvalle/fieldscout-go/internal/observation"
)

func TestSessionCaptureAttachesLocation(t *testing.T) {
	s := NewSession(&geo.FixedProvider{Point: observation.Point{Latitude: -9.3, Longitude: -40.9, Accuracy: 6}}, nil)

	err := s.CaptureNumeric(context.Background(), numericInput(1, "ANTRACNOSE", "FOLHA", "Q1", "", score(2)))
	require.NoError(t, err)

	records := s.Records()
	require.Len(t, records, 1)
	assert.Equal(t, -9.3, records[0].Point.Latitude)
	assert.Equal(t, 6.0, records[0].Point.Accuracy)
}

func TestSessionRejectsConcurrentWrite(t *testing.T) {
	release := make(chan struct{})
	slow := geo.ProviderFunc(func(ctx context.Context) (geo.Fix, error) {
		select {
		case <-release:
			return geo.Fix{Point: observation.Point{}, Precise: true}, nil
		case <-ctx.Done():
			return geo.Fix{}, ctx.Err()
		}
	})
	s := NewSession(slow, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	first := make(chan error, 1)
	go func() {
		defer wg.Done()
		first <- s.CaptureNumeric(context.Background(), numericInput(1, "OÍDIO", "FOLHA", "Q1", "", score(1)))
	}()

	// Wait until the first capture holds the busy gate.
	require.Eventually(t, func() bool { return s.busy.Load() }, time.Second, time.Millisecond)

	err := s.CaptureNumeric(context.Background(), numericInput(1, "OÍDIO", "FOLHA", "Q2", "", score(2)))
	assert.ErrorIs(t, err, ErrWriteInFlight)

	close(release)
	wg.Wait()
	require.NoError(t, <-first)

	// The rejected write left no trace; the first one landed.
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1.0, s.Score(1, "OÍDIO", "FOLHA", "Q1", "", "", "1.5.1.01.01"))
}

func TestSessionCancellationDiscardsInput(t *testing.T) {
	stuck := geo.ProviderFunc(func(ctx context.Context) (geo.Fix, error) {
		<-ctx.Done()
		return geo.Fix{}, ctx.Err()
	})
	s := NewSession(stuck, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := s.CaptureNumeric(ctx, numericInput(1, "OÍDIO", "FOLHA", "Q1", "", score(3)))
	require.Error(t, err)
	assert.Zero(t, s.Len())

	// The gate is released after the failed capture.
	assert.False(t, s.busy.Load())
}

func TestSessionToggleAndReads(t *testing.T) {
	s := NewSession(&geo.FixedProvider{}, nil)
	in := &observation.Input{
		Plant: 2, EntryName: "INIMIGOS NATURAIS", Organ: "JOANINHA",
		BatchID: "245", CostCenter: "1.5.1.01.01", Evaluator: "Maria",
	}

	require.NoError(t, s.CaptureToggle(context.Background(), in))
	assert.True(t, s.CheckboxValue(2, "INIMIGOS NATURAIS", "JOANINHA"))

	require.NoError(t, s.CaptureToggle(context.Background(), in))
	assert.False(t, s.CheckboxValue(2, "INIMIGOS NATURAIS", "JOANINHA"))
}

func TestSessionRecordsReturnsCopy(t *testing.T) {
	s := NewSession(&geo.FixedProvider{}, nil)
	require.NoError(t, s.CaptureNumeric(context.Background(), numericInput(1, "OÍDIO", "FOLHA", "Q1", "", score(2))))

	snapshot := s.Records()
	snapshot[0].Score = 99
	assert.Equal(t, 2.0, s.Records()[0].Score)
}
