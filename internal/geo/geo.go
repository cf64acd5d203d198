// Package geo acquires the GPS fix attached to each observation. A fix is
// always produced: when no live position arrives before the deadline the
// configured fallback coordinate is returned, tagged imprecise so downstream
// consumers can flag it.
package geo

import (
	"context"
	"time"

	"github.com/grandvalle/fieldscout-go/internal/conf"
	"github.com/grandvalle/fieldscout-go/internal/logging"
	"github.com/grandvalle/fieldscout-go/internal/observation"
)

var serviceLogger = logging.ServiceLogger("geo")

// Fix is a tagged coordinate. Precise is false when the point came from the
// fallback coordinate instead of a live source.
type Fix struct {
	Point   observation.Point
	Precise bool
}

// Provider yields the coordinate for the observation being captured. The call
// must honor ctx cancellation.
type Provider interface {
	Current(ctx context.Context) (Fix, error)
}

// ProviderFunc adapts a plain function to the Provider interface.
type ProviderFunc func(ctx context.Context) (Fix, error)

func (f ProviderFunc) Current(ctx context.Context) (Fix, error) { return f(ctx) }

// FixedProvider always returns the same precise point. Useful for bench
// capture sessions and tests.
type FixedProvider struct {
	Point observation.Point
}

func (p *FixedProvider) Current(context.Context) (Fix, error) {
	return Fix{Point: p.Point, Precise: true}, nil
}

// TimeoutProvider races an underlying source against a deadline. When the
// source loses the race the configured fallback coordinate is returned with
// accuracy 999 and no error; cancellation of the parent context is still an
// error because the caller abandoned the capture.
type TimeoutProvider struct {
	Source   Provider
	Timeout  time.Duration
	Fallback observation.Point
}

// NewTimeoutProvider builds a timeout provider from the survey settings.
func NewTimeoutProvider(source Provider, settings *conf.SurveySettings) *TimeoutProvider {
	return &TimeoutProvider{
		Source:  source,
		Timeout: time.Duration(settings.LocationTimeout) * time.Second,
		Fallback: observation.Point{
			Latitude:  settings.FallbackLat,
			Longitude: settings.FallbackLon,
		},
	}
}

func (p *TimeoutProvider) fallbackFix() Fix {
	fb := p.Fallback
	fb.Accuracy = observation.FallbackAccuracy
	fb.CapturedAt = time.Now().UnixMilli()
	return Fix{Point: fb, Precise: false}
}

func (p *TimeoutProvider) Current(ctx context.Context) (Fix, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	inner, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		fix Fix
		err error
	}
	ch := make(chan result, 1)
	go func() {
		fix, err := p.Source.Current(inner)
		ch <- result{fix, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			if ctx.Err() != nil {
				return Fix{}, ctx.Err()
			}
			serviceLogger().Warn("location source failed, using fallback coordinate", "error", res.err)
			return p.fallbackFix(), nil
		}
		return res.fix, nil
	case <-inner.Done():
		if ctx.Err() != nil {
			return Fix{}, ctx.Err()
		}
		serviceLogger().Warn("location fix timed out, using fallback coordinate", "timeout", timeout)
		return p.fallbackFix(), nil
	}
}
