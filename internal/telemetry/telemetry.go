// Package telemetry exposes operational counters for the capture and sync
// flows over a small HTTP endpoint. Enabled only when telemetry.enabled is
// set; field devices normally run without it.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/grandvalle/fieldscout-go/internal/logging"
)

var serviceLogger = logging.ServiceLogger("telemetry")

// Metrics holds the survey counters.
type Metrics struct {
	RecordsApplied   prometheus.Counter
	PackagesSynced   prometheus.Counter
	SyncFailures     prometheus.Counter
	ReportsGenerated prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates and registers the counters on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RecordsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fieldscout", Name: "records_applied_total",
			Help: "Observation records applied to the in-memory collection.",
		}),
		PackagesSynced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fieldscout", Name: "packages_synced_total",
			Help: "Offline packages confirmed by the sync server.",
		}),
		SyncFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fieldscout", Name: "sync_failures_total",
			Help: "Sync attempts that ended in an error.",
		}),
		ReportsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fieldscout", Name: "reports_generated_total",
			Help: "Lot reports rendered.",
		}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(m.RecordsApplied, m.PackagesSynced, m.SyncFailures, m.ReportsGenerated)
	return m
}

// Server serves /metrics and /healthz.
type Server struct {
	echo    *echo.Echo
	metrics *Metrics
}

// NewServer builds the HTTP endpoint around the given metrics.
func NewServer(metrics *Metrics) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/metrics", echo.WrapHandler(
		promhttp.HandlerFor(metrics.registry, promhttp.HandlerOpts{})))
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	return &Server{echo: e, metrics: metrics}
}

// Start listens on addr until the context is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(addr)
	}()
	serviceLogger().Info("telemetry endpoint listening", "addr", addr)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
