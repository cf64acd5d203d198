// Package report implements the report subcommand: render the lot inspection
// report for a saved batch, write it to disk and optionally email it.
package report

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/grandvalle/fieldscout-go/internal/catalog"
	"github.com/grandvalle/fieldscout-go/internal/conf"
	"github.com/grandvalle/fieldscout-go/internal/errors"
	"github.com/grandvalle/fieldscout-go/internal/report"
	"github.com/grandvalle/fieldscout-go/internal/store"
	"github.com/grandvalle/fieldscout-go/internal/telemetry"
)

type options struct {
	batchID string
	email   bool
}

// Command creates the report command.
func Command(settings *conf.Settings) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the lot inspection report for a saved batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			metrics := telemetry.NewMetrics()
			if settings.Telemetry.Enabled {
				srvCtx, cancel := context.WithCancel(cmd.Context())
				defer cancel()
				srv := telemetry.NewServer(metrics)
				go func() { _ = srv.Start(srvCtx, settings.Telemetry.Listen) }()
			}
			return run(settings, opts, metrics)
		},
	}

	cmd.Flags().StringVar(&opts.batchID, "batch", viper.GetString("survey.defaultbatch"), "Batch/lot label")
	cmd.Flags().BoolVar(&opts.email, "email", false, "Email the report to the configured recipients")

	return cmd
}

func run(settings *conf.Settings, opts *options, metrics *telemetry.Metrics) error {
	if opts.batchID == "" {
		return errors.Newf("no batch label given and survey.defaultbatch is unset").
			Component("report").
			Category(errors.CategoryConfiguration).
			Build()
	}

	s := store.NewSQLite(settings)
	if err := s.Open(); err != nil {
		return err
	}
	defer s.Close()

	records, err := store.LoadBatch(s, opts.batchID)
	if err != nil {
		return err
	}

	evaluator := settings.Survey.Evaluator
	if evaluator == "" && len(records) > 0 {
		evaluator = records[0].Evaluator
	}

	builder := &report.Builder{
		Catalog:   catalog.Default(),
		Locations: catalog.DefaultLocations(),
		BatchSize: settings.Survey.BatchSize,
	}
	html, err := builder.Render(records, opts.batchID, evaluator)
	if err != nil {
		return err
	}

	path, err := report.WriteFile(settings, opts.batchID, html)
	if err != nil {
		return err
	}
	metrics.ReportsGenerated.Inc()
	fmt.Printf("Report written to %s\n", path)

	if opts.email {
		if err := report.Email(settings, opts.batchID, html); err != nil {
			return err
		}
		fmt.Printf("Report emailed to %d recipients\n", len(settings.Report.Recipients))
	}
	return nil
}
