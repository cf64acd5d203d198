// Package sync implements the sync subcommand: transmit pending packages to
// the farm server and clear them locally on confirmation.
package sync

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/grandvalle/fieldscout-go/internal/catalog"
	"github.com/grandvalle/fieldscout-go/internal/conf"
	"github.com/grandvalle/fieldscout-go/internal/store"
	syncsvc "github.com/grandvalle/fieldscout-go/internal/sync"
	"github.com/grandvalle/fieldscout-go/internal/telemetry"
)

// Command creates the sync command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Transmit pending packages to the farm server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), settings)
		},
	}

	cmd.Flags().StringVar(&settings.Sync.URL, "url", viper.GetString("sync.url"), "Base URL of the sync API")
	cmd.Flags().BoolVar(&settings.Sync.IndicatorsAlong, "indicators", viper.GetBool("sync.indicatorsalong"), "Also push per-plant indicator summaries")
	_ = viper.BindPFlags(cmd.Flags())

	return cmd
}

func run(ctx context.Context, settings *conf.Settings) error {
	metrics := telemetry.NewMetrics()
	if settings.Telemetry.Enabled {
		srvCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		srv := telemetry.NewServer(metrics)
		go func() { _ = srv.Start(srvCtx, settings.Telemetry.Listen) }()
	}

	s := store.NewSQLite(settings)
	if err := s.Open(); err != nil {
		return err
	}
	defer s.Close()

	client := syncsvc.New(settings)
	if settings.Sync.RequireWifi {
		if err := client.CheckConnectivity(ctx); err != nil {
			metrics.SyncFailures.Inc()
			return err
		}
	}

	svc := &syncsvc.Service{Store: s, Client: client, Catalog: catalog.Default()}
	result, err := svc.SyncPending(ctx, settings.Survey.BatchSize)
	if err != nil {
		metrics.SyncFailures.Inc()
		return err
	}
	metrics.PackagesSynced.Add(float64(result.Packages))

	if result.Packages == 0 {
		fmt.Println("Nothing to sync")
		return nil
	}
	fmt.Printf("Synced %d packages (%d records confirmed)", result.Packages, result.Records)
	if result.Skipped > 0 {
		fmt.Printf(", %d corrupt packages skipped", result.Skipped)
	}
	if result.IndicatorRows > 0 {
		fmt.Printf(", %d indicator rows pushed", result.IndicatorRows)
	}
	fmt.Println()
	return nil
}
