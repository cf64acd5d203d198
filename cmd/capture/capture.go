// Package capture implements the capture subcommand: apply a file of raw
// observation inputs to a batch and persist the result for later sync.
package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/grandvalle/fieldscout-go/internal/catalog"
	"github.com/grandvalle/fieldscout-go/internal/conf"
	"github.com/grandvalle/fieldscout-go/internal/errors"
	"github.com/grandvalle/fieldscout-go/internal/geo"
	"github.com/grandvalle/fieldscout-go/internal/observation"
	"github.com/grandvalle/fieldscout-go/internal/reconcile"
	"github.com/grandvalle/fieldscout-go/internal/store"
	"github.com/grandvalle/fieldscout-go/internal/telemetry"
)

// inputLine is one observation in the capture file, using the same field
// dialect as the sync wire format. Checkbox lines toggle presence records.
type inputLine struct {
	Plant            int      `json:"planta"`
	Entry            string   `json:"doencaOuPraga"`
	Organ            string   `json:"orgao"`
	Quadrant         string   `json:"quadrante"`
	Branch           string   `json:"ramo"`
	SubLocation      string   `json:"identificadorDeLocal"`
	SubLocationIndex int      `json:"numeroLocal"`
	Score            *float64 `json:"nota"`
	Checkbox         bool     `json:"checkbox"`
}

type options struct {
	inputPath  string
	batchID    string
	costCenter string
	evaluator  string
	lat        float64
	lon        float64
	manualGPS  bool
}

// Command creates the capture command.
func Command(settings *conf.Settings) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Apply observation inputs to a batch and persist them",
		Long: "Read a JSON file of observation inputs, reconcile them into the " +
			"batch collection and save the result locally for later sync.",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.manualGPS = cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon")
			ctx := cmd.Context()
			metrics := telemetry.NewMetrics()
			if settings.Telemetry.Enabled {
				srvCtx, cancel := context.WithCancel(ctx)
				defer cancel()
				srv := telemetry.NewServer(metrics)
				go func() { _ = srv.Start(srvCtx, settings.Telemetry.Listen) }()
			}
			return run(ctx, settings, opts, metrics)
		},
	}

	cmd.Flags().StringVarP(&opts.inputPath, "input", "i", "", "Path to the JSON file of observation inputs")
	cmd.Flags().StringVar(&opts.batchID, "batch", viper.GetString("survey.defaultbatch"), "Batch/lot label")
	cmd.Flags().StringVar(&opts.costCenter, "costcenter", "", "Cost center code of the surveyed location")
	cmd.Flags().StringVar(&opts.evaluator, "evaluator", viper.GetString("survey.evaluator"), "Evaluator name")
	cmd.Flags().Float64Var(&opts.lat, "lat", 0, "Manual latitude for every record")
	cmd.Flags().Float64Var(&opts.lon, "lon", 0, "Manual longitude for every record")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("costcenter")

	return cmd
}

func locationProvider(settings *conf.Settings, opts *options) geo.Provider {
	if opts.manualGPS {
		return &geo.FixedProvider{Point: observation.Point{
			Latitude:   opts.lat,
			Longitude:  opts.lon,
			CapturedAt: time.Now().UnixMilli(),
		}}
	}
	// No positioning hardware attached: the timeout provider degrades to the
	// configured farm coordinate, tagged imprecise.
	unavailable := geo.ProviderFunc(func(ctx context.Context) (geo.Fix, error) {
		<-ctx.Done()
		return geo.Fix{}, ctx.Err()
	})
	return geo.NewTimeoutProvider(unavailable, &settings.Survey)
}

func readInputs(path string) ([]inputLine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(err).
			Component("capture").
			Category(errors.CategoryValidation).
			Context("path", path).
			Build()
	}
	var lines []inputLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, errors.New(err).
			Component("capture").
			Category(errors.CategoryValidation).
			Context("path", path).
			Build()
	}
	return lines, nil
}

func validateLine(cat catalog.Catalog, line *inputLine, batchSize int) error {
	invalid := func(format string, args ...any) error {
		return errors.Newf(format, args...).
			Component("capture").
			Category(errors.CategoryValidation).
			Context("plant", line.Plant).
			Context("entry", line.Entry).
			Build()
	}

	if line.Plant < 1 || line.Plant > batchSize {
		return invalid("plant %d outside batch range 1..%d", line.Plant, batchSize)
	}

	entry, ok := cat.Find(line.Entry)
	if !ok {
		return invalid("unknown disease or pest: %s", line.Entry)
	}
	organ, ok := entry.Organ(line.Organ)
	if !ok {
		return invalid("entry %s has no organ %s", line.Entry, line.Organ)
	}
	if line.Checkbox && !entry.PresenceOnly {
		return invalid("entry %s is not a presence checklist", line.Entry)
	}
	if !line.Checkbox && entry.PresenceOnly {
		return invalid("entry %s only accepts checkbox lines", line.Entry)
	}

	if line.Quadrant != "" && !slices.Contains(catalog.Quadrants, line.Quadrant) {
		return invalid("invalid quadrant %s", line.Quadrant)
	}
	if entry.Kind == catalog.Disease && !entry.PresenceOnly && line.Quadrant == "" {
		return invalid("entry %s requires a quadrant", line.Entry)
	}

	if organ.RequiresBranch {
		if !slices.Contains(catalog.Branches, line.Branch) {
			return invalid("organ %s requires branch R1 or R2, got %q", line.Organ, line.Branch)
		}
	} else if line.Branch != "" {
		return invalid("organ %s does not take a branch", line.Organ)
	}

	if entry.HasSubLocations() {
		if !slices.Contains(entry.SubLocations, line.SubLocation) {
			return invalid("entry %s requires a sub-location of %v", line.Entry, entry.SubLocations)
		}
	} else if line.SubLocation != "" {
		return invalid("entry %s does not take a sub-location", line.Entry)
	}
	return nil
}

func run(ctx context.Context, settings *conf.Settings, opts *options, metrics *telemetry.Metrics) error {
	if opts.batchID == "" {
		return errors.Newf("no batch label given and survey.defaultbatch is unset").
			Component("capture").
			Category(errors.CategoryConfiguration).
			Build()
	}

	lines, err := readInputs(opts.inputPath)
	if err != nil {
		return err
	}

	cat := catalog.Default()
	if err := cat.Validate(); err != nil {
		return err
	}

	s := store.NewSQLite(settings)
	if err := s.Open(); err != nil {
		return err
	}
	defer s.Close()

	existing, err := store.LoadBatch(s, opts.batchID)
	if err != nil {
		return err
	}

	session := reconcile.NewSession(locationProvider(settings, opts), existing)
	for i := range lines {
		line := &lines[i]
		if err := validateLine(cat, line, settings.Survey.BatchSize); err != nil {
			return err
		}
		in := &observation.Input{
			Plant:            line.Plant,
			EntryName:        line.Entry,
			Organ:            line.Organ,
			Quadrant:         line.Quadrant,
			Branch:           line.Branch,
			SubLocation:      line.SubLocation,
			SubLocationIndex: line.SubLocationIndex,
			Score:            line.Score,
			BatchID:          opts.batchID,
			CostCenter:       opts.costCenter,
			Evaluator:        opts.evaluator,
		}
		if line.Checkbox {
			err = session.CaptureToggle(ctx, in)
		} else {
			err = session.CaptureNumeric(ctx, in)
		}
		if err != nil {
			return err
		}
	}

	records := session.Records()
	if err := reconcile.CheckCellUniqueness(records); err != nil {
		return err
	}

	// Replace the saved batch wholesale: the session already merged the
	// previously saved records.
	if err := s.Delete(store.BatchKey(opts.batchID)); err != nil {
		return err
	}
	if err := store.SaveBatch(s, opts.batchID, records); err != nil {
		return err
	}

	// One offline package per plant touched by this capture run.
	touched := make(map[int]bool)
	for i := range lines {
		touched[lines[i].Plant] = true
	}
	now := time.Now()
	for plant := range touched {
		var plantRecords []observation.Record
		for i := range records {
			if records[i].Plant == plant {
				plantRecords = append(plantRecords, records[i])
			}
		}
		pkg := &store.Package{
			Header: store.PackageHeader{
				BatchID:    opts.batchID,
				Plant:      plant,
				CostCenter: opts.costCenter,
				Evaluator:  opts.evaluator,
				SavedAt:    now.Format(time.RFC3339),
			},
			Records: plantRecords,
		}
		if err := store.SavePackage(s, pkg, now.UnixMilli()); err != nil {
			return err
		}
	}

	metrics.RecordsApplied.Add(float64(len(lines)))
	fmt.Printf("Applied %d inputs, batch %s now holds %d records across %d plants\n",
		len(lines), opts.batchID, len(records), len(touched))
	return nil
}
