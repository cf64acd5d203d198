// Package report renders the weekly lot inspection report as HTML and
// delivers it by file and email. The percentage tables reuse the aggregation
// engine directly so report numbers always match the on-device summaries.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/grandvalle/fieldscout-go/internal/aggregate"
	"github.com/grandvalle/fieldscout-go/internal/catalog"
	"github.com/grandvalle/fieldscout-go/internal/errors"
	"github.com/grandvalle/fieldscout-go/internal/logging"
	"github.com/grandvalle/fieldscout-go/internal/observation"
)

var serviceLogger = logging.ServiceLogger("report")

// AlertThreshold is the lot-level percentage at or above which an entry is
// highlighted in the report.
const AlertThreshold = 5.0

// brasilia returns the farm's local time zone.
func brasilia() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		return time.FixedZone("-03", -3*60*60)
	}
	return loc
}

type lotLine struct {
	Name       string
	Percentage float64
	Alert      bool
}

type presenceLine struct {
	Plant  int
	Organs []string
}

type plantTable struct {
	Plant   int
	Entries []aggregate.ItemSummary
}

type costCenterSection struct {
	CostCenter string
	Location   string
	Plants     []plantTable
	Healthy    []int
}

type gpsLine struct {
	Plant     int
	Latitude  float64
	Longitude float64
	Imprecise bool
}

type reportData struct {
	BatchID   string
	Evaluator string
	Date      string
	Week      int
	Lot       []lotLine
	Sections  []costCenterSection
	Presence  []presenceLine
	GPS       []gpsLine
}

// Builder assembles the report data from raw records.
type Builder struct {
	Catalog   catalog.Catalog
	Locations catalog.Locations
	BatchSize int
}

func (b *Builder) presenceLines(records []observation.Record) []presenceLine {
	entry, ok := b.Catalog.Find("INIMIGOS NATURAIS")
	if !ok {
		return nil
	}

	byPlant := make(map[int][]string)
	var order []int
	for i := range records {
		r := &records[i]
		if r.EntryName != entry.Name || r.Score != 1 {
			continue
		}
		if _, seen := byPlant[r.Plant]; !seen {
			order = append(order, r.Plant)
		}
		byPlant[r.Plant] = append(byPlant[r.Plant], r.Organ)
	}

	var lines []presenceLine
	for _, plant := range order {
		lines = append(lines, presenceLine{Plant: plant, Organs: byPlant[plant]})
	}
	return lines
}

func (b *Builder) gpsLines(records []observation.Record) []gpsLine {
	seen := make(map[int]bool)
	var lines []gpsLine
	for i := range records {
		r := &records[i]
		if seen[r.Plant] || (r.Point.Latitude == 0 && r.Point.Longitude == 0) {
			continue
		}
		seen[r.Plant] = true
		lines = append(lines, gpsLine{
			Plant:     r.Plant,
			Latitude:  r.Point.Latitude,
			Longitude: r.Point.Longitude,
			Imprecise: r.Point.Accuracy >= observation.FallbackAccuracy,
		})
	}
	return lines
}

func (b *Builder) build(records []observation.Record, batchID, evaluator string) *reportData {
	now := time.Now().In(brasilia())
	_, week := now.ISOWeek()

	data := &reportData{
		BatchID:   batchID,
		Evaluator: evaluator,
		Date:      now.Format("02/01/2006"),
		Week:      week,
		Presence:  b.presenceLines(records),
		GPS:       b.gpsLines(records),
	}

	for _, cc := range aggregate.CostCenters(records) {
		section := costCenterSection{
			CostCenter: cc,
			Healthy:    aggregate.HealthyPlants(records, cc),
		}
		if loc, ok := b.Locations.ByCostCenter(cc); ok {
			section.Location = loc.DisplayName
		}
		for _, plant := range aggregate.Plants(records, cc) {
			section.Plants = append(section.Plants, plantTable{
				Plant:   plant,
				Entries: aggregate.ComputePlantSummary(b.Catalog, records, plant, b.BatchSize, cc),
			})
		}
		data.Sections = append(data.Sections, section)

		for _, entry := range aggregate.ComputeLotSummary(b.Catalog, records, b.BatchSize, cc) {
			data.Lot = append(data.Lot, lotLine{
				Name:       entry.Name,
				Percentage: entry.Percentage,
				Alert:      entry.Percentage >= AlertThreshold,
			})
		}
	}
	return data
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"pct": func(v float64) string { return fmt.Sprintf("%.2f%%", v) },
}).Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>Relatório de Monitoramento - Lote {{.BatchID}}</title>
<style>
body { font-family: sans-serif; font-size: 13px; }
table { border-collapse: collapse; margin-bottom: 12px; }
th, td { border: 1px solid #999; padding: 3px 8px; text-align: left; }
.alert { color: #b00; font-weight: bold; }
h2 { margin-top: 20px; }
.footer { color: #666; font-size: 11px; margin-top: 24px; }
</style>
</head>
<body>
<h1>Relatório de Monitoramento - Lote {{.BatchID}}</h1>
<p>Avaliador: {{.Evaluator}} | Data: {{.Date}} | Semana {{.Week}}</p>

{{if .Lot}}
<h2>Resumo do lote</h2>
<table>
<tr><th>Doença / Praga</th><th>Percentual</th></tr>
{{range .Lot}}
<tr{{if .Alert}} class="alert"{{end}}><td>{{.Name}}</td><td>{{pct .Percentage}}</td></tr>
{{end}}
</table>
{{end}}

{{range .Sections}}
<h2>{{if .Location}}{{.Location}}{{else}}Centro de custo {{.CostCenter}}{{end}} ({{.CostCenter}})</h2>
{{range .Plants}}
<h3>Planta {{.Plant}}</h3>
<table>
<tr><th>Doença / Praga</th><th>Órgão</th><th>Total</th><th>Percentual</th><th>Composto</th></tr>
{{range $item := .Entries}}{{range $item.Organs}}
<tr>
<td>{{$item.Name}}</td>
<td>{{.Name}}</td>
{{if eq (printf "%s" $item.Kind) "doenca"}}<td>{{.TotalScore}}</td><td>{{pct .Percentage}}</td>{{else}}<td>B {{.TotalBorder}} / I {{.TotalInterior}}</td><td>{{pct .Average}}</td>{{end}}
<td>{{pct $item.Composite}}</td>
</tr>
{{end}}{{end}}
</table>
{{end}}
{{if .Healthy}}<p>Plantas sem ocorrências: {{range $i, $p := .Healthy}}{{if $i}}, {{end}}{{$p}}{{end}}</p>{{end}}
{{end}}

{{if .Presence}}
<h2>Inimigos naturais</h2>
<table>
<tr><th>Planta</th><th>Observações</th></tr>
{{range .Presence}}
<tr><td>{{.Plant}}</td><td>{{range $i, $o := .Organs}}{{if $i}}, {{end}}{{$o}}{{end}}</td></tr>
{{end}}
</table>
{{end}}

{{if .GPS}}
<div class="footer">
<p>Coordenadas registradas:</p>
{{range .GPS}}
<p>Planta {{.Plant}}: {{.Latitude}}, {{.Longitude}}{{if .Imprecise}} (coordenada aproximada){{end}}</p>
{{end}}
</div>
{{end}}
</body>
</html>
`))

// Render produces the HTML report for one batch.
func (b *Builder) Render(records []observation.Record, batchID, evaluator string) (string, error) {
	if len(records) == 0 {
		return "", errors.Newf("no records to report for batch %s", batchID).
			Component("report").
			Category(errors.CategoryReport).
			Build()
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, b.build(records, batchID, evaluator)); err != nil {
		return "", errors.New(err).
			Component("report").
			Category(errors.CategoryReport).
			Context("batch_id", batchID).
			Build()
	}
	serviceLogger().Info("report rendered", "batch_id", batchID, "bytes", buf.Len())
	return buf.String(), nil
}
