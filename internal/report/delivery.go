package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/k3a/html2text"
	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/grandvalle/fieldscout-go/internal/conf"
	"github.com/grandvalle/fieldscout-go/internal/errors"
)

// FileName returns the canonical report file name for a batch.
func FileName(batchID string, at time.Time) string {
	return fmt.Sprintf("Relatorio_Lote%s_%s.html", batchID, at.Format("2006-01-02"))
}

// WriteFile stores the rendered report under the configured output directory
// and returns the full path.
func WriteFile(settings *conf.Settings, batchID, html string) (string, error) {
	dir := settings.Output.ReportPath
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.New(err).
			Component("report").
			Category(errors.CategoryReport).
			Context("path", dir).
			Build()
	}

	path := filepath.Join(dir, FileName(batchID, time.Now().In(brasilia())))
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return "", errors.New(err).
			Component("report").
			Category(errors.CategoryReport).
			Context("path", path).
			Build()
	}
	serviceLogger().Info("report written", "path", path)
	return path, nil
}

// Email sends the rendered report to the configured recipients through the
// SMTP URL. The HTML is converted to plain text for the message body.
func Email(settings *conf.Settings, batchID, html string) error {
	if settings.Report.SMTPURL == "" {
		return errors.Newf("no smtp url configured").
			Component("report").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if len(settings.Report.Recipients) == 0 {
		return errors.Newf("no report recipients configured").
			Component("report").
			Category(errors.CategoryConfiguration).
			Build()
	}

	body := html2text.HTML2Text(html)

	url := settings.Report.SMTPURL
	if !strings.Contains(url, "toaddresses=") {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url += sep + "toaddresses=" + strings.Join(settings.Report.Recipients, ",")
	}

	sender, err := shoutrrr.CreateSender(url)
	if err != nil {
		return errors.New(err).
			Component("report").
			Category(errors.CategoryConfiguration).
			Build()
	}

	params := stypes.Params{"title": "Relatório de Monitoramento - Lote " + batchID}
	for _, sendErr := range sender.Send(body, &params) {
		if sendErr != nil {
			return errors.New(sendErr).
				Component("report").
				Category(errors.CategoryNetwork).
				Context("batch_id", batchID).
				Build()
		}
	}

	serviceLogger().Info("report emailed",
		"batch_id", batchID, "recipients", len(settings.Report.Recipients))
	return nil
}
