// Package sync transmits locally persisted survey data to the farm server.
// Packages are deleted from the local store only after the server confirms
// receipt; any failure leaves local data untouched for a later retry.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/grandvalle/fieldscout-go/internal/conf"
	"github.com/grandvalle/fieldscout-go/internal/errors"
	"github.com/grandvalle/fieldscout-go/internal/logging"
	"github.com/grandvalle/fieldscout-go/internal/store"
)

var serviceLogger = logging.ServiceLogger("sync")

// Client talks to the farm sync server.
type Client struct {
	Settings   *conf.Settings
	HTTPClient *http.Client
}

// New creates a sync client with the configured request timeout.
func New(settings *conf.Settings) *Client {
	timeout := time.Duration(settings.Sync.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Client{
		Settings:   settings,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// handleNetworkError converts low-level transport failures into categorized
// errors with a hint about the likely cause.
func (c *Client) handleNetworkError(err error, operation string) error {
	builder := errors.New(err).
		Component("sync").
		Category(errors.CategoryNetwork).
		Context("operation", operation).
		Context("url", c.Settings.Sync.URL)

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return builder.Context("hint", "request timed out, server unreachable or connection too slow").Build()
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return builder.Context("hint", "hostname lookup failed, check the sync URL").Build()
	}
	return builder.Build()
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.Settings.Sync.URL, "/") + path
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.New(err).
			Component("sync").
			Category(errors.CategorySync).
			Context("operation", path).
			Build()
	}

	if c.Settings.Sync.Debug {
		serviceLogger().Debug("sync request", "path", path, "bytes", len(body))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(body))
	if err != nil {
		return errors.New(err).
			Component("sync").
			Category(errors.CategorySync).
			Context("operation", path).
			Build()
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return c.handleNetworkError(err, path)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.handleNetworkError(err, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Newf("server rejected request: %s", resp.Status).
			Component("sync").
			Category(errors.CategorySync).
			Context("operation", path).
			Context("status_code", resp.StatusCode).
			Context("body", truncate(string(respBody), 200)).
			Build()
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return errors.New(err).
				Component("sync").
				Category(errors.CategorySync).
				Context("operation", path).
				Build()
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

type packageResponse struct {
	Total int `json:"total"`
}

// SyncPackages posts all pending packages in one request and returns the
// server-confirmed record total.
func (c *Client) SyncPackages(ctx context.Context, packages []store.Package) (int, error) {
	var resp packageResponse
	if err := c.postJSON(ctx, "/sincronizar-pacote", packages, &resp); err != nil {
		return 0, err
	}
	serviceLogger().Info("packages accepted", "packages", len(packages), "total", resp.Total)
	return resp.Total, nil
}

// SyncIndicators posts the per-plant indicator rows.
func (c *Client) SyncIndicators(ctx context.Context, rows []IndicatorRow) error {
	if len(rows) == 0 {
		return nil
	}
	if err := c.postJSON(ctx, "/sincronizar-relatorio", rows, nil); err != nil {
		return err
	}
	serviceLogger().Info("indicators accepted", "rows", len(rows))
	return nil
}

// CheckConnectivity probes the sync server before a transfer is attempted.
func (c *Client) CheckConnectivity(ctx context.Context) error {
	base, err := url.Parse(c.Settings.Sync.URL)
	if err != nil {
		return errors.New(err).
			Component("sync").
			Category(errors.CategoryConfiguration).
			Context("url", c.Settings.Sync.URL).
			Build()
	}

	probe := fmt.Sprintf("%s://%s/", base.Scheme, base.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probe, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return c.handleNetworkError(err, "connectivity probe")
	}
	resp.Body.Close()
	return nil
}
