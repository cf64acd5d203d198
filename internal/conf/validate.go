// validate.go: validation of loaded settings
package conf

import (
	"fmt"
	"net/url"
	"strings"
)

// validBatchSizes are the batch sizes the scoring formulas have denominators for.
var validBatchSizes = map[int]bool{10: true, 14: true, 18: true}

// ValidateSettings checks the loaded settings for values the rest of the
// application cannot work with. It returns the first problem found.
func ValidateSettings(settings *Settings) error {
	if !validBatchSizes[settings.Survey.BatchSize] {
		return fmt.Errorf("survey.batchsize must be 10, 14 or 18, got %d", settings.Survey.BatchSize)
	}

	if settings.Survey.LocationTimeout <= 0 {
		return fmt.Errorf("survey.locationtimeout must be positive, got %d", settings.Survey.LocationTimeout)
	}

	if settings.Sync.URL != "" {
		parsed, err := url.Parse(settings.Sync.URL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("sync.url is not a valid URL: %q", settings.Sync.URL)
		}
	}

	if settings.Sync.Timeout <= 0 {
		return fmt.Errorf("sync.timeout must be positive, got %d", settings.Sync.Timeout)
	}

	if strings.TrimSpace(settings.Output.SQLite.Path) == "" {
		return fmt.Errorf("output.sqlite.path must not be empty")
	}

	return nil
}
