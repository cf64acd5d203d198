// config.go: settings struct and functions to load and save the FieldScout configuration.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LogConfig contains settings for log file handling.
type LogConfig struct {
	Enabled bool   // true to enable file logging
	Path    string // path to log file
}

// MainSettings contains general application settings.
type MainSettings struct {
	Name string    // name of the node/device running this instance
	Log  LogConfig // main log settings
}

// SurveySettings contains settings for the active inspection survey.
type SurveySettings struct {
	BatchSize       int     // number of plants per batch: 10, 14 or 18
	DefaultBatch    string  // batch/lot label used when none is given on the command line
	Evaluator       string  // default evaluator name
	FallbackLat     float64 // fallback latitude used when GPS acquisition fails
	FallbackLon     float64 // fallback longitude used when GPS acquisition fails
	LocationTimeout int     // GPS acquisition timeout in seconds
}

// SyncSettings contains settings for remote synchronization.
type SyncSettings struct {
	URL             string // base URL of the sync API, e.g. http://192.168.253.18:3005/api
	Timeout         int    // HTTP timeout in seconds
	RequireWifi     bool   // refuse to sync on metered connections (advisory, checked by caller)
	Debug           bool   // true to enable sync debug logging
	IndicatorsAlong bool   // also push per-plant indicator summaries after packages
}

// OutputSettings contains settings for local persistence and report output.
type OutputSettings struct {
	SQLite struct {
		Path string // path to the local SQLite store
	}
	ReportPath string // directory where generated reports are written
}

// ReportSettings contains settings for report generation and delivery.
type ReportSettings struct {
	Recipients []string // email recipients of the generated report
	SMTPURL    string   // shoutrrr SMTP URL, empty to disable email delivery
	Debug      bool     // true to enable report debug logging
}

// TelemetrySettings contains settings for the optional metrics endpoint.
type TelemetrySettings struct {
	Enabled bool   // true to expose prometheus metrics
	Listen  string // listen address and port of telemetry endpoint
}

// Settings is the root configuration struct.
type Settings struct {
	Debug bool // true to enable debug output

	Main      MainSettings
	Survey    SurveySettings
	Sync      SyncSettings
	Output    OutputSettings
	Report    ReportSettings
	Telemetry TelemetrySettings
}

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// Setting returns the current settings instance, or nil before Load has run.
func Setting() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// Set default values for each configuration parameter,
	// function defined in defaults.go
	setDefaultConfig()

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create config with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig creates a default config file and writes it to the default config path
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	settings := &Settings{}
	setDefaultConfig()
	if err := viper.Unmarshal(settings); err != nil {
		return fmt.Errorf("error unmarshaling defaults: %w", err)
	}

	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling default config: %w", err)
	}

	if err := os.WriteFile(configPath, yamlData, 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	return viper.ReadInConfig()
}

// GetDefaultConfigPaths returns the list of directories searched for config.yaml,
// in priority order: working directory first, then the user config directory.
func GetDefaultConfigPaths() ([]string, error) {
	configPaths := []string{"."}

	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		// Fall back to working directory only, e.g. when HOME is unset
		return configPaths, nil
	}

	configPaths = append(configPaths, filepath.Join(userConfigDir, "fieldscout-go"))
	return configPaths, nil
}
