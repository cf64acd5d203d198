// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "FieldScout-Go")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "fieldscout.log")

	viper.SetDefault("survey.batchsize", 10)
	viper.SetDefault("survey.defaultbatch", "")
	viper.SetDefault("survey.evaluator", "")
	// Fazenda Grand Valle headquarters, used when GPS acquisition fails
	viper.SetDefault("survey.fallbacklat", -9.287495)
	viper.SetDefault("survey.fallbacklon", -40.878419)
	viper.SetDefault("survey.locationtimeout", 5)

	viper.SetDefault("sync.url", "http://192.168.253.18:3005/api")
	viper.SetDefault("sync.timeout", 45)
	viper.SetDefault("sync.requirewifi", true)
	viper.SetDefault("sync.debug", false)
	viper.SetDefault("sync.indicatorsalong", true)

	viper.SetDefault("output.sqlite.path", "fieldscout.db")
	viper.SetDefault("output.reportpath", "reports/")

	viper.SetDefault("report.recipients", []string{"flavimar@grandvalle.com"})
	viper.SetDefault("report.smtpurl", "")
	viper.SetDefault("report.debug", false)

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.listen", "0.0.0.0:8090")
}
