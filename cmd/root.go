// Package cmd assembles the fieldscout command tree.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/grandvalle/fieldscout-go/cmd/batch"
	"github.com/grandvalle/fieldscout-go/cmd/capture"
	"github.com/grandvalle/fieldscout-go/cmd/pending"
	"github.com/grandvalle/fieldscout-go/cmd/report"
	synccmd "github.com/grandvalle/fieldscout-go/cmd/sync"
	"github.com/grandvalle/fieldscout-go/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fieldscout",
		Short: "FieldScout pest and disease inspection CLI",
	}

	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")

	rootCmd.AddCommand(
		capture.Command(settings),
		synccmd.Command(settings),
		report.Command(settings),
		pending.Command(settings),
		batch.Command(settings),
	)

	return rootCmd
}
