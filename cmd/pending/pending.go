// Package pending implements the pending subcommand: show how many packages
// and records await transmission.
package pending

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grandvalle/fieldscout-go/internal/conf"
	"github.com/grandvalle/fieldscout-go/internal/store"
)

// Command creates the pending command.
func Command(settings *conf.Settings) *cobra.Command {
	var countRecords bool

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Show how many packages await transmission",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings, countRecords)
		},
	}

	cmd.Flags().BoolVar(&countRecords, "records", false, "Also count the records inside each package")

	return cmd
}

func run(settings *conf.Settings, countRecords bool) error {
	s := store.NewSQLite(settings)
	if err := s.Open(); err != nil {
		return err
	}
	defer s.Close()

	keys, err := s.Keys(store.PackageKeyPrefix)
	if err != nil {
		return err
	}

	packages := store.CountPendingPackages(keys)
	fmt.Printf("%d packages pending\n", packages)

	if countRecords && packages > 0 {
		total, err := store.CountPendingRecords(s)
		if err != nil {
			return err
		}
		fmt.Printf("%d records pending\n", total)
	}
	return nil
}
