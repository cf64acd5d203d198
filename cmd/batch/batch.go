// Package batch implements maintenance operations on saved batches.
package batch

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grandvalle/fieldscout-go/internal/conf"
	"github.com/grandvalle/fieldscout-go/internal/store"
)

// Command creates the batch command with its subcommands.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Inspect and maintain saved batches",
	}

	cmd.AddCommand(showCommand(settings), wipePlantCommand(settings))
	return cmd
}

func openStore(settings *conf.Settings) (*store.SQLiteStore, error) {
	s := store.NewSQLite(settings)
	if err := s.Open(); err != nil {
		return nil, err
	}
	return s, nil
}

func showCommand(settings *conf.Settings) *cobra.Command {
	var batchID string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the saved records of a batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(settings)
			if err != nil {
				return err
			}
			defer s.Close()

			records, err := store.LoadBatch(s, batchID)
			if err != nil {
				return err
			}

			fmt.Printf("Batch %s: %d records\n", batchID, len(records))
			for i := range records {
				r := &records[i]
				fmt.Printf("  plant %d  %s / %s  %s%s  score %.0f\n",
					r.Plant, r.EntryName, r.Organ, r.Quadrant, branchSuffix(r.Branch), r.Score)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&batchID, "batch", "", "Batch/lot label")
	_ = cmd.MarkFlagRequired("batch")
	return cmd
}

func branchSuffix(branch string) string {
	if branch == "" {
		return ""
	}
	return "/" + branch
}

func wipePlantCommand(settings *conf.Settings) *cobra.Command {
	var (
		batchID string
		plant   int
	)

	cmd := &cobra.Command{
		Use:   "wipe-plant",
		Short: "Delete every record of one plant from a saved batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(settings)
			if err != nil {
				return err
			}
			defer s.Close()

			removed, err := store.DeletePlant(s, batchID, plant)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d records of plant %d from batch %s\n", removed, plant, batchID)
			return nil
		},
	}

	cmd.Flags().StringVar(&batchID, "batch", "", "Batch/lot label")
	cmd.Flags().IntVar(&plant, "plant", 0, "Plant number to wipe")
	_ = cmd.MarkFlagRequired("batch")
	_ = cmd.MarkFlagRequired("plant")
	return cmd
}
