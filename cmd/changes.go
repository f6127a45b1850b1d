package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sw33tLie/estform/internal/utils"
	"github.com/sw33tLie/estform/pkg/storage"
)

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Show recent mirror changes (default 50)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		dbPath, err := utils.MirrorPath(viper.GetString("records.dbpath"))
		if err != nil {
			return err
		}
		if _, err := os.Stat(dbPath); err != nil {
			return fmt.Errorf("mirror not found: %s", dbPath)
		}
		db, err := storage.Open(dbPath, storage.WithLogger(utils.Log))
		if err != nil {
			return err
		}
		defer db.Close()
		changes, err := db.RecentChanges(context.Background(), limit)
		if err != nil {
			return err
		}
		for _, c := range changes {
			fmt.Printf("%-14s  %-7s  %s  %s\n", humanize.Time(c.OccurredAt), c.ChangeType, c.RecordID, c.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(changesCmd)
	changesCmd.Flags().Int("limit", 50, "Number of recent changes to show")
}
