package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sw33tLie/estform/internal/utils"
	"github.com/sw33tLie/estform/pkg/records"
	"github.com/sw33tLie/estform/pkg/storage"
)

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Copy the partner directory into the local SQLite mirror",
	RunE: func(cmd *cobra.Command, _ []string) error {
		retries, _ := cmd.Flags().GetInt("retries")
		quiet, _ := cmd.Flags().GetBool("quiet")
		lockTimeout, _ := cmd.Flags().GetDuration("lock-timeout")

		src, err := newAirtable(retries)
		if err != nil {
			return err
		}
		path, err := utils.MirrorPath(viper.GetString("records.dbpath"))
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}

		lockCtx, cancel := context.WithTimeout(context.Background(), lockTimeout)
		lock, err := utils.LockMirror(lockCtx, path, time.Second)
		cancel()
		if err != nil {
			return err
		}
		defer lock.Release()

		db, err := storage.Open(path, storage.WithLogger(utils.Log))
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := context.Background()
		var all []records.Record
		err = src.List(ctx, func(page []records.Record) error {
			all = append(all, page...)
			utils.Log.Debugf("Fetched %s records", humanize.Comma(int64(len(all))))
			return nil
		})
		if err != nil {
			return fmt.Errorf("fetching records: %w", err)
		}

		changes, sum, err := db.Sync(ctx, all)
		if err != nil {
			if errors.Is(err, storage.ErrEmptyUpstream) {
				utils.Log.Errorf("The directory returned no records but the mirror has some. Skipping sync to prevent data loss.")
				return nil
			}
			return err
		}

		if !quiet {
			printChanges(changes)
		}
		fmt.Printf("Mirrored %s records into %s: %s added, %s updated, %s removed, %s unchanged\n",
			humanize.Comma(int64(len(all))), path,
			humanize.Comma(int64(sum.Added)), humanize.Comma(int64(sum.Updated)),
			humanize.Comma(int64(sum.Removed)), humanize.Comma(int64(sum.Unchanged)))
		return nil
	},
}

func printChanges(changes []storage.Change) {
	for _, c := range changes {
		var mark string
		switch c.ChangeType {
		case "added":
			mark = "+"
		case "updated":
			mark = "~"
		case "removed":
			mark = "-"
		}
		fmt.Printf("%s  %s  %s\n", mark, c.RecordID, c.Name)
	}
}

func init() {
	rootCmd.AddCommand(mirrorCmd)
	mirrorCmd.Flags().Int("retries", 3, "Retries per page on transient failures")
	mirrorCmd.Flags().BoolP("quiet", "q", false, "Only print the summary")
	mirrorCmd.Flags().Duration("lock-timeout", 10*time.Minute, "How long to wait for another sync of the same mirror")
}
