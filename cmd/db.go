package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sw33tLie/estform/internal/utils"
	"github.com/sw33tLie/estform/pkg/storage"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Interact with the local record mirror",
}

func mirrorPath() (string, error) {
	dbPath, err := utils.MirrorPath(viper.GetString("records.dbpath"))
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return "", fmt.Errorf("database file not found: %s", dbPath)
	}
	return dbPath, nil
}

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive shell to the mirror database",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := mirrorPath()
		if err != nil {
			return err
		}

		// Check if sqlite3 is in PATH
		sqlitePath, err := exec.LookPath("sqlite3")
		if err != nil {
			return fmt.Errorf("sqlite3 command not found in your PATH. Please install it to use the db shell")
		}

		fmt.Println("--> Database schema:")
		schemaCmd := exec.Command(sqlitePath, dbPath, ".schema")
		schemaCmd.Stdout = os.Stdout
		schemaCmd.Stderr = os.Stderr
		if err := schemaCmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: couldn't retrieve schema: %v\n", err)
		}
		fmt.Println("\n--> Starting interactive shell... (Ctrl+D to exit)")

		c := exec.Command(sqlitePath, dbPath)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr

		return c.Run()
	},
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints how many records the mirror holds.",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := mirrorPath()
		if err != nil {
			return err
		}
		db, err := storage.Open(dbPath, storage.WithLogger(utils.Log))
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := context.Background()
		n, err := db.Count(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Println("The mirror is empty.")
			return nil
		}
		fmt.Printf("%s records in %s\n", humanize.Comma(int64(n)), dbPath)

		recent, err := db.RecentChanges(ctx, 1)
		if err == nil && len(recent) > 0 {
			fmt.Printf("Last change %s\n", humanize.Time(recent[0].OccurredAt))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(shellCmd)
	dbCmd.AddCommand(statsCmd)
	dbCmd.PersistentFlags().String("dbpath", "", "Path to the SQLite mirror (default: ~/.config/estform/records.sqlite)")
	viper.BindPFlag("records.dbpath", dbCmd.PersistentFlags().Lookup("dbpath"))
}
