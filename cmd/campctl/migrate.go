package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/metricmind/campfuse/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run schema evolution and report the result",
	Run:   runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) {
	database, err := db.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	result, err := db.Migrate(database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	if len(result.Applied) == 0 && len(result.Failed) == 0 {
		fmt.Println("schema up to date")
		return
	}
	for _, name := range result.Applied {
		fmt.Printf("applied  %s\n", name)
	}
	for _, name := range result.Failed {
		fmt.Printf("FAILED   %s\n", name)
	}
	if len(result.Failed) > 0 {
		os.Exit(1)
	}
}
