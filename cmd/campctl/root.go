package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/metricmind/campfuse/internal/db"
	"github.com/metricmind/campfuse/internal/sources"
)

var (
	dbPath      string
	sourcesPath string
)

var rootCmd = &cobra.Command{
	Use:   "campctl",
	Short: "Operator tooling for the campaign reconciliation store",
	Long:  "Inspect and maintain the campaign identity mappings, unmapped campaigns and unified metrics from the command line.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", envOrDefault("CAMPFUSE_DB_PATH", "./campfuse.db"), "path to the SQLite database")
	rootCmd.PersistentFlags().StringVar(&sourcesPath, "sources", os.Getenv("CAMPFUSE_SOURCES_PATH"), "path to a sources YAML file (defaults built in)")
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func mustOpenStore() *db.Store {
	store, err := db.OpenStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	return store
}

func mustLoadSources() []sources.Source {
	srcs, err := sources.Load(sourcesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load sources: %v\n", err)
		os.Exit(1)
	}
	return srcs
}
