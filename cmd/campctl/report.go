package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/metricmind/campfuse/internal/report"
)

var (
	reportStart    string
	reportEnd      string
	reportPlatform string
	reportNetwork  string
	reportGroupBy  string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print aggregated performance for a date range",
	Run:   runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportStart, "start", "", "start date (YYYY-MM-DD, required)")
	reportCmd.Flags().StringVar(&reportEnd, "end", "", "end date (YYYY-MM-DD, required)")
	reportCmd.Flags().StringVar(&reportPlatform, "platform", "", "filter by platform label")
	reportCmd.Flags().StringVar(&reportNetwork, "network", "", "filter by network label")
	reportCmd.Flags().StringVar(&reportGroupBy, "group-by", "", "comma-separated dimensions (default: full per-campaign per-day set)")
	reportCmd.MarkFlagRequired("start")
	reportCmd.MarkFlagRequired("end")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) {
	for _, d := range []string{reportStart, reportEnd} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			fmt.Fprintf(os.Stderr, "invalid date %q, want YYYY-MM-DD\n", d)
			os.Exit(1)
		}
	}
	dims, err := report.ParseDimensions(reportGroupBy)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	store := mustOpenStore()
	defer store.Close()

	rows, err := report.Unify(store, mustLoadSources(), reportStart, reportEnd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unify: %v\n", err)
		os.Exit(1)
	}

	agg := report.Aggregate(rows, dims, report.Filter{Platform: reportPlatform, Network: reportNetwork})
	if len(agg) == 0 {
		fmt.Println("no rows in range")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PLATFORM\tNETWORK\tDATE\tCAMPAIGN\tIMPR\tCLICKS\tCOST\tCONV\tCTR\tCR\tCPA")
	for _, a := range agg {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%.2f\t%.1f\t%.4f\t%.4f\t%.2f\n",
			a.Platform, a.Network, a.Date, a.DisplayName,
			a.Impressions, a.Clicks, a.Cost, a.Conversions,
			a.CTR, a.ConversionRate, a.CostPerConversion)
	}
	w.Flush()
}
