package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/metricmind/campfuse/internal/resolver"
)

var unmappedSource string

var unmappedCmd = &cobra.Command{
	Use:   "unmapped",
	Short: "List fact campaigns with no active identity mapping",
	Run:   runUnmapped,
}

func init() {
	unmappedCmd.Flags().StringVar(&unmappedSource, "source", "", "limit to one source system")
	rootCmd.AddCommand(unmappedCmd)
}

func runUnmapped(cmd *cobra.Command, args []string) {
	store := mustOpenStore()
	defer store.Close()

	campaigns, err := resolver.Unmapped(store, mustLoadSources(), unmappedSource)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve unmapped: %v\n", err)
		os.Exit(1)
	}
	if len(campaigns) == 0 {
		fmt.Println("no unmapped campaigns")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tCAMPAIGN ID\tNAME\tNETWORK")
	for _, c := range campaigns {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.SourceSystem, c.ExternalCampaignID, c.CampaignName, c.Network)
	}
	w.Flush()
}
