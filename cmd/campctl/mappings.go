package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/metricmind/campfuse/internal/models"
)

var mappingsSource string

var mappingsCmd = &cobra.Command{
	Use:   "mappings",
	Short: "List active identity mappings",
	Run:   runMappings,
}

func init() {
	mappingsCmd.Flags().StringVar(&mappingsSource, "source", "", "limit to one source system")
	rootCmd.AddCommand(mappingsCmd)
}

func runMappings(cmd *cobra.Command, args []string) {
	store := mustOpenStore()
	defer store.Close()

	mappings, err := models.ListMappings(store, mappingsSource)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list mappings: %v\n", err)
		os.Exit(1)
	}
	if len(mappings) == 0 {
		fmt.Println("no active mappings")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tCAMPAIGN ID\tDISPLAY NAME\tCATEGORY\tORDER")
	for _, m := range mappings {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\n",
			m.ID, m.SourceSystem, m.ExternalCampaignID, m.DisplayName, m.Category, m.DisplayOrder)
	}
	w.Flush()
}
