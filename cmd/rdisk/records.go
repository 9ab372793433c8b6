package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Show the disks that will be restored on next start",
	Run:   runRecords,
}

func init() {
	recordsCmd.Flags().Bool("json", false, "Output as JSON")
}

func runRecords(cmd *cobra.Command, args []string) {
	jsonOut, _ := cmd.Flags().GetBool("json")

	cfg, _ := mustLoad()
	database := mustOpenDB(cfg)
	defer database.Close()

	records, err := database.LoadRecords()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading records: %v\n", err)
		os.Exit(1)
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(records)
		return
	}

	if len(records) == 0 {
		fmt.Println("No restoration records. Enable with 'rdisk persist on'.")
		return
	}

	fmt.Printf("%-24s %-10s %-10s %-30s %s\n", "NAME", "BSD", "SIZE", "FILE SYSTEM", "IDENTIFIER")
	fmt.Println(strings.Repeat("-", 110))
	for _, r := range records {
		fmt.Printf("%-24s %-10s %-10s %-30s %s\n",
			r.Name, r.BSDName, humanize.Bytes(uint64(r.CapacityBytes)), r.FileSystem.Description(), r.Identifier)
	}
}
