package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sigreer/rdisk/internal/db"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show RAM disk lifecycle history",
	Long: `Show what happened to RAM disks: creations, restorations, renames,
removals and failures, newest first.

Examples:
  rdisk events
  rdisk events --type failed
  rdisk events --identifier 0A81F3B1-51D9-3335-B3E3-169C3640360D`,
	Run: runEvents,
}

func init() {
	eventsCmd.Flags().IntP("limit", "n", 50, "maximum number of events")
	eventsCmd.Flags().String("type", "", "only events of this type")
	eventsCmd.Flags().String("identifier", "", "only events for this disk identifier")
	eventsCmd.Flags().Bool("json", false, "Output as JSON")
}

func runEvents(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	eventType, _ := cmd.Flags().GetString("type")
	identifier, _ := cmd.Flags().GetString("identifier")
	jsonOut, _ := cmd.Flags().GetBool("json")

	cfg, _ := mustLoad()
	database := mustOpenDB(cfg)
	defer database.Close()

	var events []*db.Event
	var err error
	switch {
	case identifier != "":
		events, err = database.GetEventsByIdentifier(identifier, limit)
	case eventType != "":
		events, err = database.GetEventsByType(eventType, limit)
	default:
		events, err = database.GetRecentEvents(limit)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error querying events: %v\n", err)
		os.Exit(1)
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(events)
		return
	}

	if len(events) == 0 {
		fmt.Println("No events recorded.")
		return
	}

	fmt.Printf("%-20s %-11s %-20s %-10s %s\n", "TIME", "TYPE", "NAME", "BSD", "DETAILS")
	fmt.Println(strings.Repeat("-", 100))
	for _, e := range events {
		fmt.Printf("%-20s %-11s %-20s %-10s %s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.EventType, dash(e.Name), dash(e.BSDName), e.Details)
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
