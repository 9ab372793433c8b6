package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sigreer/rdisk/internal/ramdisk"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List mounted RAM disks",
	Run:   runList,
}

func init() {
	listCmd.Flags().Bool("json", false, "Output as JSON")
	listCmd.Flags().BoolP("all", "a", false, "include volumes that are not RAM disks")
}

func runList(cmd *cobra.Command, args []string) {
	jsonOut, _ := cmd.Flags().GetBool("json")
	all, _ := cmd.Flags().GetBool("all")

	cfg, log := mustLoad()
	a := newApp(cfg, log, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	volumes, err := a.poller.Scan(ctx)
	if volumes == nil && err != nil {
		fmt.Fprintf(os.Stderr, "Error listing volumes: %v\n", err)
		os.Exit(1)
	}
	if err != nil {
		log.Warn().Err(err).Msg("some volumes could not be described")
	}

	var disks []ramdisk.RawDisk
	for _, v := range volumes {
		if all || cfg.Classification.IsManaged(v) {
			disks = append(disks, v)
		}
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(disks)
		return
	}

	if len(disks) == 0 {
		fmt.Println("No RAM disks mounted.")
		return
	}

	fmt.Printf("%-24s %-10s %-10s %s\n", "NAME", "BSD", "SIZE", "IDENTIFIER")
	fmt.Println(strings.Repeat("-", 85))
	for _, d := range disks {
		size := "-"
		if d.MediaSize > 0 {
			size = humanize.Bytes(uint64(d.MediaSize))
		}
		id := d.MediaUUID
		if id == "" {
			id = "-"
		}
		fmt.Printf("%-24s %-10s %-10s %s\n", d.VolumeName, d.BSDName, size, id)
	}
}
