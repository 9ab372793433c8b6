package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sigreer/rdisk/internal/db"
	"github.com/sigreer/rdisk/internal/monitor"
	"github.com/sigreer/rdisk/internal/ramdisk"
	"github.com/spf13/cobra"
)

var ejectCmd = &cobra.Command{
	Use:   "eject <name|bsd|device|uuid>",
	Short: "Eject a RAM disk, discarding its contents",
	Long: `Eject a RAM disk. The memory behind it is released and its contents
are lost.

Examples:
  rdisk eject Scratch
  rdisk eject disk5
  rdisk eject /dev/disk5`,
	Args: cobra.ExactArgs(1),
	Run:  runEject,
}

func init() {
	ejectCmd.Flags().Duration("timeout", 30*time.Second, "how long to wait for the eject tool")
}

func runEject(cmd *cobra.Command, args []string) {
	query := args[0]
	timeout, _ := cmd.Flags().GetDuration("timeout")

	cfg, log := mustLoad()
	database, err := db.New(cfg.Database)
	if err != nil {
		log.Warn().Err(err).Msg("event history unavailable")
		database = nil
	}
	a := newApp(cfg, log, database)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	volumes, err := a.poller.Scan(ctx)
	if volumes == nil && err != nil {
		fmt.Fprintf(os.Stderr, "Error listing volumes: %v\n", err)
		os.Exit(1)
	}

	var target *ramdisk.RawDisk
	for i := range volumes {
		if cfg.Classification.IsManaged(volumes[i]) && matchesQuery(volumes[i], query) {
			target = &volumes[i]
			break
		}
	}
	if target == nil {
		fmt.Fprintf(os.Stderr, "Not found: %s\n", query)
		os.Exit(1)
	}

	// ejecting needs no disk events
	feed := monitor.NewFeed(0)
	mgr, err := a.manager(feed, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := mgr.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting manager: %v\n", err)
		os.Exit(1)
	}

	disk := ramdisk.NewDisk(wholeDisk(target.BSDName), "", *target)
	err = mgr.Eject(ctx, disk)
	mgr.Close()
	if database != nil {
		database.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error ejecting %s: %v\n", target.VolumeName, err)
		os.Exit(1)
	}
	fmt.Printf("Ejected %s (%s)\n", target.VolumeName, disk.DevicePath)
}
