package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sigreer/rdisk/internal/ramdisk"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Track RAM disks until interrupted",
	Long: `Watch the system's volumes and keep track of every RAM disk.

With persistence on, the disks mounted when the previous run ended are
matched against what is present now; any that are missing are created
again. Disks given with --disk are created once the watcher is up.

Examples:
  rdisk run
  rdisk run --disk Scratch:APFS:2GB --disk "Cache:Mac OS Extended (Journaled):512MB"`,
	Run: runDaemon,
}

func init() {
	runCmd.Flags().StringArray("disk", nil, "create a disk at startup, NAME:FS:SIZE (repeatable)")
}

func runDaemon(cmd *cobra.Command, args []string) {
	rawSpecs, _ := cmd.Flags().GetStringArray("disk")
	var specs []diskSpec
	for _, s := range rawSpecs {
		spec, err := parseDiskSpec(s)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		specs = append(specs, spec)
	}

	cfg, log := mustLoad()
	database := mustOpenDB(cfg)
	a := newApp(cfg, log, database)

	mgr, err := a.manager(a.poller, true)
	if err != nil {
		database.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mgr.Subscribe(func() {
		log.Info().Int("disks", len(mgr.Disks())).Msg("mounted ram disks changed")
	})

	if err := mgr.Start(ctx); err != nil {
		closeAll(mgr, database)
		fmt.Fprintf(os.Stderr, "Error starting manager: %v\n", err)
		os.Exit(1)
	}
	log.Info().
		Str("database", database.Path()).
		Bool("persist", mgr.PersistSetup()).
		Dur("poll_interval", cfg.PollInterval).
		Msg("rdisk running")

	for _, spec := range specs {
		mgr.CreateRamDisk(spec.Name, spec.FileSystem, spec.CapacityMB, func(disk *ramdisk.Disk, err error) {
			if err != nil {
				log.Error().Err(err).Str("name", spec.Name).Msg("could not create ram disk")
				return
			}
			log.Info().Str("name", disk.Name()).Str("bsd", disk.BSDName()).Msg("created ram disk")
		})
	}

	select {
	case <-ctx.Done():
	case <-mgr.Done():
	}
	log.Info().Msg("shutting down")

	if err := closeAll(mgr, database); err != nil {
		log.Error().Err(err).Msg("shutdown incomplete")
		os.Exit(1)
	}
}
