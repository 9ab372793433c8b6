package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sigreer/rdisk/internal/db"
	"github.com/sigreer/rdisk/internal/ramdisk"
	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create and mount a RAM disk",
	Long: `Allocate a memory-backed device, format it and wait for the volume
to mount.

Sizes are decimal: 1 MB is 1,000,000 bytes. A bare number means MB.

Examples:
  rdisk create Scratch
  rdisk create Build --size 4GB --fs "Case-sensitive APFS"
  rdisk create Cache --size 512 --fs "Mac OS Extended (Journaled)"`,
	Args: cobra.ExactArgs(1),
	Run:  runCreate,
}

func init() {
	createCmd.Flags().String("fs", string(ramdisk.APFS), "file system, token or description")
	createCmd.Flags().StringP("size", "s", "512MB", "capacity")
	createCmd.Flags().Duration("timeout", 30*time.Second, "how long to wait for the volume to mount")
	createCmd.Flags().Bool("json", false, "Output as JSON")
}

func runCreate(cmd *cobra.Command, args []string) {
	name := args[0]
	fsFlag, _ := cmd.Flags().GetString("fs")
	sizeFlag, _ := cmd.Flags().GetString("size")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	jsonOut, _ := cmd.Flags().GetBool("json")

	fs, err := ramdisk.ParseFileSystem(fsFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	mb, err := parseCapacity(sizeFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, log := mustLoad()

	// history is best effort here
	database, err := db.New(cfg.Database)
	if err != nil {
		log.Warn().Err(err).Msg("event history unavailable")
		database = nil
	}
	a := newApp(cfg, log, database)

	mgr, err := a.manager(a.poller, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting manager: %v\n", err)
		os.Exit(1)
	}

	disk, err := mgr.Create(ctx, name, fs, mb)
	mgr.Close()
	if database != nil {
		database.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", name, err)
		os.Exit(1)
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(disk.Record())
		return
	}
	fmt.Println(disk)
}
