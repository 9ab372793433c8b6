package main

import (
	"fmt"
	"os"

	"github.com/sigreer/rdisk/internal/db"
	"github.com/spf13/cobra"
)

var persistCmd = &cobra.Command{
	Use:   "persist [on|off]",
	Short: "Show or change whether disks are restored after a restart",
	Long: `Show or change the persist setting.

Turning it off removes the saved restoration records. A running 'rdisk run'
picks the change up on its next start.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"on", "off"},
	Run:       runPersist,
}

func runPersist(cmd *cobra.Command, args []string) {
	cfg, _ := mustLoad()
	database := mustOpenDB(cfg)
	defer database.Close()

	if len(args) == 0 {
		enabled, found, err := database.GetBool(db.SettingPersistSetup)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading setting: %v\n", err)
			os.Exit(1)
		}
		if !found {
			enabled = cfg.PersistSetup
		}
		fmt.Println(onOff(enabled))
		return
	}

	var enabled bool
	switch args[0] {
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		fmt.Fprintf(os.Stderr, "Error: expected on or off, got %q\n", args[0])
		os.Exit(1)
	}

	if err := database.SetBool(db.SettingPersistSetup, enabled); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving setting: %v\n", err)
		os.Exit(1)
	}
	if !enabled {
		if err := database.ClearRecords(); err != nil {
			fmt.Fprintf(os.Stderr, "Error clearing records: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("Persist setup: %s\n", onOff(enabled))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
