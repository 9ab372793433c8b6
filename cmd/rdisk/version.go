package main

import (
	"fmt"

	"github.com/sigreer/rdisk/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the rdisk version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rdisk %s\n", version.Version)
	},
}
