package main

import (
	"os"

	"github.com/aretw0/plangraph"
	"github.com/aretw0/plangraph/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of plangraph",
	Run: func(cmd *cobra.Command, args []string) {
		tui.PrintBanner(os.Stdout, plangraph.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
