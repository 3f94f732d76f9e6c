package main

import (
	"fmt"
	"os"

	"github.com/aretw0/plangraph/internal/cli"
	"github.com/aretw0/plangraph/pkg/runs"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage stored runs",
	Long:  `List, inspect, and remove runs in the configured store.`,
}

var runsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored runs",
	Run: func(cmd *cobra.Command, args []string) {
		withStore(cmd, func(store *runs.Manager) error {
			return cli.ListRuns(cmd.Context(), store, os.Stdout)
		})
	},
}

var runsInspectCmd = &cobra.Command{
	Use:   "inspect <run-id>",
	Short: "Print a stored run",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		format, _ := cmd.Flags().GetString("format")
		withStore(cmd, func(store *runs.Manager) error {
			return cli.InspectRun(cmd.Context(), store, args[0], format, os.Stdout)
		})
	},
}

var runsRmCmd = &cobra.Command{
	Use:   "rm <run-id>...",
	Short: "Remove one or more runs",
	Args: func(cmd *cobra.Command, args []string) error {
		if all, _ := cmd.Flags().GetBool("all"); all {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	Run: func(cmd *cobra.Command, args []string) {
		all, _ := cmd.Flags().GetBool("all")
		withStore(cmd, func(store *runs.Manager) error {
			ids := args
			if all {
				summaries, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				for _, s := range summaries {
					ids = append(ids, s.ID)
				}
			}
			return cli.RemoveRuns(cmd.Context(), store, ids, os.Stdout)
		})
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsLsCmd)
	runsCmd.AddCommand(runsInspectCmd)
	runsCmd.AddCommand(runsRmCmd)

	runsInspectCmd.Flags().StringP("format", "f", "json", "Output format: text, json, markdown")
	runsRmCmd.Flags().Bool("all", false, "Remove every stored run")
}

func withStore(cmd *cobra.Command, fn func(store *runs.Manager) error) {
	env := loadEnv(cmd)
	store, closeStore, err := cli.OpenStore(cmd.Context(), env.Config.Store, env.Logger)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	err = fn(store)
	closeStore()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
