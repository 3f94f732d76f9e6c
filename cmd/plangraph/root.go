package main

import (
	"fmt"
	"os"

	"github.com/aretw0/plangraph/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "plangraph",
	Short: "plangraph walks typed plan graphs and records a snapshot per visit",
	Long: `plangraph loads a plan graph (a YAML/JSON plan file or a directory of
Markdown documents), walks it breadth-first from its root until a halt rule
matches, and records a full JSON snapshot of the graph after every visit.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./plangraph.yaml if present)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("store", "", "Run store: memory, file, redis, badger, sqlite, postgres")
	rootCmd.PersistentFlags().String("dir", "", "Directory of the file run store")
}

// loadEnv resolves config and flags, exiting on error like every command does.
func loadEnv(cmd *cobra.Command) *cli.Env {
	flags := cli.GlobalFlags{}
	flags.ConfigPath, _ = cmd.Flags().GetString("config")
	flags.LogLevel, _ = cmd.Flags().GetString("log-level")
	flags.Store, _ = cmd.Flags().GetString("store")
	flags.Dir, _ = cmd.Flags().GetString("dir")

	env, err := cli.LoadEnv(flags)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	return env
}

// planArg returns the plan path argument, or "" for the working directory.
func planArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
