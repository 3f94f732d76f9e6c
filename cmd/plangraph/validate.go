package main

import (
	"fmt"
	"os"

	"github.com/aretw0/plangraph/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [plan]",
	Short: "Check the plan graph for consistency",
	Long: `Crawls the graph from its root. A missing root is an error; nodes the
root cannot reach and cycles are reported as warnings.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := loadEnv(cmd)

		report, err := cli.ValidatePlan(cmd.Context(), env, planArg(args))
		if err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		for _, w := range report.Warnings {
			fmt.Printf("warning: %s\n", w)
		}
		if err := report.Err(); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Graph is valid! %d nodes reachable from root.\n", len(report.Reachable))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
