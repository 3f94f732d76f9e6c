package main

import (
	"fmt"
	"os"

	"github.com/aretw0/plangraph/internal/cli"
	"github.com/spf13/cobra"
)

// walkCmd represents the walk command
var walkCmd = &cobra.Command{
	Use:   "walk [plan]",
	Short: "Walk a plan and print its snapshot log",
	Long: `Walks the plan breadth-first from its root and prints one line per visit.
The plan is a YAML/JSON plan file or a directory. Without an argument,
plan.yaml, plan.yml or plan.json in the working directory is used, and
failing that the working directory is read as a Markdown plan.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := loadEnv(cmd)
		format, _ := cmd.Flags().GetString("format")
		step, _ := cmd.Flags().GetBool("step")
		watchMode, _ := cmd.Flags().GetBool("watch")
		noSave, _ := cmd.Flags().GetBool("no-save")

		if watchMode && step {
			fmt.Println("Error: --watch and --step cannot be used together.")
			os.Exit(1)
		}

		opts := cli.WalkOptions{
			PlanPath: planArg(args),
			Format:   format,
			Step:     step,
			Persist:  !noSave,
			Input:    os.Stdin,
			Output:   os.Stdout,
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		if watchMode {
			if err := cli.RunWatch(sigCtx, env, opts); err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
			return
		}

		if _, err := cli.RunWalk(sigCtx, env, opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(walkCmd)

	walkCmd.Flags().StringP("format", "f", "text", "Output format: text, json, markdown")
	walkCmd.Flags().Bool("step", false, "Pause after every visit (type quit to stop)")
	walkCmd.Flags().BoolP("watch", "w", false, "Walk again whenever the plan changes")
	walkCmd.Flags().Bool("no-save", false, "Do not persist the run")
}
