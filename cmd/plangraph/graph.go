package main

import (
	"fmt"
	"os"

	"github.com/aretw0/plangraph/internal/cli"
	"github.com/aretw0/plangraph/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [plan]",
	Short: "Export the plan graph as a Mermaid diagram",
	Long: `Outputs a Mermaid diagram (graph TD) of the plan. With --run, the final
snapshot of a stored run is drawn instead, with visited and halted nodes
highlighted.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := loadEnv(cmd)
		runID, _ := cmd.Flags().GetString("run")

		if runID == "" {
			g, err := cli.LoadPlanGraph(cmd.Context(), env, planArg(args))
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Print(graph.GenerateMermaid(g, nil))
			return
		}

		store, closeStore, err := cli.OpenStore(cmd.Context(), env.Config.Store, env.Logger)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		defer closeStore()

		run, err := store.Load(cmd.Context(), runID)
		if err != nil {
			fmt.Printf("Error loading run '%s': %v\n", runID, err)
			os.Exit(1)
		}
		g, err := run.Final()
		if err != nil {
			fmt.Printf("Error decoding run '%s': %v\n", runID, err)
			os.Exit(1)
		}
		if g == nil {
			fmt.Printf("Error: run '%s' has no snapshots\n", runID)
			os.Exit(1)
		}
		fmt.Print(graph.GenerateMermaid(g, graph.OverlayOf(g, run.HaltedAt)))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("run", "", "Draw the final snapshot of a stored run")
}
