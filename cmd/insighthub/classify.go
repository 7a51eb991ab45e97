package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/insighthub/orchestrator"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <query>",
	Short: "Show how dynamic mode would execute a query",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		d := orchestrator.Classify(strings.Join(args, " "))

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "mode: %s (sequential %d, parallel %d)\n", d.Mode, d.SequentialScore, d.ParallelScore)
		if len(d.Signals) > 0 {
			fmt.Fprintf(out, "signals: %s\n", strings.Join(d.Signals, ", "))
		}
	},
}
