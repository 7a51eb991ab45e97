package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var agentsJSON bool

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the registered agents and execution modes",
	RunE: func(cmd *cobra.Command, args []string) error {
		hub, _, err := newHub()
		if err != nil {
			return err
		}
		defer hub.Close()

		info := hub.Agents()
		out := cmd.OutOrStdout()

		if agentsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "AGENT\tTIMEOUT\tDEPENDS ON\tCAPABILITIES")
		for _, a := range info.Agents {
			deps := make([]string, len(a.DependsOn))
			for i, d := range a.DependsOn {
				deps[i] = string(d)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.ID, a.Timeout, orDash(strings.Join(deps, ",")), orDash(strings.Join(a.Capabilities, ",")))
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		modes := make([]string, len(info.Modes))
		for i, m := range info.Modes {
			modes[i] = string(m)
		}
		fmt.Fprintf(out, "\nExecution modes: %s\n", strings.Join(modes, ", "))

		return nil
	},
}

func init() {
	agentsCmd.Flags().BoolVar(&agentsJSON, "json", false, "print as JSON")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
