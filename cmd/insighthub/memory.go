package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/insighthub/core"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect or clear a session's shared memory",
	Long: `Inspect or clear the shared memory of a past session.

Entries outlive the process only with a durable backend (memory.backend set
to redis or sqlite); they expire after memory.ttl.`,
}

var memoryShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print a session's memory entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hub, _, err := newHub()
		if err != nil {
			return err
		}
		defer hub.Close()

		entries, err := hub.SessionMemory(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		return printEntries(cmd.OutOrStdout(), entries)
	},
}

var memoryClearCmd = &cobra.Command{
	Use:   "clear <session-id>",
	Short: "Delete a session's memory entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hub, _, err := newHub()
		if err != nil {
			return err
		}
		defer hub.Close()

		if err := hub.ClearMemory(cmd.Context(), args[0]); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "cleared memory of session %s\n", args[0])
		return nil
	},
}

func init() {
	memoryCmd.AddCommand(memoryShowCmd, memoryClearCmd)
}

func printEntries(w io.Writer, entries []core.MemoryEntry) error {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no entries")
		return nil
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
