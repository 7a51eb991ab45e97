package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/insighthub/core"
)

var (
	analyzeMode string
	analyzeJSON bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <query>",
	Short: "Run an analysis session",
	Long: `Run one analysis session and print the final report.

Modes:
  sequential  research and quantitative analysis run one after another
  parallel    research and quantitative analysis run concurrently
  dynamic     the query decides (default)

Interrupting the command cancels the session.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeMode, "mode", "m", "", "execution mode (sequential, parallel, dynamic)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the full session result as JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	hub, cfg, err := newHub()
	if err != nil {
		return err
	}
	defer hub.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           hub.MetricsHandler(),
			ReadHeaderTimeout: 5 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return ctx },
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				fmt.Fprintf(cmd.ErrOrStderr(), "metrics server: %v\n", err)
			}
		}()
		defer srv.Close()
	}

	// An empty mode falls back to orchestrator.default_mode.
	res, err := hub.RunAnalysis(ctx, strings.Join(args, " "), core.ExecutionMode(analyzeMode))
	if res == nil {
		return err
	}

	out := cmd.OutOrStdout()
	if analyzeJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(res); encErr != nil {
			return encErr
		}
		return err
	}

	printResult(out, res)

	return err
}

func printResult(w io.Writer, res *core.SessionResult) {
	fmt.Fprintf(w, "Session %s: %s (%s, %d/%d agents, %s)\n",
		res.SessionID, res.Status, res.ExecutionSummary.ResolvedMode,
		res.ExecutionSummary.AgentsCompleted, res.ExecutionSummary.TotalAgents,
		res.ExecutionSummary.Duration)

	if res.MemoryDegraded {
		fmt.Fprintln(w, "warning: shared memory ran on the in-process fallback")
	}

	if res.Status == core.SessionFailed {
		fmt.Fprintf(w, "error: %s\n", res.Error)
		return
	}

	fmt.Fprintln(w)

	switch {
	case res.FinalReport != nil:
		fmt.Fprintln(w, *res.FinalReport)
	case res.FallbackReport != "":
		fmt.Fprintln(w, res.FallbackReport)
	}

	fmt.Fprintf(w, "\nData quality: %.2f  Research reliability: %.2f\n",
		res.QualityMetrics.DataQualityScore, res.QualityMetrics.ResearchReliabilityScore)
}
