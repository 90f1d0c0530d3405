/*
planctl - operational sign-off tooling for the plan engine.

COMMANDS:
  parse      Parse and verify a legacy termination report
  yearend    Run the year-end batch against a store
  reconcile  Compare stored snapshots against a legacy report

EXIT CODES:
  0  success; reconcile additionally means a clean run
  1  fault (bad input, store or parse failure)
  2  reconcile found true mismatches or one-sided records
*/
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgerline/plan-engine/legacy"
	"github.com/ledgerline/plan-engine/plan"
	"github.com/ledgerline/plan-engine/reconcile"
	"github.com/ledgerline/plan-engine/store/sqlite"
	"github.com/ledgerline/plan-engine/yearend"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

func main() {
	root := &cobra.Command{
		Use:     "planctl",
		Short:   "Profit-sharing plan engine tooling",
		Long:    "planctl runs the year-end batch and the legacy-parity sign-off checks.",
		Version: version,
	}

	root.AddCommand(parseCmd(), yearendCmd(), reconcileCmd())

	if err := root.Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		// cobra already printed the error
		os.Exit(1)
	}
}

// =============================================================================
// parse
// =============================================================================

func parseCmd() *cobra.Command {
	var latin1 bool
	cmd := &cobra.Command{
		Use:   "parse <report.txt>",
		Short: "Parse and verify a legacy termination report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := loadReport(args[0], latin1)
			if err != nil {
				return err
			}

			fmt.Printf("records: %d\n", len(report.Records))
			fmt.Printf("amount in profit sharing:      %s\n", report.Totals.AmountInProfitSharing.StringFixed(2))
			fmt.Printf("vested amount:                 %s\n", report.Totals.VestedAmount.StringFixed(2))
			fmt.Printf("total forfeitures:             %s\n", report.Totals.TotalForfeitures.StringFixed(2))
			fmt.Printf("total beneficiary allocations: %s\n", report.Totals.TotalBeneficiaryAllocations.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().BoolVar(&latin1, "latin1", false, "Decode the file as ISO-8859-1 before parsing")
	return cmd
}

func loadReport(path string, latin1 bool) (*legacy.TerminationReport, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, codeError(1, "read %s: %s", path, err)
	}
	text := string(raw)
	if latin1 {
		text, err = legacy.DecodeLatin1(bytes.NewReader(raw))
		if err != nil {
			return nil, codeError(1, "decode %s: %s", path, err)
		}
	}
	report, err := legacy.ParseTerminationReport(text, time.Now())
	if err != nil {
		return nil, codeError(1, "parse %s: %s", path, err)
	}
	return report, nil
}

// =============================================================================
// yearend
// =============================================================================

func yearendCmd() *cobra.Command {
	var (
		dbPath      string
		year        int
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "yearend",
		Short: "Run the year-end batch and persist a snapshot run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := sqlite.New(dbPath)
			if err != nil {
				return codeError(1, "open store: %s", err)
			}
			defer store.Close()

			ctx := context.Background()
			participants, err := store.Participants(ctx)
			if err != nil {
				return codeError(1, "load participants: %s", err)
			}

			counters := plan.NewCounters()
			pipeline := &yearend.Pipeline{
				Directory:   store,
				History:     store,
				Schedules:   store,
				Metrics:     counters,
				Concurrency: concurrency,
			}
			snaps, err := pipeline.Run(ctx, year, participants)
			if err != nil {
				return codeError(1, "year-end batch: %s", err)
			}

			runID, err := store.SaveSnapshots(ctx, year, snaps)
			if err != nil {
				return codeError(1, "save snapshots: %s", err)
			}

			fmt.Printf("run %s: %d snapshots for %d\n", runID, len(snaps), year)
			printCounters(counters)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "plan.db", "SQLite database path")
	cmd.Flags().IntVar(&year, "year", time.Now().Year()-1, "Profit year to evaluate")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Parallel participant evaluations (0 = default)")
	return cmd
}

func printCounters(counters *plan.Counters) {
	snapshot := counters.Snapshot()
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-40s %d\n", name, snapshot[name])
	}
}

// =============================================================================
// reconcile
// =============================================================================

func reconcileCmd() *cobra.Command {
	var (
		dbPath string
		year   int
		latin1 bool
	)
	cmd := &cobra.Command{
		Use:   "reconcile <report.txt>",
		Short: "Compare the latest snapshot run against a legacy report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := loadReport(args[0], latin1)
			if err != nil {
				return err
			}

			store, err := sqlite.New(dbPath)
			if err != nil {
				return codeError(1, "open store: %s", err)
			}
			defer store.Close()

			snaps, err := store.LatestSnapshots(context.Background(), year)
			if err != nil {
				return codeError(1, "load snapshots: %s", err)
			}
			if snaps == nil {
				return codeError(1, "no snapshot run for %d; run 'planctl yearend' first", year)
			}

			result, err := reconcile.Run(
				reconcile.FromSnapshots(snaps),
				reconcile.FromTerminations(report.Records),
				reconcile.TerminationPolicy(),
			)
			if err != nil {
				return codeError(1, "reconcile: %s", err)
			}

			fmt.Print(result.Render())
			if !result.Clean() {
				return codeError(2, "%d mismatches, %d only-in-current, %d only-in-legacy",
					len(result.Mismatches), len(result.OnlyInCurrent), len(result.OnlyInLegacy))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "plan.db", "SQLite database path")
	cmd.Flags().IntVar(&year, "year", time.Now().Year()-1, "Profit year to compare")
	cmd.Flags().BoolVar(&latin1, "latin1", false, "Decode the report as ISO-8859-1 before parsing")
	return cmd
}
