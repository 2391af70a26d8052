// =============================================================================
// Registration Reconciler - Reconcile Command
// =============================================================================
//
// This file defines the 'reconcile' command, which runs one batch from the
// input ledgers to the attendee roster.
//
// COMMAND USAGE:
//   reconciler reconcile [flags]
//
// FLAGS:
//   --output   : Roster file to write (.csv or .xlsx)
//   --dry-run  : Run every step but do not write or archive anything
//
// EXIT STATUS:
//   Non-zero when any input row is rejected. The previous roster is left in
//   place in that case.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/registration-reconciler/internal/reconciler"
)

// dryRun runs the pipeline without writing output files.
var dryRun bool

// reconcileCmd represents the 'reconcile' command.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile survey submissions against the payment ledger",
	Long: `The reconcile command reads the payment ledger and the survey ledger,
groups the registrants with their companions, verifies every group's payments
and writes the attendee roster.

The run is all-or-nothing: a malformed amount, an unparseable timestamp, a
products field without an amount or a missing required field stops the run
with the file and row of the offending input, and no roster is written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReconcile(cmd)
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().String("output", "", "Roster file to write (.csv or .xlsx)")
	reconcileCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run without writing or archiving")
}

// runReconcile loads the configuration, runs the pipeline and prints a summary.
func runReconcile(cmd *cobra.Command) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if v := outputOverride(cmd, "output"); v != "" {
		cfg.OutputFile = v
	}

	runID := reconciler.NewRunID()
	runLogger := logger.With("run_id", runID)

	result := reconciler.New(cfg,
		reconciler.WithLogger(runLogger),
		reconciler.WithRunID(runID),
		reconciler.WithDryRun(dryRun),
	).Run()

	if result.Error != nil {
		runLogger.Errorw("reconciliation failed", "error", result.Error)
		return result.Error
	}

	stats := result.Stats
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== Reconciliation Complete ===")
	fmt.Fprintf(out, "Payment rows:       %d\n", stats.PaymentRows)
	fmt.Fprintf(out, "Verified payers:    %d\n", stats.PaymentsIndexed)
	fmt.Fprintf(out, "Submissions:        %d (%d duplicate(s) dropped)\n", stats.Submissions, stats.DuplicatesDropped())
	fmt.Fprintf(out, "Groups:             %d (%d unverified)\n", stats.Groups, stats.UnverifiedGroups)
	fmt.Fprintf(out, "Attendees:          %d\n", stats.Attendees)
	if result.OutputFile != "" {
		fmt.Fprintf(out, "Roster:             %s\n", result.OutputFile)
	} else {
		fmt.Fprintln(out, "Roster:             not written (dry run)")
	}
	for _, a := range result.Archived {
		fmt.Fprintf(out, "Archived:           %s\n", a)
	}
	fmt.Fprintf(out, "Time elapsed:       %s\n", stats.ProcessingTime)

	return nil
}
