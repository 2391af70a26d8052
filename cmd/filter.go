package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/registration-reconciler/internal/reconciler"
)

// filterCmd represents the 'filter-payments' command.
var filterCmd = &cobra.Command{
	Use:   "filter-payments",
	Short: "Export the payment ledger rows that are registration payments",
	Long: `The filter-payments command keeps the payment ledger rows whose Gross is a
whole multiple of the registration fee (or filter.divisor), optionally above
filter.min_amount, and whose Type is not excluded. Only the columns listed in
filter.columns are written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFilter(cmd)
	},
}

func init() {
	rootCmd.AddCommand(filterCmd)

	filterCmd.Flags().String("output", "", "Filtered ledger to write (.csv or .xlsx)")
	filterCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run without writing")
}

func runFilter(cmd *cobra.Command) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if v := outputOverride(cmd, "filter_output"); v != "" {
		cfg.Filter.OutputFile = v
	}

	result := reconciler.New(cfg,
		reconciler.WithLogger(logger),
		reconciler.WithDryRun(dryRun),
	).RunFilter()
	if result.Error != nil {
		return result.Error
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Kept %d of %d payment row(s)\n", result.RowsKept, result.RowsRead)
	if result.OutputFile != "" {
		fmt.Fprintf(out, "Output: %s\n", result.OutputFile)
	}
	return nil
}
