// =============================================================================
// Registration Reconciler - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (reconciler)
//   ├── reconcileCmd (reconciler reconcile)
//   ├── filterCmd    (reconciler filter-payments)
//   └── versionCmd   (reconciler version)
//
// CONFIGURATION PRECEDENCE (highest first):
//   1. Command-line flags (--payments, --survey, --output)
//   2. Environment variables (RECONCILER_PAYMENTS, RECONCILER_SURVEY, ...)
//   3. The YAML configuration file (--config)
//   4. Built-in defaults
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ginjaninja78/registration-reconciler/internal/config"
	"github.com/ginjaninja78/registration-reconciler/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// defaultConfigFile is read when present; a missing default is not an error.
const defaultConfigFile = "config.yaml"

// envPrefix prefixes the environment variables that override settings.
const envPrefix = "RECONCILER"

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "reconciler",
	Short: "Registration Reconciler - Match event registrations against payments",
	Long: `Registration Reconciler links the submissions of an event registration
survey to the transactions of a payment ledger and writes an attendee roster.

Each registrant may pay for a group of companions. Submissions are grouped by
overlapping attendee names, every group's payments are verified against the
ledger, and the roster lists one row per attendee with the group's payment
status.

Example Usage:
  reconciler reconcile                              # Use config.yaml or the defaults
  reconciler reconcile --payments paypal.csv --survey Tickets-2019.csv
  reconciler reconcile --output roster.xlsx         # Write a workbook
  reconciler filter-payments --output fees.csv      # Export qualifying payments`,

	// SilenceUsage keeps data errors from printing the usage text.
	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// ==========================================================================
	// PERSISTENT FLAGS
	// ==========================================================================

	flags := rootCmd.PersistentFlags()

	flags.StringVar(&cfgFile, "config", defaultConfigFile, "Path to the configuration file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	flags.String("payments", "", "Payment ledger file (.csv or .xlsx)")
	flags.String("survey", "", "Survey ledger file (.csv or .xlsx)")
	flags.String("archive-dir", "", "Copy both inputs here after a successful run")
	flags.String("log-format", "", "Log format: console or json")

	// ==========================================================================
	// ENVIRONMENT BINDING
	// ==========================================================================

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := bindPersistentFlags(rootCmd, "payments", "survey", "archive-dir", "log-format"); err != nil {
		panic(err)
	}
}

// bindPersistentFlags binds the named persistent flags of cmd to viper keys
// of the same name.
func bindPersistentFlags(cmd *cobra.Command, names ...string) error {
	for _, name := range names {
		if err := viper.BindPFlag(name, cmd.PersistentFlags().Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig loads the configuration file and applies flag and environment
// overrides on top of it.
//
// RETURNS:
//   - The resolved configuration.
//   - A logger built from the configured level and format.
//   - An error if the configuration or the logger cannot be built.
func loadConfig() (*config.Config, *zap.SugaredLogger, error) {
	cfg, err := config.Load(cfgFile, cfgFile == defaultConfigFile)
	if err != nil {
		return nil, nil, err
	}

	if v := viper.GetString("payments"); v != "" {
		cfg.PaymentsFile = v
	}
	if v := viper.GetString("survey"); v != "" {
		cfg.SurveyFile = v
	}
	if v := viper.GetString("archive-dir"); v != "" {
		cfg.ArchiveDir = v
	}
	if v := viper.GetString("log-format"); v != "" {
		cfg.LogFormat = v
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}

	logger, err := logging.New(level, cfg.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return cfg, logger, nil
}

// outputOverride returns the --output flag of cmd, or the environment
// variable key when the flag was not set.
func outputOverride(cmd *cobra.Command, envKey string) string {
	if cmd.Flags().Changed("output") {
		v, _ := cmd.Flags().GetString("output")
		return v
	}
	return viper.GetString(envKey)
}
