// =============================================================================
// Registration Reconciler - Configuration Module
// =============================================================================
//
// This module loads the YAML configuration of a reconciliation run. Every
// setting has a default, so the tool also runs without a config file using
// the conventional file names in the working directory.
//
// CONFIGURATION FILE (config.yaml):
//   payments_file: paypal.csv
//   survey_file: Tickets-2019.csv
//   output_file: output.csv
//   registration_fee: "50"
//   name_corrections:
//     Bari Specter: Bari Spector
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	DefaultPaymentsFile    = "paypal.csv"
	DefaultSurveyFile      = "Tickets-2019.csv"
	DefaultOutputFile      = "output.csv"
	DefaultRegistrationFee = "50"
	DefaultCurrencySymbol  = "$"
	DefaultFilterOutput    = "filtered_payments.csv"
	DefaultSurveySkipRows  = 1

	// DefaultAmountPattern extracts the paid amount from the survey products
	// field. The first capture group is the amount; thousands separators are
	// allowed and stripped before parsing.
	DefaultAmountPattern = `Total: \$?([0-9][0-9,]*\.[0-9]+)`
)

// DefaultFilterColumns are the ledger columns kept by the payment filter.
var DefaultFilterColumns = []string{"Date", "Time", "Name", "Type", "Gross", "From Email Address"}

// DefaultFilterExcludedTypes are the ledger transaction types the payment
// filter drops.
var DefaultFilterExcludedTypes = []string{"General Withdrawal"}

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the configuration of a reconciliation run.
type Config struct {
	// =========================================================================
	// FILES
	// =========================================================================

	// PaymentsFile is the payment ledger (.csv or .xlsx), one row per transaction.
	PaymentsFile string `yaml:"payments_file"`

	// SurveyFile is the survey ledger (.csv or .xlsx), one row per submission.
	SurveyFile string `yaml:"survey_file"`

	// OutputFile is the roster to write (.csv or .xlsx).
	OutputFile string `yaml:"output_file"`

	// ArchiveDir, when set, receives a copy of both inputs after a
	// successful run.
	ArchiveDir string `yaml:"archive_dir"`

	// =========================================================================
	// RECONCILIATION RULES
	// =========================================================================

	// RegistrationFee is the group registration fee. Only ledger transactions
	// whose amount is a whole multiple of it are indexed as verified payments.
	RegistrationFee string `yaml:"registration_fee"`

	// ExcludedPaymentTypes are ledger "Type" values never indexed.
	ExcludedPaymentTypes []string `yaml:"excluded_payment_types"`

	// AmountPattern is the regular expression that extracts the paid amount
	// from the survey products field.
	AmountPattern string `yaml:"amount_pattern"`

	// NameCorrections maps known misspelled names to the corrected name.
	// Leave unset for the built-in table; set to {} to disable corrections.
	NameCorrections map[string]string `yaml:"name_corrections"`

	// CurrencySymbol prefixes every formatted amount in the roster.
	CurrencySymbol string `yaml:"currency_symbol"`

	// =========================================================================
	// PARSING
	// =========================================================================

	// CSVSettings applies to both ledgers.
	CSVSettings CSVSettings `yaml:"csv_settings"`

	// SurveySkipRows is the number of leading survey rows that are not data.
	// Default: 1. An explicit 0 reads every row as data.
	SurveySkipRows *int `yaml:"survey_skip_rows"`

	// =========================================================================
	// LOGGING
	// =========================================================================

	// LogLevel: "debug", "info", "warn", "error". Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat: "console" or "json". Default: "console"
	LogFormat string `yaml:"log_format"`

	// =========================================================================
	// PAYMENT FILTER
	// =========================================================================

	// Filter configures the filter-payments command.
	Filter FilterSettings `yaml:"filter"`

	// registrationFee is RegistrationFee parsed by validate.
	registrationFee decimal.Decimal
}

// CSVSettings contains settings for reading delimited text.
type CSVSettings struct {
	// Delimiter separates fields. Accepts ",", "tab", "pipe", ";".
	// Default: ","
	Delimiter string `yaml:"delimiter"`
}

// FilterSettings configures the qualifying-payment export.
type FilterSettings struct {
	// OutputFile is where the filtered ledger is written.
	OutputFile string `yaml:"output_file"`

	// Columns are the ledger columns copied to the output, in order.
	Columns []string `yaml:"columns"`

	// Divisor: a row qualifies when Gross is a whole multiple of it.
	// Default: the registration fee.
	Divisor string `yaml:"divisor"`

	// MinAmount: when set, a row qualifies only when Gross is strictly greater.
	MinAmount string `yaml:"min_amount"`

	// ExcludedTypes are ledger "Type" values that never qualify.
	ExcludedTypes []string `yaml:"excluded_types"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return cfg
}

// Load loads the configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the configuration file.
//   - optional: When true, a missing file yields the default configuration.
//
// RETURNS:
//   - A pointer to the validated Config.
//   - An error if the file cannot be read, parsed or validated.
func Load(configPath string, optional bool) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse parses YAML configuration bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.PaymentsFile == "" {
		cfg.PaymentsFile = DefaultPaymentsFile
	}
	if cfg.SurveyFile == "" {
		cfg.SurveyFile = DefaultSurveyFile
	}
	if cfg.OutputFile == "" {
		cfg.OutputFile = DefaultOutputFile
	}
	if cfg.RegistrationFee == "" {
		cfg.RegistrationFee = DefaultRegistrationFee
	}
	if cfg.AmountPattern == "" {
		cfg.AmountPattern = DefaultAmountPattern
	}
	if cfg.CurrencySymbol == "" {
		cfg.CurrencySymbol = DefaultCurrencySymbol
	}
	if cfg.CSVSettings.Delimiter == "" {
		cfg.CSVSettings.Delimiter = ","
	}
	if cfg.SurveySkipRows == nil {
		skip := DefaultSurveySkipRows
		cfg.SurveySkipRows = &skip
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "console"
	}

	// Filter defaults.
	if cfg.Filter.OutputFile == "" {
		cfg.Filter.OutputFile = DefaultFilterOutput
	}
	if len(cfg.Filter.Columns) == 0 {
		cfg.Filter.Columns = append([]string(nil), DefaultFilterColumns...)
	}
	if cfg.Filter.Divisor == "" {
		cfg.Filter.Divisor = cfg.RegistrationFee
	}
	if cfg.Filter.ExcludedTypes == nil {
		cfg.Filter.ExcludedTypes = append([]string(nil), DefaultFilterExcludedTypes...)
	}
}

// validate checks the configuration and parses derived values.
func validate(cfg *Config) error {
	fee, err := parsePositive("registration_fee", cfg.RegistrationFee)
	if err != nil {
		return err
	}
	cfg.registrationFee = fee

	if _, err := parsePositive("filter.divisor", cfg.Filter.Divisor); err != nil {
		return err
	}
	if cfg.Filter.MinAmount != "" {
		if _, err := decimal.NewFromString(cfg.Filter.MinAmount); err != nil {
			return fmt.Errorf("filter.min_amount %q is not a decimal: %w", cfg.Filter.MinAmount, err)
		}
	}

	re, err := regexp.Compile(cfg.AmountPattern)
	if err != nil {
		return fmt.Errorf("amount_pattern is not a valid regular expression: %w", err)
	}
	if re.NumSubexp() < 1 {
		return fmt.Errorf("amount_pattern must have a capture group for the amount")
	}

	if *cfg.SurveySkipRows < 0 {
		return fmt.Errorf("survey_skip_rows must not be negative")
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q must be one of debug, info, warn, error", cfg.LogLevel)
	}

	switch strings.ToLower(cfg.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("log_format %q must be console or json", cfg.LogFormat)
	}

	return nil
}

func parsePositive(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q is not a decimal: %w", field, value, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s must be greater than zero", field)
	}
	return d, nil
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// Fee returns the parsed registration fee.
func (c *Config) Fee() decimal.Decimal {
	return c.registrationFee
}

// FilterDivisor returns the parsed filter divisor.
func (c *Config) FilterDivisor() decimal.Decimal {
	d, _ := decimal.NewFromString(c.Filter.Divisor)
	return d
}

// FilterMinAmount returns the parsed filter minimum and whether one is set.
func (c *Config) FilterMinAmount() (decimal.Decimal, bool) {
	if c.Filter.MinAmount == "" {
		return decimal.Zero, false
	}
	d, _ := decimal.NewFromString(c.Filter.MinAmount)
	return d, true
}

// SkipRows returns the number of leading survey rows to discard.
func (c *Config) SkipRows() int {
	if c.SurveySkipRows == nil {
		return DefaultSurveySkipRows
	}
	return *c.SurveySkipRows
}

// CompiledAmountPattern returns the compiled products amount pattern.
func (c *Config) CompiledAmountPattern() *regexp.Regexp {
	return regexp.MustCompile(c.AmountPattern)
}
