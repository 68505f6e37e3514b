// Package constants provides shared constants for the savings-protocol application.
package constants

// ProtocolVersion is reported on every API and CLI response.
const ProtocolVersion = "1.0"

// Financial constants
const (
	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// RatioPrecision is the precision for reported viability ratios (3 decimal places)
	RatioPrecision = 1000

	// OptimizerSeed is the fixed first term of an optimized progression
	OptimizerSeed = 1.0

	// ArithmeticTolerance is the absolute tolerance when checking common differences
	ArithmeticTolerance = 0.01
)

// Protocol defaults applied when a request omits its progression parameters
const (
	DefaultStartValue = 1.0
	DefaultIncrement  = 1.0
	DefaultCap        = 500.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON emits the API response body
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix scopes environment overrides, e.g. SAVINGS_LIMITS_PERIODS_MAX
	EnvPrefix = "SAVINGS"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8000"

	// DefaultMaxBodySizeBytes is the default maximum JSON request body (64 KB)
	DefaultMaxBodySizeBytes int64 = 64 * 1024

	// DefaultRequestsPerMinute is the default per-client minute window limit
	DefaultRequestsPerMinute = 60

	// DefaultRequestsPerHour is the default per-client hour window limit
	DefaultRequestsPerHour = 1000
)

// Validation constants
const (
	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)
