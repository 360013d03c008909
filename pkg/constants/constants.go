// Package constants provides shared constants for the mortality.watch core.
package constants

// Numeric constants
const (
	// MinBaselineThreshold is the smallest absolute baseline a relative excess
	// is computed against. Anything closer to zero yields NaN.
	MinBaselineThreshold = 0.01

	// DisplayDecimals is the number of decimals kept in ranking table cells
	DisplayDecimals = 3

	// AbsoluteZeroTolerance marks absolute-mode readings that are treated as absent.
	// Rates and life expectancies are never exactly zero.
	AbsoluteZeroTolerance = 0.001

	// MissingValue marks a missing or invalid table cell. It equals the
	// JavaScript Number.MIN_SAFE_INTEGER so rows sort last in the web table.
	MissingValue float64 = -(1<<53 - 1)
)

// Ranking table constants
const (
	// TotalColumnKey is the default key of the ranking total column
	TotalColumnKey = "TOTAL"

	// LowerSuffix is appended to a column key for its lower bound
	LowerSuffix = "_l"

	// UpperSuffix is appended to a column key for its upper bound
	UpperSuffix = "_u"

	// ExplorerPath is the web path jurisdiction rows link to
	ExplorerPath = "/explorer"
)

// Baseline period defaults
const (
	// DefaultBaselineEndYear is the last pre-pandemic calendar year used as
	// the default end of a baseline period.
	DefaultBaselineEndYear = 2019
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// DefaultEnvFile is the optional dotenv file read before the configuration
	DefaultEnvFile = ".env"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (1 MB)
	DefaultMaxUploadSizeBytes int64 = 1024 * 1024

	// DefaultRankingWorkers bounds concurrent row processing when building a table
	DefaultRankingWorkers = 8
)
